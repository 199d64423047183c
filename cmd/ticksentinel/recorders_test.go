package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"TickSentinel/internal/config"
	"TickSentinel/internal/model"
	"TickSentinel/internal/recorder"
)

func TestBuildRecorder_CSVAndSQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Sink.CSVDir = filepath.Join(dir, "csv")
	cfg.Sink.SQLitePath = filepath.Join(dir, "ticks.db")

	rec := buildRecorder(cfg, zaptest.NewLogger(t))
	if _, ok := rec.(*recorder.MultiRecorder); !ok {
		t.Fatalf("got %T, want *recorder.MultiRecorder", rec)
	}

	r := model.Record{Symbol: "frxEURUSD", Epoch: 1700000000, Price: 1.1, Open: 1.1, High: 1.1, Low: 1.1, Close: 1.1}
	if err := rec.Append(context.Background(), r.Symbol, r); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Sink.CSVDir, "frxEURUSD_live_data.csv")); err != nil {
		t.Errorf("csv file missing: %v", err)
	}
	if _, err := os.Stat(cfg.Sink.SQLitePath); err != nil {
		t.Errorf("sqlite file missing: %v", err)
	}
}

func TestBuildRecorder_FallsBackToNoop(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sink.RedisAddr = "127.0.0.1:1"

	rec := buildRecorder(cfg, zaptest.NewLogger(t))
	if _, ok := rec.(*recorder.NoopRecorder); !ok {
		t.Fatalf("got %T, want *recorder.NoopRecorder", rec)
	}
}
