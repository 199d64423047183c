package recorder

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"TickSentinel/internal/model"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{Symbol: "frxEURUSD", Epoch: 1700000000, Price: 1.1, Open: 1.1, High: 1.1, Low: 1.1, Close: 1.1, Ask: 1.10012, Bid: 1.09992, PipSize: 5},
		{Symbol: "frxEURUSD", Epoch: 1700000001, Price: 1.105, Open: 1.1, High: 1.105, Low: 1.1, Close: 1.105, PipSize: 5},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestCSVRecorder_HeaderOnceAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := NewCSVRecorder(dir, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	recs := sampleRecords()
	for _, rec := range recs {
		if err := r.Append(context.Background(), rec.Symbol, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	path := filepath.Join(dir, "frxEURUSD_live_data.csv")
	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %v", len(lines), lines)
	}
	if lines[0] != "Time,Symbol,Ask,Bid,Epoch,Pip_Size,Open,Price,High,Low,Close" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2023-11-14 22:13:20,frxEURUSD,") {
		t.Errorf("unexpected first row %q", lines[1])
	}

	got, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("expected %d records, got %d", len(recs), len(got))
	}
	for i := range recs {
		if got[i] != recs[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], recs[i])
		}
	}
}

func TestCSVRecorder_ReopenDoesNotRepeatHeader(t *testing.T) {
	dir := t.TempDir()
	recs := sampleRecords()
	for i := 0; i < 2; i++ {
		r, err := NewCSVRecorder(dir, zaptest.NewLogger(t))
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if err := r.Append(context.Background(), "frxEURUSD", recs[i]); err != nil {
			t.Fatalf("append: %v", err)
		}
		r.Close()
	}
	lines := readLines(t, filepath.Join(dir, "frxEURUSD_live_data.csv"))
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %v", lines)
	}
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "Time,") {
			t.Errorf("header repeated: %v", lines)
		}
	}
}

func TestCSVRecorder_FilePerInstrument(t *testing.T) {
	dir := t.TempDir()
	r, _ := NewCSVRecorder(dir, zaptest.NewLogger(t))
	defer r.Close()
	r.Append(context.Background(), "A", model.Record{Symbol: "A", Epoch: 1, Price: 1})
	r.Append(context.Background(), "B", model.Record{Symbol: "B", Epoch: 1, Price: 2})

	for _, s := range []string{"A", "B"} {
		if _, err := os.Stat(r.FilePath(s)); err != nil {
			t.Errorf("missing file for %s: %v", s, err)
		}
	}
}

func TestCSVRecorder_OpenFailure(t *testing.T) {
	dir := t.TempDir()
	r, _ := NewCSVRecorder(dir, zaptest.NewLogger(t))
	defer r.Close()
	// a directory where the file should be makes the open fail
	if err := os.Mkdir(r.FilePath("X"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := r.Append(context.Background(), "X", model.Record{Symbol: "X"}); err == nil {
		t.Error("expected append error")
	}
}
