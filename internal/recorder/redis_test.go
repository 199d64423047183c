package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"

	"TickSentinel/internal/model"
)

func TestRecordFields(t *testing.T) {
	rec := model.Record{Symbol: "frxEURUSD", Epoch: 1700000000, Price: 1.1, Open: 1.0, High: 1.2, Low: 0.9, Close: 1.1, PipSize: 5}
	f := recordFields(rec)
	if f["time"] != "2023-11-14 22:13:20" || f["epoch"] != int64(1700000000) || f["high"] != 1.2 {
		t.Errorf("unexpected fields %v", f)
	}
	if len(f) != 11 {
		t.Errorf("expected 11 fields, got %d", len(f))
	}
	if LatestKey("frxEURUSD") != "tick:frxEURUSD" {
		t.Errorf("unexpected key %q", LatestKey("frxEURUSD"))
	}
}

func TestNewRedisRecorder_Unreachable(t *testing.T) {
	_, err := NewRedisRecorder(RedisOptions{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected ping error")
	}
}

func TestRedisRecorder_AppendOverwritesLatest(t *testing.T) {
	srv := miniredis.RunT(t)
	r, err := NewRedisRecorder(RedisOptions{Addr: srv.Addr(), TTL: time.Minute}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRedisRecorder: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	first := model.Record{Symbol: "frxEURUSD", Epoch: 1700000000, Price: 1.1, Open: 1.1, High: 1.1, Low: 1.1, Close: 1.1}
	second := model.Record{Symbol: "frxEURUSD", Epoch: 1700000001, Price: 1.2, Open: 1.1, High: 1.2, Low: 1.1, Close: 1.2, Ask: 1.21, Bid: 1.19, PipSize: 4}
	if err := r.Append(ctx, first.Symbol, first); err != nil {
		t.Fatalf("Append first: %v", err)
	}
	if err := r.Append(ctx, second.Symbol, second); err != nil {
		t.Fatalf("Append second: %v", err)
	}

	key := LatestKey("frxEURUSD")
	checks := map[string]string{
		"symbol":   "frxEURUSD",
		"epoch":    "1700000001",
		"time":     "2023-11-14 22:13:21",
		"price":    "1.2",
		"high":     "1.2",
		"close":    "1.2",
		"open":     "1.1",
		"ask":      "1.21",
		"pip_size": "4",
	}
	for field, want := range checks {
		if got := srv.HGet(key, field); got != want {
			t.Errorf("%s.%s = %q, want %q", key, field, got, want)
		}
	}
	if ttl := srv.TTL(key); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}
}

func TestRedisRecorder_NoTTLKeepsKey(t *testing.T) {
	srv := miniredis.RunT(t)
	r, err := NewRedisRecorder(RedisOptions{Addr: srv.Addr()}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewRedisRecorder: %v", err)
	}
	defer r.Close()

	rec := model.Record{Symbol: "frxGBPUSD", Epoch: 1700000000, Price: 1.27, Open: 1.27, High: 1.27, Low: 1.27, Close: 1.27}
	if err := r.Append(context.Background(), rec.Symbol, rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	key := LatestKey("frxGBPUSD")
	if !srv.Exists(key) {
		t.Fatalf("key %s missing", key)
	}
	if ttl := srv.TTL(key); ttl != 0 {
		t.Errorf("ttl = %v, want none", ttl)
	}
}
