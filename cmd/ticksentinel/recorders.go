package main

import (
	"go.uber.org/zap"

	"TickSentinel/internal/config"
	"TickSentinel/internal/recorder"
)

// buildRecorder opens every configured sink. A sink that fails to open is
// logged and left out; with none left the noop recorder is used.
func buildRecorder(cfg *config.Config, lg *zap.Logger) recorder.Recorder {
	var sinks []recorder.Recorder

	if cfg.Sink.CSVDir != "" {
		cr, err := recorder.NewCSVRecorder(cfg.Sink.CSVDir, lg)
		if err != nil {
			lg.Warn("init csv recorder failed", zap.String("dir", cfg.Sink.CSVDir), zap.Error(err))
		} else {
			sinks = append(sinks, cr)
		}
	}

	if cfg.Sink.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Sink.SQLitePath, lg)
		if err != nil {
			lg.Warn("init sqlite recorder failed", zap.String("path", cfg.Sink.SQLitePath), zap.Error(err))
		} else {
			sinks = append(sinks, sr)
		}
	}

	if cfg.Sink.RedisAddr != "" {
		rr, err := recorder.NewRedisRecorder(recorder.RedisOptions{
			Addr:     cfg.Sink.RedisAddr,
			Password: cfg.Sink.RedisPassword,
			DB:       cfg.Sink.RedisDB,
			TTL:      cfg.Sink.RedisTTL,
		}, lg)
		if err != nil {
			lg.Warn("init redis recorder failed", zap.String("addr", cfg.Sink.RedisAddr), zap.Error(err))
		} else {
			sinks = append(sinks, rr)
		}
	}

	if len(sinks) == 0 {
		lg.Warn("no recorder available, using noop")
	}
	return recorder.NewMultiRecorder(sinks...)
}
