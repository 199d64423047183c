package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ticksentinel"

var (
	// TicksReceived counts ticks handed over by the feed, partitioned by symbol.
	TicksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_received_total",
			Help:      "Number of ticks received from the feed, partitioned by symbol",
		},
		[]string{"symbol"},
	)

	// RecordsAppended counts records successfully written to the recorder.
	RecordsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_appended_total",
			Help:      "Number of records persisted, partitioned by symbol",
		},
		[]string{"symbol"},
	)

	// DuplicatesSkipped counts records identical to the last one appended.
	DuplicatesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Number of records skipped because they repeat the last appended record",
		},
		[]string{"symbol"},
	)

	// RecorderErrors counts failed appends.
	RecorderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_errors_total",
			Help:      "Number of failed record appends, partitioned by symbol",
		},
		[]string{"symbol"},
	)

	// CooldownSkipped counts records not appended while a symbol is paused after an error.
	CooldownSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cooldown_skipped_total",
			Help:      "Number of records not appended during the post-error pause",
		},
		[]string{"symbol"},
	)

	// Reconnects counts transitions back to the disconnected state.
	Reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_reconnects_total",
			Help:      "Number of times the feed connection was lost",
		},
	)

	// FeedState holds the current connection state as its numeric value.
	FeedState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_state",
			Help:      "Current feed state (0 disconnected .. 4 streaming, 5 closed, 6 failed)",
		},
	)

	// LastTickTime stores the epoch of the last tick per symbol.
	LastTickTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_tick_epoch_seconds",
			Help:      "Event time of the last tick received, partitioned by symbol",
		},
		[]string{"symbol"},
	)

	// CandleResets counts scheduled candle resets applied.
	CandleResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candle_resets_total",
			Help:      "Number of times all candles were reset by the schedule",
		},
	)
)
