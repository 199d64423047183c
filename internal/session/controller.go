package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"TickSentinel/internal/aggregator"
	"TickSentinel/internal/collector"
	"TickSentinel/internal/metrics"
	"TickSentinel/internal/model"
	"TickSentinel/internal/notifier"
	"TickSentinel/internal/recorder"
)

// DefaultErrorPause is how long appends for a symbol are held back after a
// recorder failure.
const DefaultErrorPause = time.Second

// Alerter delivers operator alerts.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Options tunes the per-tick handling.
type Options struct {
	Dedupe     bool
	ErrorPause time.Duration
}

// Controller drives the feed client, folds ticks into candles and hands the
// resulting records to the recorder. All candle state is touched only from
// the client's receive loop.
type Controller struct {
	client   *collector.Client
	agg      *aggregator.Aggregator
	recorder recorder.Recorder
	alerter  Alerter
	log      *zap.Logger
	opts     Options
	symbols  []string

	lastAppended map[string]model.Record
	pausedUntil  map[string]time.Time
	resetPending atomic.Bool
	cron         *cron.Cron
	now          func() time.Time
}

// NewController creates a Controller for the given instrument set.
func NewController(client *collector.Client, rec recorder.Recorder, symbols []string, opts Options, logger *zap.Logger) *Controller {
	if opts.ErrorPause <= 0 {
		opts.ErrorPause = DefaultErrorPause
	}
	return &Controller{
		client:       client,
		agg:          aggregator.New(),
		recorder:     rec,
		log:          logger.Named("session"),
		opts:         opts,
		symbols:      symbols,
		lastAppended: make(map[string]model.Record),
		pausedUntil:  make(map[string]time.Time),
		now:          time.Now,
	}
}

// SetAlerter installs an alerter for terminal failures.
func (c *Controller) SetAlerter(a Alerter) { c.alerter = a }

// ScheduleReset registers a cron schedule (with seconds field, UTC) on which
// every candle is closed and reopened by the next tick. Without a schedule
// candles accumulate for the whole process lifetime.
func (c *Controller) ScheduleReset(spec string) error {
	if c.cron == nil {
		c.cron = cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	}
	if _, err := c.cron.AddFunc(spec, c.RequestReset); err != nil {
		return fmt.Errorf("register candle reset %q: %w", spec, err)
	}
	c.log.Info("candle reset scheduled", zap.String("cron", spec))
	return nil
}

// RequestReset asks for all candles to be reset. The reset is applied before
// the next tick is folded, never during an update.
func (c *Controller) RequestReset() {
	c.resetPending.Store(true)
}

// Run is the process main loop. It returns only when ctx is cancelled or the
// feed fails terminally (credential rejected, bad endpoint).
func (c *Controller) Run(ctx context.Context) error {
	c.client.OnStateChange = c.onStateChange
	if c.cron != nil {
		c.cron.Start()
		defer c.cron.Stop()
	}

	c.log.Info("session started", zap.Int("symbols", len(c.symbols)), zap.Bool("dedupe", c.opts.Dedupe))
	err := c.client.Run(ctx, c.HandleTick)
	if err != nil && collector.IsTerminal(err) {
		c.log.Error("session stopped", zap.Error(err))
		c.alert(ctx, "Feed stopped", err)
	}
	return err
}

// HandleTick folds one tick and appends the resulting record.
func (c *Controller) HandleTick(ctx context.Context, t model.Tick) {
	metrics.TicksReceived.WithLabelValues(t.Symbol).Inc()
	metrics.LastTickTime.WithLabelValues(t.Symbol).Set(float64(t.Epoch))

	if c.resetPending.Swap(false) {
		closed := c.agg.Symbols()
		c.agg.Reset()
		metrics.CandleResets.Inc()
		c.log.Info("candles reset", zap.Strings("symbols", closed))
	}

	rec := c.agg.Update(t)

	if c.opts.Dedupe {
		if last, ok := c.lastAppended[t.Symbol]; ok && last == rec {
			metrics.DuplicatesSkipped.WithLabelValues(t.Symbol).Inc()
			c.log.Debug("duplicate record skipped", zap.String("symbol", t.Symbol), zap.Int64("epoch", t.Epoch))
			return
		}
	}

	now := c.now()
	if until, ok := c.pausedUntil[t.Symbol]; ok {
		if now.Before(until) {
			metrics.CooldownSkipped.WithLabelValues(t.Symbol).Inc()
			return
		}
		delete(c.pausedUntil, t.Symbol)
	}

	if err := c.recorder.Append(ctx, t.Symbol, rec); err != nil {
		c.pausedUntil[t.Symbol] = now.Add(c.opts.ErrorPause)
		metrics.RecorderErrors.WithLabelValues(t.Symbol).Inc()
		c.log.Error("append record failed",
			zap.String("symbol", t.Symbol), zap.Int64("epoch", t.Epoch),
			zap.Duration("pause", c.opts.ErrorPause), zap.Error(err))
		return
	}

	// only a fully successful append counts for de-dup; after a partial
	// failure the same record is written again to every sink
	c.lastAppended[t.Symbol] = rec
	metrics.RecordsAppended.WithLabelValues(t.Symbol).Inc()
	c.log.Info("record saved",
		zap.String("symbol", rec.Symbol),
		zap.String("time", rec.FormattedTime()),
		zap.Float64("price", rec.Price),
		zap.Float64("open", rec.Open),
		zap.Float64("high", rec.High),
		zap.Float64("low", rec.Low),
		zap.Float64("close", rec.Close))
}

// Candle returns the current candle for symbol. Not safe while Run is active.
func (c *Controller) Candle(symbol string) (model.Candle, bool) {
	return c.agg.Candle(symbol)
}

func (c *Controller) onStateChange(from, to collector.State) {
	metrics.FeedState.Set(float64(to))
	if to == collector.Disconnected && from != collector.Disconnected {
		metrics.Reconnects.Inc()
	}
}

func (c *Controller) alert(ctx context.Context, title string, err error) {
	if c.alerter == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	text := notifier.FormatAlert(title, err, c.symbols, c.now())
	if aerr := c.alerter.Alert(actx, text); aerr != nil {
		c.log.Error("send alert", zap.Error(aerr))
	}
}
