package aggregator

import (
	"sort"

	"TickSentinel/internal/model"
)

// Aggregator folds ticks into per-instrument running candles.
// It performs no I/O and is not safe for concurrent use; the owner
// serializes calls.
type Aggregator struct {
	candles map[string]*model.Candle
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{candles: make(map[string]*model.Candle)}
}

// Update folds the tick into the instrument's candle and returns the
// resulting snapshot. The first tick for an instrument sets Open; ticks are
// folded in arrival order with no timestamp check.
func (a *Aggregator) Update(t model.Tick) model.Record {
	c, ok := a.candles[t.Symbol]
	if !ok {
		c = &model.Candle{Open: t.Quote, High: t.Quote, Low: t.Quote}
		a.candles[t.Symbol] = c
	}

	if t.Quote > c.High {
		c.High = t.Quote
	}
	if t.Quote < c.Low {
		c.Low = t.Quote
	}
	c.Close = t.Quote
	c.Ask = t.Ask
	c.Bid = t.Bid
	c.PipSize = t.PipSize
	c.Epoch = t.Epoch

	return model.Record{
		Symbol:  t.Symbol,
		Epoch:   t.Epoch,
		Price:   t.Quote,
		Open:    c.Open,
		High:    c.High,
		Low:     c.Low,
		Close:   c.Close,
		Ask:     c.Ask,
		Bid:     c.Bid,
		PipSize: c.PipSize,
	}
}

// Candle returns a copy of the current candle for symbol.
func (a *Aggregator) Candle(symbol string) (model.Candle, bool) {
	c, ok := a.candles[symbol]
	if !ok {
		return model.Candle{}, false
	}
	return *c, true
}

// Symbols returns the instruments that have received at least one tick, sorted.
func (a *Aggregator) Symbols() []string {
	out := make([]string, 0, len(a.candles))
	for s := range a.candles {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Reset drops every candle. The next tick for an instrument opens a new one.
func (a *Aggregator) Reset() {
	a.candles = make(map[string]*model.Candle)
}
