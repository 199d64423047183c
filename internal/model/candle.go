package model

import "time"

// TimeLayout is the UTC timestamp format used for persisted records.
const TimeLayout = "2006-01-02 15:04:05"

// Candle is the running OHLC aggregate for one instrument.
type Candle struct {
	Open    float64
	High    float64
	Low     float64
	Close   float64
	Ask     float64
	Bid     float64
	PipSize float64
	Epoch   int64
}

// Record is one snapshot of a Candle, emitted for every processed tick.
// All fields are comparable so two records can be checked with ==.
type Record struct {
	Symbol  string
	Epoch   int64
	Price   float64
	Open    float64
	High    float64
	Low     float64
	Close   float64
	Ask     float64
	Bid     float64
	PipSize float64
}

// Time returns the event time of the triggering tick in UTC.
func (r Record) Time() time.Time {
	return time.Unix(r.Epoch, 0).UTC()
}

// FormattedTime returns Time formatted with TimeLayout.
func (r Record) FormattedTime() string {
	return r.Time().Format(TimeLayout)
}
