package model

// Tick is a single price update for one instrument as delivered by the feed.
// Optional fields (Ask, Bid, PipSize) are zero when the feed omits them.
type Tick struct {
	Symbol  string
	Epoch   int64 // seconds since epoch, UTC
	Quote   float64
	Ask     float64
	Bid     float64
	PipSize float64
}
