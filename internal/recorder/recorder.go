package recorder

import (
	"context"

	"TickSentinel/internal/model"
)

// Recorder persists tick records. Calls for the same symbol are made in
// order; implementations must return within a bounded time.
type Recorder interface {
	Append(ctx context.Context, symbol string, rec model.Record) error
	Close() error
}
