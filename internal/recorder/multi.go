package recorder

import (
	"context"
	"errors"
	"fmt"

	"TickSentinel/internal/model"
)

// MultiRecorder appends every record to all of its recorders. A failing
// recorder does not prevent the others from being written.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder combines recorders. With a single recorder it returns it unchanged.
func NewMultiRecorder(recorders ...Recorder) Recorder {
	if len(recorders) == 1 {
		return recorders[0]
	}
	if len(recorders) == 0 {
		return NewNoopRecorder()
	}
	return &MultiRecorder{recorders: recorders}
}

func (m *MultiRecorder) Append(ctx context.Context, symbol string, rec model.Record) error {
	var errs []error
	for i, r := range m.recorders {
		if err := r.Append(ctx, symbol, rec); err != nil {
			errs = append(errs, fmt.Errorf("recorder %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiRecorder) Close() error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
