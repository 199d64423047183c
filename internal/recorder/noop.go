package recorder

import (
	"context"

	"TickSentinel/internal/model"
)

// NoopRecorder discards every record. Used when no sink is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Append(context.Context, string, model.Record) error { return nil }
func (n *NoopRecorder) Close() error                                        { return nil }
