package picture

import (
	"context"
	"time"
)

// Hooks receives events from the engine, e.g. to feed metrics.
type Hooks interface {
	// OnResolve records a finished resolution.
	OnResolve(ctx context.Context, id string, sources int, duration time.Duration)

	// OnCandidateDropped records a candidate the renderer refused.
	OnCandidateDropped(ctx context.Context, id string, format Format, width int, err error)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

func (NoopHooks) OnResolve(context.Context, string, int, time.Duration) {}
func (NoopHooks) OnCandidateDropped(context.Context, string, Format, int, error) {}
