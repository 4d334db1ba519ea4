package pipeline

import "context"

// Reporter receives progress callbacks as a run moves through its stages.
// Implementations must be fast; the pipeline calls them synchronously.
type Reporter interface {
	StageStarted(ctx context.Context, stage, detail string)
}

// NopReporter ignores all progress callbacks.
type NopReporter struct{}

func (NopReporter) StageStarted(context.Context, string, string) {}
