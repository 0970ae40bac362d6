package schedule

import "context"

// Source fetches the schedule for one direction.
type Source interface {
	FetchSchedule(ctx context.Context, direction Direction) (Response, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, direction Direction) (Response, error)

func (fn SourceFunc) FetchSchedule(ctx context.Context, direction Direction) (Response, error) {
	return fn(ctx, direction)
}
