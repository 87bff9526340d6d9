package txregistry

import (
	"context"

	"github.com/google/uuid"
)

type taskKey struct{}

// WithTask tags ctx with a fresh task token if it does not already carry
// one. This is the owner-task-id transaction contexts are keyed by — an
// explicit context value rather than thread-local or goroutine-local
// storage, which Go has neither of. A ctx that already carries a token
// (a nested run-transaction call on the same chain) keeps it unchanged, so
// nested invocations from the same logical task share one identity.
func WithTask(ctx context.Context) (context.Context, uuid.UUID) {
	if id, ok := TaskID(ctx); ok {
		return ctx, id
	}
	id := uuid.New()
	return context.WithValue(ctx, taskKey{}, id), id
}

// TaskID reads the task token tagged onto ctx by WithTask, if any.
func TaskID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(taskKey{}).(uuid.UUID)
	return id, ok
}
