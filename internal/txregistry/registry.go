// Package txregistry implements the transaction context registry: a
// mapping from session identity to transaction context, with lookup scoped
// to the invoking task rather than the thread or the session.
//
// A garbage-collected runtime with weak-map support could key this registry
// weakly, letting a discarded session implicitly discard its entry. Go has
// no portable weak map, so this registry clears the entry explicitly in the
// runner's terminal block instead: the transaction runner's defer always
// calls Detach on every exit path, so no entry outlives the attempt that
// created it.
package txregistry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry is the process-wide Transaction Context table. Safe for
// concurrent use by multiple goroutines running independent transactions.
type Registry struct {
	mu sync.Mutex

	byID  map[uint64]*TransactionContext
	stack map[uuid.UUID][]uint64 // task id -> stack of attached session ids, innermost last
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{
		byID:  make(map[uint64]*TransactionContext),
		stack: make(map[uuid.UUID][]uint64),
	}
}

// Attach inserts an empty Transaction Context for sessionID, tagging ctx
// with a task token if it doesn't already carry one. Fails if an entry
// already exists for sessionID.
func (r *Registry) Attach(ctx context.Context, sessionID uint64) (context.Context, *TransactionContext, error) {
	ctx, taskID := WithTask(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[sessionID]; exists {
		return ctx, nil, fmt.Errorf("txregistry: session %d already has an attached transaction context", sessionID)
	}

	tc := &TransactionContext{ownerTaskID: taskID}
	r.byID[sessionID] = tc
	r.stack[taskID] = append(r.stack[taskID], sessionID)
	return ctx, tc, nil
}

// Detach removes the entry for sessionID, discarding its hooks, and pops it
// from its owning task's nesting stack — this is what makes a nested
// transaction's exit restore the outer one as "current" again.
func (r *Registry) Detach(ctx context.Context, sessionID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, sessionID)

	taskID, ok := TaskID(ctx)
	if !ok {
		return
	}
	stack := r.stack[taskID]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == sessionID {
			r.stack[taskID] = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(r.stack[taskID]) == 0 {
		delete(r.stack, taskID)
	}
}

// CurrentFor locates the innermost Transaction Context owned by ctx's task
// identity — used by on-commit/on-rollback callers that hold only a ctx,
// not a Transaction façade directly.
func (r *Registry) CurrentFor(ctx context.Context) (sessionID uint64, tc *TransactionContext, ok bool) {
	taskID, ok := TaskID(ctx)
	if !ok {
		return 0, nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stack := r.stack[taskID]
	if len(stack) == 0 {
		return 0, nil, false
	}
	sessionID = stack[len(stack)-1]
	tc, ok = r.byID[sessionID]
	return sessionID, tc, ok
}
