package txregistry

import (
	"sync"

	"github.com/google/uuid"
)

// TransactionContext holds per-session commit/rollback hook lists plus the
// identity of the task that opened the transaction.
type TransactionContext struct {
	mu            sync.Mutex
	ownerTaskID   uuid.UUID
	commitHooks   []func() error
	rollbackHooks []func() error
}

// OwnerTaskID is the task identity this context was attached under.
func (tc *TransactionContext) OwnerTaskID() uuid.UUID { return tc.ownerTaskID }

// OnCommit appends fn to the commit hook list, run in registration order
// after a successful COMMIT.
func (tc *TransactionContext) OnCommit(fn func() error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.commitHooks = append(tc.commitHooks, fn)
}

// OnRollback appends fn to the rollback hook list, run in registration
// order after a ROLLBACK.
func (tc *TransactionContext) OnRollback(fn func() error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.rollbackHooks = append(tc.rollbackHooks, fn)
}

// CommitHooks returns a snapshot of the registered commit hooks.
func (tc *TransactionContext) CommitHooks() []func() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make([]func() error, len(tc.commitHooks))
	copy(out, tc.commitHooks)
	return out
}

// RollbackHooks returns a snapshot of the registered rollback hooks.
func (tc *TransactionContext) RollbackHooks() []func() error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make([]func() error, len(tc.rollbackHooks))
	copy(out, tc.rollbackHooks)
	return out
}
