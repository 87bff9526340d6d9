package driver

import (
	"context"
	"sync"
)

// FakeDialer hands out fake Conns, optionally failing the first FailDials
// dials for tests that exercise factory error paths. Safe for concurrent Dial calls.
type FakeDialer struct {
	Script    *FakeScript
	FailDials int // number of leading Dial calls that return DialErr
	DialErr   error

	mu        sync.Mutex
	dialCount int
}

func (d *FakeDialer) Dial(ctx context.Context, host string, port int, socket, user, password, database string) (Conn, error) {
	d.mu.Lock()
	d.dialCount++
	count := d.dialCount
	d.mu.Unlock()

	if count <= d.FailDials {
		return nil, d.DialErr
	}
	return NewFake(d.Script), nil
}
