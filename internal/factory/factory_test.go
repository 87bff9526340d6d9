package factory

import (
	"context"
	"sync"
	"testing"

	"github.com/joao-brasil/asyncmysql/internal/config"
	"github.com/joao-brasil/asyncmysql/internal/driver"
)

func TestCreateNonPersistentAlwaysDialsFresh(t *testing.T) {
	cfg := &config.Record{Host: "db", Port: 3306, Database: "app", Username: "u"}
	dialer := &driver.FakeDialer{Script: &driver.FakeScript{}}
	f := New(cfg, dialer)

	s1, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s2, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s1.ThreadID() == s2.ThreadID() {
		t.Error("non-persistent factory handed out the same underlying conn twice")
	}
}

func TestConcurrentCreateNeverHandsOutSameConnTwice(t *testing.T) {
	cfg := &config.Record{Host: "db", Port: 3306, Database: "app", Username: "u", Persistent: true, Capacity: 8}
	dialer := &driver.FakeDialer{Script: &driver.FakeScript{}}
	f := New(cfg, dialer)

	const n = 16
	var wg sync.WaitGroup
	ids := make([]uint32, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := f.Create(context.Background())
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			ids[i] = sess.ThreadID()
		}(i)
	}
	wg.Wait()

	seen := make(map[uint32]int, n)
	for _, id := range ids {
		seen[id]++
	}
	for id, count := range seen {
		if count > 1 {
			t.Errorf("thread id %d handed out to %d concurrent callers, want at most 1", id, count)
		}
	}
}

func TestReleaseAllowsPersistentReuse(t *testing.T) {
	cfg := &config.Record{Host: "db", Port: 3306, Database: "app", Username: "u", Persistent: true}
	dialer := &driver.FakeDialer{Script: &driver.FakeScript{}}
	f := New(cfg, dialer)

	sess, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	conn := sess.Conn()

	if ok := f.Release(conn); !ok {
		t.Fatal("Release of a live, persistent conn should succeed")
	}

	reused, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if reused.ThreadID() != sess.ThreadID() {
		t.Error("Create after Release should reuse the released conn, not dial fresh")
	}
}

func TestReleaseNoopWhenNotPersistent(t *testing.T) {
	cfg := &config.Record{Host: "db", Port: 3306, Database: "app", Username: "u"}
	dialer := &driver.FakeDialer{Script: &driver.FakeScript{}}
	f := New(cfg, dialer)

	sess, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ok := f.Release(sess.Conn()); ok {
		t.Error("Release should be a no-op for a non-persistent factory")
	}
}

func TestReleaseDoesNotAcceptDeadConn(t *testing.T) {
	cfg := &config.Record{Host: "db", Port: 3306, Database: "app", Username: "u", Persistent: true}
	script := &driver.FakeScript{FailAlive: true}
	dialer := &driver.FakeDialer{Script: script}
	f := New(cfg, dialer)

	sess, err := f.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ok := f.Release(sess.Conn()); ok {
		t.Error("Release should refuse a conn that's no longer alive")
	}
}
