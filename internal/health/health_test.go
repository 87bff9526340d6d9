package health

import (
	"testing"

	"github.com/joao-brasil/asyncmysql/internal/driver"
	"github.com/joao-brasil/asyncmysql/internal/session"
)

func TestIsAliveHealthy(t *testing.T) {
	s := session.New(driver.NewFake(&driver.FakeScript{}))
	if !IsAlive(s) {
		t.Fatal("expected session to be alive")
	}
}

func TestIsAliveUnhealthy(t *testing.T) {
	s := session.New(driver.NewFake(&driver.FakeScript{FailAlive: true}))
	// FailAlive only affects Alive(); IsAlive drives SELECT 1 through
	// Query/Poll/Reap, so script an explicit failure for it instead.
	s2 := session.New(driver.NewFake(&driver.FakeScript{
		Errors: map[string]error{"SELECT 1": errFake},
	}))
	_ = s
	if IsAlive(s2) {
		t.Fatal("expected session to be unhealthy")
	}
}

func TestResetClearsTransactionAndRestoresAutocommit(t *testing.T) {
	s := session.New(driver.NewFake(&driver.FakeScript{}))
	s.SetInTransaction(true)
	Reset(s)
	if s.InTransaction() {
		t.Error("Reset should clear in-transaction flag")
	}
	if !s.Autocommit() {
		t.Error("Reset should re-enable autocommit")
	}
}

var errFake = fakeErr{}

type fakeErr struct{}

func (fakeErr) Error() string { return "fake driver error" }
