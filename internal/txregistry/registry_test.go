package txregistry

import (
	"context"
	"testing"
)

func TestAttachRejectsDuplicateSession(t *testing.T) {
	r := New()
	ctx, _, err := r.Attach(context.Background(), 1)
	if err != nil {
		t.Fatalf("first Attach: %v", err)
	}
	if _, _, err := r.Attach(ctx, 1); err == nil {
		t.Fatal("expected second Attach for the same session to fail")
	}
}

func TestCurrentForResolvesInnermostNestedTransaction(t *testing.T) {
	r := New()

	outerCtx, outerTC, err := r.Attach(context.Background(), 1)
	if err != nil {
		t.Fatalf("Attach outer: %v", err)
	}

	innerCtx, innerTC, err := r.Attach(outerCtx, 2)
	if err != nil {
		t.Fatalf("Attach inner: %v", err)
	}

	sessID, tc, ok := r.CurrentFor(innerCtx)
	if !ok || sessID != 2 || tc != innerTC {
		t.Fatalf("CurrentFor(innerCtx) = (%d, %v, %v), want the inner context", sessID, tc, ok)
	}

	r.Detach(innerCtx, 2)

	sessID, tc, ok = r.CurrentFor(outerCtx)
	if !ok || sessID != 1 || tc != outerTC {
		t.Fatalf("CurrentFor(outerCtx) after inner detach = (%d, %v, %v), want the outer context restored", sessID, tc, ok)
	}
}

func TestCurrentForUntaggedContextReturnsFalse(t *testing.T) {
	r := New()
	if _, _, ok := r.CurrentFor(context.Background()); ok {
		t.Fatal("expected CurrentFor on an untagged context to report false")
	}
}

func TestDetachDiscardsHooks(t *testing.T) {
	r := New()
	ctx, tc, err := r.Attach(context.Background(), 5)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	tc.OnCommit(func() error { return nil })

	r.Detach(ctx, 5)

	if _, _, ok := r.CurrentFor(ctx); ok {
		t.Fatal("expected CurrentFor to return false after Detach")
	}
	// Re-attaching the same session id after detach must succeed.
	if _, _, err := r.Attach(ctx, 5); err != nil {
		t.Fatalf("re-Attach after Detach: %v", err)
	}
}
