package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tasklist-cli/tasklist/internal/types"
)

// flakyBoard fails the first n calls of each method with err.
type flakyBoard struct {
	*Fake
	failures int
	err      error
	calls    int
}

func (b *flakyBoard) fail() error {
	b.calls++
	if b.calls <= b.failures {
		return b.err
	}
	return nil
}

func (b *flakyBoard) ListLists(ctx context.Context, boardID string) ([]*List, error) {
	if err := b.fail(); err != nil {
		return nil, err
	}
	return b.Fake.ListLists(ctx, boardID)
}

func (b *flakyBoard) CreateCard(ctx context.Context, req CardRequest) (*Card, error) {
	if err := b.fail(); err != nil {
		return nil, err
	}
	return b.Fake.CreateCard(ctx, req)
}

func newFlaky(failures int, err error) *flakyBoard {
	return &flakyBoard{
		Fake:     NewFake("b", &List{ID: "l1", Name: "To Do"}),
		failures: failures,
		err:      err,
	}
}

func fastRetry(inner Board, retries uint64) *Retrying {
	return NewRetrying(inner, RetryConfig{MaxRetries: retries, InitialInterval: time.Millisecond})
}

func TestRetrying_RetriesUnavailable(t *testing.T) {
	inner := newFlaky(2, fmt.Errorf("%w: 503", types.ErrRemoteUnavailable))
	r := fastRetry(inner, 3)

	lists, err := r.ListLists(context.Background(), "b")
	if err != nil {
		t.Fatalf("ListLists() failed: %v", err)
	}
	if len(lists) != 1 {
		t.Errorf("got %d lists", len(lists))
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetrying_GivesUp(t *testing.T) {
	inner := newFlaky(10, fmt.Errorf("%w: 503", types.ErrRemoteUnavailable))
	r := fastRetry(inner, 2)

	_, err := r.ListLists(context.Background(), "b")
	if !errors.Is(err, types.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetrying_DoesNotRetryRejected(t *testing.T) {
	inner := newFlaky(1, fmt.Errorf("%w: 400", types.ErrRemoteRejected))
	r := fastRetry(inner, 3)

	_, err := r.ListLists(context.Background(), "b")
	if !errors.Is(err, types.ErrRemoteRejected) {
		t.Errorf("error = %v, want ErrRemoteRejected", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetrying_CreateCardNotRetried(t *testing.T) {
	inner := newFlaky(1, fmt.Errorf("%w: timeout", types.ErrRemoteUnavailable))
	r := fastRetry(inner, 3)

	_, err := r.CreateCard(context.Background(), CardRequest{ListID: "l1", Name: "x"})
	if !errors.Is(err, types.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetrying_CanceledContext(t *testing.T) {
	inner := newFlaky(10, fmt.Errorf("%w: 503", types.ErrRemoteUnavailable))
	r := NewRetrying(inner, RetryConfig{MaxRetries: 5, InitialInterval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.ListLists(ctx, "b")
	if !errors.Is(err, types.ErrRemoteUnavailable) {
		t.Errorf("error = %v, want ErrRemoteUnavailable", err)
	}
}
