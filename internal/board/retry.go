package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tasklist-cli/tasklist/internal/types"
)

// RetryConfig configures the Retrying decorator.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64
	// InitialInterval is the first backoff delay (default 500ms).
	InitialInterval time.Duration
	// MaxElapsed caps the total time spent retrying one call (default 30s).
	MaxElapsed time.Duration
	Logger     *log.Logger
}

// Retrying wraps a Board and retries idempotent calls that fail with
// types.ErrRemoteUnavailable using exponential backoff.
//
// CreateCard is never retried: a request that timed out may still have
// created the card. Ping is never retried so the probe stays bounded.
type Retrying struct {
	inner  Board
	cfg    RetryConfig
	logger *log.Logger
}

// NewRetrying wraps inner.
func NewRetrying(inner Board, cfg RetryConfig) *Retrying {
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Retrying{inner: inner, cfg: cfg, logger: logger}
}

func (r *Retrying) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxElapsedTime = r.cfg.MaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(b, r.cfg.MaxRetries), ctx)
}

// retry runs op until it succeeds, fails with a non-transient error, or the
// policy gives up.
func retry[T any](ctx context.Context, r *Retrying, name string, op func() (T, error)) (T, error) {
	attempt := 0
	v, err := backoff.RetryWithData(func() (T, error) {
		attempt++
		v, err := op()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, types.ErrRemoteUnavailable) {
			return v, backoff.Permanent(err)
		}
		r.logger.Printf("%s attempt %d failed: %v", name, attempt, err)
		return v, err
	}, r.policy(ctx))
	if err != nil && ctx.Err() != nil && !errors.Is(err, types.ErrRemoteUnavailable) {
		err = fmt.Errorf("%w: %s: %v", types.ErrRemoteUnavailable, name, err)
	}
	return v, err
}

// CreateCard passes through without retries.
func (r *Retrying) CreateCard(ctx context.Context, req CardRequest) (*Card, error) {
	return r.inner.CreateCard(ctx, req)
}

// ListCards retries transient failures.
func (r *Retrying) ListCards(ctx context.Context, listID string) ([]*Card, error) {
	return retry(ctx, r, "list cards", func() ([]*Card, error) {
		return r.inner.ListCards(ctx, listID)
	})
}

// BoardCards retries transient failures.
func (r *Retrying) BoardCards(ctx context.Context) ([]*Card, error) {
	return retry(ctx, r, "board cards", func() ([]*Card, error) {
		return r.inner.BoardCards(ctx)
	})
}

// AllCards retries transient failures.
func (r *Retrying) AllCards(ctx context.Context) ([]*Card, error) {
	return retry(ctx, r, "all cards", func() ([]*Card, error) {
		return r.inner.AllCards(ctx)
	})
}

// ListLists retries transient failures.
func (r *Retrying) ListLists(ctx context.Context, boardID string) ([]*List, error) {
	return retry(ctx, r, "list lists", func() ([]*List, error) {
		return r.inner.ListLists(ctx, boardID)
	})
}

// ArchiveCard retries transient failures. Archiving twice is harmless.
func (r *Retrying) ArchiveCard(ctx context.Context, cardID string) error {
	_, err := retry(ctx, r, "archive card", func() (struct{}, error) {
		return struct{}{}, r.inner.ArchiveCard(ctx, cardID)
	})
	return err
}

// ResolveListID retries transient failures.
func (r *Retrying) ResolveListID(ctx context.Context, name string) (string, error) {
	return retry(ctx, r, "resolve list", func() (string, error) {
		return r.inner.ResolveListID(ctx, name)
	})
}

// Actions retries transient failures.
func (r *Retrying) Actions(ctx context.Context, limit int) ([]*Action, error) {
	return retry(ctx, r, "actions", func() ([]*Action, error) {
		return r.inner.Actions(ctx, limit)
	})
}

// Ping passes through without retries.
func (r *Retrying) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}
