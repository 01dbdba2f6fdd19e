// Package probe answers "is the remote board reachable right now?" with a
// bounded wait.
package probe

import (
	"context"
	"time"

	"github.com/tasklist-cli/tasklist/internal/board"
)

// DefaultTimeout bounds a single reachability check.
const DefaultTimeout = 5 * time.Second

// Prober reports whether the remote board is reachable. It never fails;
// any error means offline.
type Prober interface {
	IsOnline(ctx context.Context) bool
}

// Probe checks reachability by pinging a board.
type Probe struct {
	board   board.Board
	timeout time.Duration
}

// New returns a probe that pings b, waiting at most timeout.
func New(b board.Board, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Probe{board: b, timeout: timeout}
}

// IsOnline pings the board and reports whether it answered in time.
func (p *Probe) IsOnline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.board.Ping(ctx) == nil
}

// Always is a fixed answer, used for forced offline mode and tests.
type Always bool

// IsOnline returns the fixed answer.
func (a Always) IsOnline(context.Context) bool {
	return bool(a)
}
