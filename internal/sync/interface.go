package sync

import (
	"context"
	"time"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// Syncer creates, uploads and searches tasks across the local pending store
// and the remote board.
type Syncer interface {
	// Add creates a task on the board, or queues it locally when the board
	// is unreachable or offline mode is requested.
	//
	// Returns types.ErrInvalidInput for bad fields, types.ErrNotFound when
	// ListName names no list on a reachable board, and
	// types.ErrRemoteRejected when the board refused the card. The board
	// being unavailable is never returned; the task is queued instead.
	Add(ctx context.Context, req AddRequest) (*AddResult, error)

	// AddSubTask attaches a local sub-task to a pending or failed task.
	AddSubTask(ctx context.Context, parentID int64, description string) (int64, error)

	// Upload drains pending and failed tasks into the board, oldest first.
	//
	// A partial drain is not an error: the result lists what was uploaded,
	// rejected and left behind. Only local storage failures are returned.
	Upload(ctx context.Context) (*DrainResult, error)

	// Recover finishes uploads interrupted by a crash. Upload calls it first.
	Recover(ctx context.Context) ([]Uploaded, error)

	// Search finds tasks whose description contains query, ignoring case.
	// Local results come first. When the remote half fails, the local
	// results are returned along with the error.
	Search(ctx context.Context, query string, scope Scope) ([]SearchResult, error)

	// Pending counts tasks waiting for upload (pending and failed).
	Pending(ctx context.Context) (int, error)
}

// Origin tells which store a task lives in.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// Fallback explains why Add stored a task locally.
type Fallback string

const (
	FallbackForced      Fallback = "offline mode"
	FallbackProbe       Fallback = "board unreachable"
	FallbackUnavailable Fallback = "board unavailable"
)

// AddRequest carries the fields of a new task. Zero Priority and empty
// Category take the configured defaults.
type AddRequest struct {
	Description string
	DueDate     *time.Time
	Priority    int
	Category    string
	// ListName targets a list by name instead of the default list.
	ListName string
	// Offline skips the board and stores the task locally.
	Offline bool
	// DrainFirst uploads queued tasks before adding this one, so the board
	// keeps creation order.
	DrainFirst bool
}

// AddResult is the outcome of Add: either a card or a local task.
type AddResult struct {
	Origin Origin
	// Card is set when Origin is OriginRemote.
	Card *board.Card
	// Task is set when Origin is OriginLocal.
	Task *types.Task
	// Fallback and Cause explain a local result.
	Fallback Fallback
	Cause    error
	// Drain is set when DrainFirst ran.
	Drain *DrainResult
}

// Uploaded is a task that now exists on the board.
type Uploaded struct {
	TaskID      int64  `json:"task_id" yaml:"task_id"`
	Description string `json:"description" yaml:"description"`
	CardID      string `json:"card_id" yaml:"card_id"`
}

// Rejection is a task the board refused.
type Rejection struct {
	TaskID      int64  `json:"task_id" yaml:"task_id"`
	Description string `json:"description" yaml:"description"`
	Err         error  `json:"-" yaml:"-"`
}

// DrainResult reports one Upload run.
type DrainResult struct {
	Succeeded []Uploaded  `json:"succeeded" yaml:"succeeded"`
	Rejected  []Rejection `json:"rejected,omitempty" yaml:"rejected,omitempty"`
	// Remaining holds ids left in the queue because the drain stopped.
	Remaining []int64 `json:"remaining" yaml:"remaining"`
	// Aborted is the error that stopped the drain, if any.
	Aborted error `json:"-" yaml:"-"`
}

// Complete reports whether every queued task was uploaded.
func (r *DrainResult) Complete() bool {
	return r.Aborted == nil && len(r.Remaining) == 0 && len(r.Rejected) == 0
}

// Scope selects the stores searched.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeRemote Scope = "remote"
	ScopeBoth   Scope = "both"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeLocal, ScopeRemote, ScopeBoth:
		return Scope(s), nil
	case "":
		return ScopeBoth, nil
	}
	return "", invalidScope(s)
}

// SearchResult is one match. Local results carry Task; remote results carry
// Card, the list name and the card's 1-based position in that list.
type SearchResult struct {
	Origin     Origin      `json:"origin" yaml:"origin"`
	Task       *types.Task `json:"task,omitempty" yaml:"task,omitempty"`
	Card       *board.Card `json:"card,omitempty" yaml:"card,omitempty"`
	ListName   string      `json:"list_name,omitempty" yaml:"list_name,omitempty"`
	CardNumber int         `json:"card_number,omitempty" yaml:"card_number,omitempty"`
}
