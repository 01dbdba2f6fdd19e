// Package types defines the records kept in the local pending store and the
// error kinds shared across tasklist packages.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Status is the upload state of a pending task.
type Status string

const (
	// StatusPending marks a task that has never been attempted.
	StatusPending Status = "pending"
	// StatusUploading marks a task whose card creation is in flight.
	StatusUploading Status = "uploading"
	// StatusUploaded marks a task whose card exists on the board. The row is
	// deleted right after reaching this state.
	StatusUploaded Status = "uploaded"
	// StatusFailed marks a task whose last upload attempt failed.
	StatusFailed Status = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUploading, StatusUploaded, StatusFailed:
		return true
	}
	return false
}

// Editable reports whether a task in status s may be edited or gain
// sub-tasks. Only these statuses take part in future uploads.
func (s Status) Editable() bool {
	return s == StatusPending || s == StatusFailed
}

// CanTransition reports whether a task may move from s to next.
//
// Allowed transitions:
//
//	pending   -> uploading
//	failed    -> uploading
//	uploading -> uploaded
//	uploading -> failed
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending, StatusFailed:
		return next == StatusUploading
	case StatusUploading:
		return next == StatusUploaded || next == StatusFailed
	}
	return false
}

// Priority bounds.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// DateLayout is the storage and display layout for due dates.
const DateLayout = "2006-01-02"

// Task is a task held in the local pending store.
type Task struct {
	ID          int64      `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	DueDate     *time.Time `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Priority    int        `json:"priority" yaml:"priority"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	ListName    string     `json:"list_name,omitempty" yaml:"list_name,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"updated_at"`

	// SyncKey is written into the card description on upload so a card
	// created before a crash can be matched back to its row.
	SyncKey string `json:"sync_key" yaml:"sync_key"`
	// CardID is set once the task reaches StatusUploaded.
	CardID string `json:"card_id,omitempty" yaml:"card_id,omitempty"`
}

// DueString returns the due date as YYYY-MM-DD, or "" when unset.
func (t *Task) DueString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

// SubTask is a local annotation attached to a pending task.
type SubTask struct {
	ID          int64     `json:"id" yaml:"id"`
	ParentID    int64     `json:"parent_id" yaml:"parent_id"`
	Description string    `json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// NewTask carries the fields supplied when a task is created locally.
type NewTask struct {
	Description string
	DueDate     *time.Time
	Priority    int
	Category    string
	ListName    string
	// SyncKey, when set, is used instead of a generated key. Smart add sets
	// it to the key already sent to the board with a failed create.
	SyncKey string
}

// Validate checks the user supplied fields of a new task.
func (n *NewTask) Validate() error {
	if strings.TrimSpace(n.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	return ValidatePriority(n.Priority)
}

// TaskUpdate lists the mutable fields of a task. Nil fields are left alone.
type TaskUpdate struct {
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	Priority    *int
	Category    *string
	ListName    *string
}

// Empty reports whether the update changes nothing.
func (u *TaskUpdate) Empty() bool {
	return u.Description == nil && u.DueDate == nil && !u.ClearDue &&
		u.Priority == nil && u.Category == nil && u.ListName == nil
}

// Validate checks the fields set on the update.
func (u *TaskUpdate) Validate() error {
	if u.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidInput)
	}
	if u.Priority != nil {
		if err := ValidatePriority(*u.Priority); err != nil {
			return err
		}
	}
	if u.DueDate != nil && u.ClearDue {
		return fmt.Errorf("%w: cannot set and clear the due date at once", ErrInvalidInput)
	}
	return nil
}

// ValidatePriority checks that p is 1 (low), 2 (medium) or 3 (high).
func ValidatePriority(p int) error {
	if p < PriorityLow || p > PriorityHigh {
		return fmt.Errorf("%w: priority must be between 1 and 3 (got %d)", ErrInvalidInput, p)
	}
	return nil
}
