// Package board defines the remote task board used as the system of record
// for uploaded tasks, plus its Trello adapter, a retrying decorator and an
// in-memory fake.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Board is the remote board as seen by the sync orchestrator and reports.
//
// Implementations classify failures with the sentinels in internal/types:
// types.ErrRemoteUnavailable for transport failures, timeouts, rejected
// credentials, throttling and server errors; types.ErrRemoteRejected for
// requests the board refused; types.ErrNotFound for unknown list names.
type Board interface {
	// CreateCard creates a card and returns it as stored by the board.
	CreateCard(ctx context.Context, req CardRequest) (*Card, error)

	// ListCards returns the open cards of a list in board order.
	ListCards(ctx context.Context, listID string) ([]*Card, error)

	// BoardCards returns every open card on the board.
	BoardCards(ctx context.Context) ([]*Card, error)

	// AllCards returns every card on the board, archived cards included.
	AllCards(ctx context.Context) ([]*Card, error)

	// ListLists returns the lists of a board in board order.
	ListLists(ctx context.Context, boardID string) ([]*List, error)

	// ArchiveCard closes a card. Archiving an archived card succeeds.
	ArchiveCard(ctx context.Context, cardID string) error

	// ResolveListID maps an exact, case-sensitive list name to its id.
	// The first list in board order wins when names repeat.
	ResolveListID(ctx context.Context, name string) (string, error)

	// Actions returns the most recent card creation and update actions,
	// newest first.
	Actions(ctx context.Context, limit int) ([]*Action, error)

	// Ping checks that the board is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
}

// CardRequest describes a card to create.
type CardRequest struct {
	ListID string
	Name   string
	Desc   string
	Due    *time.Time
	// Labels holds label ids to attach.
	Labels []string
}

// Card is a card on the remote board.
type Card struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Desc      string     `json:"desc,omitempty" yaml:"desc,omitempty"`
	ListID    string     `json:"list_id" yaml:"list_id"`
	Due       *time.Time `json:"due,omitempty" yaml:"due,omitempty"`
	Labels    []string   `json:"labels,omitempty" yaml:"labels,omitempty"`
	Closed    bool       `json:"closed,omitempty" yaml:"closed,omitempty"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	URL       string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// List is a column of cards on the board.
type List struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Action types reported by Actions.
const (
	ActionCreateCard = "createCard"
	ActionUpdateCard = "updateCard"
)

// Action is one entry of the board activity log.
type Action struct {
	Type   string
	Date   time.Time
	CardID string
	// ListAfter is the name of the list a card moved to, set only for
	// updates that moved a card.
	ListAfter string
}

// SyncKeyPrefix marks the line of a card description that carries the
// local sync key of the task it was uploaded from.
const SyncKeyPrefix = "tasklist-key: "

// CardMeta is the metadata written into a card description.
type CardMeta struct {
	Priority int
	Category string
	SyncKey  string
}

// FormatDesc renders meta as a card description:
//
//	Priority: 2
//	Category: Home
//	tasklist-key: 4b0c...
func FormatDesc(meta CardMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Priority: %d\nCategory: %s", meta.Priority, meta.Category)
	if meta.SyncKey != "" {
		b.WriteString("\n" + SyncKeyPrefix + meta.SyncKey)
	}
	return b.String()
}

// SyncKeyOf extracts the sync key from a card description, or "".
func SyncKeyOf(desc string) string {
	for _, line := range strings.Split(desc, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, SyncKeyPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, SyncKeyPrefix))
		}
	}
	return ""
}

// DescBody returns a card description without the metadata lines written by
// FormatDesc.
func DescBody(desc string) string {
	var keep []string
	for _, line := range strings.Split(desc, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "Priority: ") || strings.HasPrefix(t, "Category: ") || strings.HasPrefix(t, SyncKeyPrefix) {
			continue
		}
		keep = append(keep, line)
	}
	return strings.TrimSpace(strings.Join(keep, "\n"))
}
