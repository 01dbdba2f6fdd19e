package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tasklist-cli/tasklist/internal/types"
)

// Fake is an in-memory Board for tests. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	boardID string
	lists   []*List
	cards   map[string][]*Card
	actions []*Action
	seq     int

	offline bool
	// CreateErr, when set, is consulted before each CreateCard; a non-nil
	// result fails the call without creating a card.
	CreateErr func(req CardRequest) error
	// LoseResponse, when set and returning true, creates the card but
	// reports types.ErrRemoteUnavailable, as if the response was lost.
	LoseResponse func(req CardRequest) bool
	// ListCardsErr fails ListCards with the given error when non-nil.
	ListCardsErr error

	// Now supplies creation times for new cards.
	Now func() time.Time

	calls   []string
	created []CardRequest
}

// NewFake returns a fake board with the given lists, in board order.
func NewFake(boardID string, lists ...*List) *Fake {
	f := &Fake{
		boardID: boardID,
		cards:   make(map[string][]*Card),
		Now:     time.Now,
	}
	for _, l := range lists {
		f.lists = append(f.lists, &List{ID: l.ID, Name: l.Name})
	}
	return f
}

// SetOffline makes every call fail with types.ErrRemoteUnavailable.
func (f *Fake) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

// AddCard places an existing card at the end of listID and returns it.
func (f *Fake) AddCard(listID, name, desc string) *Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCardLocked(listID, name, desc, nil)
}

// AddAction appends an entry to the activity log.
func (f *Fake) AddAction(a *Action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
}

// Calls returns the names of the methods called so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Created returns every CardRequest that produced a card.
func (f *Fake) Created() []CardRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CardRequest(nil), f.created...)
}

// Cards returns the open cards of listID.
func (f *Fake) Cards(listID string) []*Card {
	f.mu.Lock()
	defer f.mu.Unlock()
	return openCards(f.cards[listID])
}

func (f *Fake) enter(method string) error {
	f.calls = append(f.calls, method)
	if f.offline {
		return fmt.Errorf("%w: fake board offline", types.ErrRemoteUnavailable)
	}
	return nil
}

func (f *Fake) addCardLocked(listID, name, desc string, due *time.Time) *Card {
	f.seq++
	now := f.Now()
	card := &Card{
		ID:        fmt.Sprintf("%08x%016x", now.Unix(), f.seq),
		Name:      name,
		Desc:      desc,
		ListID:    listID,
		Due:       due,
		CreatedAt: now.Truncate(time.Second).UTC(),
	}
	f.cards[listID] = append(f.cards[listID], card)
	return card
}

func (f *Fake) hasList(id string) bool {
	for _, l := range f.lists {
		if l.ID == id {
			return true
		}
	}
	return false
}

// CreateCard implements Board.
func (f *Fake) CreateCard(ctx context.Context, req CardRequest) (*Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("CreateCard"); err != nil {
		return nil, err
	}
	if f.CreateErr != nil {
		if err := f.CreateErr(req); err != nil {
			return nil, err
		}
	}
	if !f.hasList(req.ListID) {
		return nil, fmt.Errorf("%w: invalid value for idList", types.ErrRemoteRejected)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: invalid value for name", types.ErrRemoteRejected)
	}

	card := f.addCardLocked(req.ListID, req.Name, req.Desc, req.Due)
	card.Labels = append([]string(nil), req.Labels...)
	f.created = append(f.created, req)
	f.actions = append(f.actions, &Action{Type: ActionCreateCard, Date: card.CreatedAt, CardID: card.ID})

	if f.LoseResponse != nil && f.LoseResponse(req) {
		return nil, fmt.Errorf("%w: response lost", types.ErrRemoteUnavailable)
	}
	cp := *card
	return &cp, nil
}

// ListCards implements Board.
func (f *Fake) ListCards(ctx context.Context, listID string) ([]*Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ListCards"); err != nil {
		return nil, err
	}
	if f.ListCardsErr != nil {
		return nil, f.ListCardsErr
	}
	if !f.hasList(listID) {
		return nil, fmt.Errorf("%w: invalid id", types.ErrRemoteRejected)
	}
	return openCards(f.cards[listID]), nil
}

// BoardCards implements Board.
func (f *Fake) BoardCards(ctx context.Context) ([]*Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("BoardCards"); err != nil {
		return nil, err
	}
	var out []*Card
	for _, l := range f.lists {
		out = append(out, openCards(f.cards[l.ID])...)
	}
	return out, nil
}

// AllCards implements Board.
func (f *Fake) AllCards(ctx context.Context) ([]*Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("AllCards"); err != nil {
		return nil, err
	}
	var out []*Card
	for _, l := range f.lists {
		for _, c := range f.cards[l.ID] {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListLists implements Board.
func (f *Fake) ListLists(ctx context.Context, boardID string) ([]*List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ListLists"); err != nil {
		return nil, err
	}
	if boardID != "" && boardID != f.boardID {
		return nil, fmt.Errorf("%w: invalid id", types.ErrRemoteRejected)
	}
	out := make([]*List, len(f.lists))
	for i, l := range f.lists {
		cp := *l
		out[i] = &cp
	}
	return out, nil
}

// ArchiveCard implements Board.
func (f *Fake) ArchiveCard(ctx context.Context, cardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ArchiveCard"); err != nil {
		return err
	}
	for _, cards := range f.cards {
		for _, c := range cards {
			if c.ID == cardID {
				c.Closed = true
				return nil
			}
		}
	}
	return fmt.Errorf("%w: card not found", types.ErrRemoteRejected)
}

// ResolveListID implements Board.
func (f *Fake) ResolveListID(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("ResolveListID"); err != nil {
		return "", err
	}
	return findList(f.lists, name)
}

// Actions implements Board.
func (f *Fake) Actions(ctx context.Context, limit int) ([]*Action, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.enter("Actions"); err != nil {
		return nil, err
	}
	var out []*Action
	for i := len(f.actions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *f.actions[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Ping implements Board.
func (f *Fake) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enter("Ping")
}

func openCards(cards []*Card) []*Card {
	var out []*Card
	for _, c := range cards {
		if !c.Closed {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}
