package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tasklist-cli/tasklist/internal/types"
)

const (
	trelloBaseURL        = "https://api.trello.com/1"
	trelloDefaultTimeout = 10 * time.Second
	// trelloMaxActions is the largest page the actions endpoint serves.
	trelloMaxActions = 1000
	// maxErrorBody bounds how much of an error response ends up in messages.
	maxErrorBody = 512
)

// TrelloConfig configures the Trello adapter.
type TrelloConfig struct {
	APIKey  string
	Token   string
	BoardID string
	// Timeout bounds every request (default 10s).
	Timeout time.Duration
	// BaseURL overrides the API root, for tests.
	BaseURL string
	// Client overrides the HTTP client.
	Client *http.Client
}

// Trello talks to the Trello REST API.
type Trello struct {
	key     string
	token   string
	boardID string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewTrello creates a Trello adapter.
func NewTrello(cfg TrelloConfig) *Trello {
	t := &Trello{
		key:     cfg.APIKey,
		token:   cfg.Token,
		boardID: cfg.BoardID,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  cfg.Client,
	}
	if t.baseURL == "" {
		t.baseURL = trelloBaseURL
	}
	if t.timeout <= 0 {
		t.timeout = trelloDefaultTimeout
	}
	if t.client == nil {
		t.client = &http.Client{}
	}
	return t
}

type trelloCard struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Desc   string  `json:"desc"`
	IDList string  `json:"idList"`
	Due    *string `json:"due"`
	Closed bool    `json:"closed"`
	URL    string  `json:"url"`
	Labels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"labels"`
}

type trelloList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloAction struct {
	Type string    `json:"type"`
	Date time.Time `json:"date"`
	Data struct {
		Card struct {
			ID string `json:"id"`
		} `json:"card"`
		ListAfter *struct {
			Name string `json:"name"`
		} `json:"listAfter"`
	} `json:"data"`
}

// CreateCard creates a card with the request fields.
func (t *Trello) CreateCard(ctx context.Context, req CardRequest) (*Card, error) {
	form := url.Values{}
	form.Set("idList", req.ListID)
	form.Set("name", req.Name)
	form.Set("desc", req.Desc)
	if req.Due != nil {
		form.Set("due", req.Due.Format(types.DateLayout))
	}
	if len(req.Labels) > 0 {
		form.Set("idLabels", strings.Join(req.Labels, ","))
	}

	var card trelloCard
	if err := t.do(ctx, http.MethodPost, "/cards", nil, form, &card); err != nil {
		return nil, fmt.Errorf("failed to create card %q: %w", req.Name, err)
	}
	return card.toCard(), nil
}

// ListCards returns the open cards of listID.
func (t *Trello) ListCards(ctx context.Context, listID string) ([]*Card, error) {
	var cards []trelloCard
	if err := t.do(ctx, http.MethodGet, "/lists/"+url.PathEscape(listID)+"/cards", nil, nil, &cards); err != nil {
		return nil, fmt.Errorf("failed to list cards of list %s: %w", listID, err)
	}
	return toCards(cards), nil
}

// BoardCards returns the open cards of the configured board.
func (t *Trello) BoardCards(ctx context.Context) ([]*Card, error) {
	var cards []trelloCard
	if err := t.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(t.boardID)+"/cards", nil, nil, &cards); err != nil {
		return nil, fmt.Errorf("failed to list board cards: %w", err)
	}
	return toCards(cards), nil
}

// AllCards returns the open and archived cards of the configured board.
func (t *Trello) AllCards(ctx context.Context) ([]*Card, error) {
	var cards []trelloCard
	if err := t.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(t.boardID)+"/cards/all", nil, nil, &cards); err != nil {
		return nil, fmt.Errorf("failed to list all board cards: %w", err)
	}
	return toCards(cards), nil
}

// ListLists returns the open lists of boardID. An empty boardID means the
// configured board.
func (t *Trello) ListLists(ctx context.Context, boardID string) ([]*List, error) {
	if boardID == "" {
		boardID = t.boardID
	}
	var lists []trelloList
	if err := t.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(boardID)+"/lists", nil, nil, &lists); err != nil {
		return nil, fmt.Errorf("failed to list lists of board %s: %w", boardID, err)
	}

	out := make([]*List, len(lists))
	for i, l := range lists {
		out[i] = &List{ID: l.ID, Name: l.Name}
	}
	return out, nil
}

// ArchiveCard closes cardID.
func (t *Trello) ArchiveCard(ctx context.Context, cardID string) error {
	q := url.Values{}
	q.Set("closed", "true")
	if err := t.do(ctx, http.MethodPut, "/cards/"+url.PathEscape(cardID), q, nil, nil); err != nil {
		return fmt.Errorf("failed to archive card %s: %w", cardID, err)
	}
	return nil
}

// ResolveListID finds the id of the first list on the configured board named
// exactly name.
func (t *Trello) ResolveListID(ctx context.Context, name string) (string, error) {
	lists, err := t.ListLists(ctx, t.boardID)
	if err != nil {
		return "", err
	}
	return findList(lists, name)
}

// Actions returns up to limit recent createCard and updateCard actions.
func (t *Trello) Actions(ctx context.Context, limit int) ([]*Action, error) {
	if limit <= 0 || limit > trelloMaxActions {
		limit = trelloMaxActions
	}
	q := url.Values{}
	q.Set("filter", ActionCreateCard+","+ActionUpdateCard)
	q.Set("limit", strconv.Itoa(limit))

	var actions []trelloAction
	if err := t.do(ctx, http.MethodGet, "/boards/"+url.PathEscape(t.boardID)+"/actions", q, nil, &actions); err != nil {
		return nil, fmt.Errorf("failed to list board actions: %w", err)
	}

	out := make([]*Action, len(actions))
	for i, a := range actions {
		out[i] = &Action{Type: a.Type, Date: a.Date, CardID: a.Data.Card.ID}
		if a.Data.ListAfter != nil {
			out[i].ListAfter = a.Data.ListAfter.Name
		}
	}
	return out, nil
}

// Ping fetches the token owner, which fails fast on bad credentials.
func (t *Trello) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("fields", "id")
	if err := t.do(ctx, http.MethodGet, "/members/me", q, nil, nil); err != nil {
		return fmt.Errorf("failed to reach board: %w", err)
	}
	return nil
}

// do sends one request and decodes a JSON response into out when out is
// non-nil. Errors are classified as types.ErrRemoteUnavailable or
// types.ErrRemoteRejected.
func (t *Trello) do(ctx context.Context, method, path string, query, form url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", t.key)
	query.Set("token", t.token)

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path+"?"+query.Encode(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		// url.Error carries the full URL, which includes the token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%w: %s %s: %v", types.ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", types.ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", types.ErrRemoteUnavailable, err)
	}
	return nil
}

// statusError maps a non-2xx response to an error kind. Credentials,
// timeouts, throttling and server failures are treated as the board being
// unavailable; other client errors are rejections of the request itself.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}

	kind := types.ErrRemoteRejected
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		kind = types.ErrRemoteUnavailable
	}
	if msg == "" {
		return fmt.Errorf("%w: Trello API error %d", kind, status)
	}
	return fmt.Errorf("%w: Trello API error %d: %s", kind, status, msg)
}

func findList(lists []*List, name string) (string, error) {
	for _, l := range lists {
		if l.Name == name {
			return l.ID, nil
		}
	}
	return "", fmt.Errorf("list %q: %w", name, types.ErrNotFound)
}

func toCards(in []trelloCard) []*Card {
	out := make([]*Card, len(in))
	for i := range in {
		out[i] = in[i].toCard()
	}
	return out
}

func (c *trelloCard) toCard() *Card {
	card := &Card{
		ID:        c.ID,
		Name:      c.Name,
		Desc:      c.Desc,
		ListID:    c.IDList,
		Closed:    c.Closed,
		URL:       c.URL,
		CreatedAt: CreatedAtFromID(c.ID),
	}
	if c.Due != nil && *c.Due != "" {
		if due, err := time.Parse(time.RFC3339Nano, *c.Due); err == nil {
			card.Due = &due
		}
	}
	for _, l := range c.Labels {
		name := l.Name
		if name == "" {
			name = l.ID
		}
		card.Labels = append(card.Labels, name)
	}
	return card
}

// CreatedAtFromID decodes the creation time embedded in a Trello object id:
// the first 8 hex digits are a Unix timestamp in seconds. Returns the zero
// time for ids that do not carry one.
func CreatedAtFromID(id string) time.Time {
	if len(id) < 8 {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(id[:8], 16, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
