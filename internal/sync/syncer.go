package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/db"
	"github.com/tasklist-cli/tasklist/internal/probe"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// Options configures a Syncer.
type Options struct {
	// DefaultListID receives cards that name no list.
	DefaultListID string
	// BoardID is searched by Search.
	BoardID string
	// DefaultPriority applies when AddRequest.Priority is 0 (default 1).
	DefaultPriority int
	// DefaultCategory applies when AddRequest.Category is empty
	// (default "General").
	DefaultCategory string
	// Logger receives progress messages. Nil logs to stderr.
	Logger *log.Logger
}

var errNoBoard = fmt.Errorf("%w: no board", types.ErrNotConfigured)

// syncer implements the Syncer interface.
type syncer struct {
	db     *db.DB
	board  board.Board
	probe  probe.Prober
	opts   Options
	logger *log.Logger
}

// New creates a Syncer over an initialized store and a board. With a nil
// board, Add can only queue locally and every board operation fails with
// types.ErrNotConfigured.
//
// Example:
//
//	database, err := db.Open(path)
//	if err != nil {
//	    return err
//	}
//	if err := database.InitSchema(); err != nil {
//	    return err
//	}
//	syncer := sync.New(database, remote, probe.New(remote, 0), sync.Options{DefaultListID: listID})
func New(database *db.DB, b board.Board, p probe.Prober, opts Options) Syncer {
	if opts.DefaultPriority == 0 {
		opts.DefaultPriority = types.PriorityLow
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = "General"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &syncer{
		db:     database,
		board:  b,
		probe:  p,
		opts:   opts,
		logger: logger,
	}
}

// Add implements Syncer.Add.
func (s *syncer) Add(ctx context.Context, req AddRequest) (*AddResult, error) {
	task := types.NewTask{
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Category:    req.Category,
		ListName:    req.ListName,
	}
	if task.Priority == 0 {
		task.Priority = s.opts.DefaultPriority
	}
	if task.Category == "" {
		task.Category = s.opts.DefaultCategory
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.Description = strings.TrimSpace(task.Description)

	res := &AddResult{}
	if req.Offline {
		return s.addLocal(ctx, task, res, FallbackForced, nil)
	}

	if req.DrainFirst {
		drain, err := s.Upload(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to upload pending tasks: %w", err)
		}
		res.Drain = drain
	}

	if !s.probe.IsOnline(ctx) {
		return s.addLocal(ctx, task, res, FallbackProbe, nil)
	}

	listID, err := s.resolveList(ctx, task.ListName)
	if err != nil {
		if errors.Is(err, types.ErrRemoteUnavailable) {
			return s.addLocal(ctx, task, res, FallbackUnavailable, err)
		}
		return nil, err
	}

	// The key travels with the card so a lost response can be matched
	// against the queued row on the next upload.
	task.SyncKey = uuid.NewString()
	card, err := s.board.CreateCard(ctx, cardRequest(listID, task.Description, task.DueDate, board.CardMeta{
		Priority: task.Priority,
		Category: task.Category,
		SyncKey:  task.SyncKey,
	}))
	switch {
	case err == nil:
		s.logger.Printf("Created card %s: %s", card.ID, card.Name)
		res.Origin = OriginRemote
		res.Card = card
		return res, nil
	case errors.Is(err, types.ErrRemoteUnavailable):
		return s.addLocal(ctx, task, res, FallbackUnavailable, err)
	default:
		return nil, err
	}
}

func (s *syncer) addLocal(ctx context.Context, task types.NewTask, res *AddResult, why Fallback, cause error) (*AddResult, error) {
	// An interrupted remote call must still leave the task queued.
	ctx = context.WithoutCancel(ctx)

	id, err := s.db.InsertTaskContext(ctx, task)
	if err != nil {
		return nil, err
	}
	stored, err := s.db.GetTaskContext(ctx, id)
	if err != nil {
		return nil, err
	}

	if cause != nil {
		s.logger.Printf("Queued task %d locally (%s): %v", id, why, cause)
	} else {
		s.logger.Printf("Queued task %d locally (%s)", id, why)
	}
	res.Origin = OriginLocal
	res.Task = stored
	res.Fallback = why
	res.Cause = cause
	return res, nil
}

// AddSubTask implements Syncer.AddSubTask.
func (s *syncer) AddSubTask(ctx context.Context, parentID int64, description string) (int64, error) {
	id, err := s.db.InsertSubTaskContext(ctx, parentID, description)
	if err != nil {
		return 0, err
	}
	s.logger.Printf("Added sub-task %d to task %d", id, parentID)
	return id, nil
}

// Pending implements Syncer.Pending.
func (s *syncer) Pending(ctx context.Context) (int, error) {
	return s.db.CountTasksContext(ctx, types.StatusPending, types.StatusFailed)
}

// resolveList maps a list name to an id; the empty name means the default
// list.
func (s *syncer) resolveList(ctx context.Context, name string) (string, error) {
	if s.board == nil {
		return "", errNoBoard
	}
	if name == "" {
		if s.opts.DefaultListID == "" {
			return "", fmt.Errorf("%w: no default list id", types.ErrNotConfigured)
		}
		return s.opts.DefaultListID, nil
	}
	return s.board.ResolveListID(ctx, name)
}

func cardRequest(listID, name string, due *time.Time, meta board.CardMeta) board.CardRequest {
	return board.CardRequest{
		ListID: listID,
		Name:   name,
		Desc:   board.FormatDesc(meta),
		Due:    due,
	}
}
