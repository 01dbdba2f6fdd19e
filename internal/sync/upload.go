package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/db"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// lookup caches list ids and the board's cards for the duration of one
// drain.
type lookup struct {
	s      *syncer
	lists  map[string]string
	cards  []*board.Card
	loaded bool
}

func (s *syncer) newLookup() *lookup {
	return &lookup{
		s:     s,
		lists: make(map[string]string),
	}
}

func (l *lookup) resolve(ctx context.Context, name string) (string, error) {
	if id, ok := l.lists[name]; ok {
		return id, nil
	}
	id, err := l.s.resolveList(ctx, name)
	if err != nil {
		return "", err
	}
	l.lists[name] = id
	return id, nil
}

// find returns the card carrying syncKey, or nil. The whole board is
// searched, archived cards included, so a card that was moved or marked
// done since its create response was lost still counts.
func (l *lookup) find(ctx context.Context, syncKey string) (*board.Card, error) {
	if syncKey == "" {
		return nil, nil
	}
	if !l.loaded {
		cards, err := l.s.board.AllCards(ctx)
		if err != nil {
			return nil, err
		}
		l.cards = cards
		l.loaded = true
	}
	for _, c := range l.cards {
		if board.SyncKeyOf(c.Desc) == syncKey {
			return c, nil
		}
	}
	return nil, nil
}

func (l *lookup) add(card *board.Card) {
	if l.loaded {
		l.cards = append(l.cards, card)
	}
}

// permanent reports whether a remote error is specific to one task, so the
// drain can move on to the next.
func permanent(err error) bool {
	return errors.Is(err, types.ErrRemoteRejected) || errors.Is(err, types.ErrNotFound)
}

// Upload implements Syncer.Upload.
func (s *syncer) Upload(ctx context.Context) (*DrainResult, error) {
	if s.board == nil {
		return nil, errNoBoard
	}
	result := &DrainResult{}
	lk := s.newLookup()

	// Bookkeeping after a remote call must land even if ctx was canceled
	// while the call was in flight.
	bg := context.WithoutCancel(ctx)

	recovered, err := s.recover(ctx, lk)
	result.Succeeded = append(result.Succeeded, recovered...)
	if err != nil {
		if errors.Is(err, types.ErrStorage) {
			return result, err
		}
		ids, qerr := s.queuedIDs(bg)
		if qerr != nil {
			return result, qerr
		}
		result.Remaining = ids
		result.Aborted = err
		s.logger.Printf("Upload aborted during recovery: %v", err)
		return result, nil
	}

	tasks, err := s.db.ListTasksContext(ctx, db.ListTasksFilter{
		Statuses: []types.Status{types.StatusPending, types.StatusFailed},
	})
	if err != nil {
		return result, err
	}

	for i, task := range tasks {
		if err := s.db.MarkStatusContext(bg, task.ID, types.StatusUploading); err != nil {
			return result, err
		}

		cardID, err := s.push(ctx, lk, task)
		if err == nil {
			if err := s.finish(bg, task.ID, cardID); err != nil {
				return result, err
			}
			result.Succeeded = append(result.Succeeded, Uploaded{TaskID: task.ID, Description: task.Description, CardID: cardID})
			s.logger.Printf("Uploaded task %d as card %s", task.ID, cardID)
			continue
		}

		if ferr := s.db.MarkStatusContext(bg, task.ID, types.StatusFailed); ferr != nil {
			return result, ferr
		}

		if permanent(err) {
			result.Rejected = append(result.Rejected, Rejection{TaskID: task.ID, Description: task.Description, Err: err})
			s.logger.Printf("Board rejected task %d: %v", task.ID, err)
			continue
		}

		result.Aborted = err
		for _, rest := range tasks[i:] {
			result.Remaining = append(result.Remaining, rest.ID)
		}
		s.logger.Printf("Upload aborted at task %d, %d left: %v", task.ID, len(result.Remaining), err)
		break
	}

	return result, nil
}

// push creates the card for task unless one with its sync key already exists.
func (s *syncer) push(ctx context.Context, lk *lookup, task *types.Task) (string, error) {
	if s.board == nil {
		return "", errNoBoard
	}
	listID, err := lk.resolve(ctx, task.ListName)
	if err != nil {
		return "", err
	}

	existing, err := lk.find(ctx, task.SyncKey)
	if err != nil {
		return "", err
	}
	if existing != nil {
		s.logger.Printf("Task %d already on board as card %s", task.ID, existing.ID)
		return existing.ID, nil
	}

	card, err := s.board.CreateCard(ctx, cardRequest(listID, task.Description, task.DueDate, board.CardMeta{
		Priority: task.Priority,
		Category: task.Category,
		SyncKey:  task.SyncKey,
	}))
	if err != nil {
		return "", fmt.Errorf("failed to upload task %d: %w", task.ID, err)
	}
	lk.add(card)
	return card.ID, nil
}

// finish records the card and removes the task with its sub-tasks.
func (s *syncer) finish(ctx context.Context, id int64, cardID string) error {
	if err := s.db.MarkUploadedContext(ctx, id, cardID); err != nil {
		return err
	}
	return s.db.CompleteUploadContext(ctx, id)
}

// Recover implements Syncer.Recover.
func (s *syncer) Recover(ctx context.Context) ([]Uploaded, error) {
	if s.board == nil {
		return nil, errNoBoard
	}
	return s.recover(ctx, s.newLookup())
}

// recover settles rows a previous run left mid-upload.
//
// uploaded rows already have their card and are deleted. uploading rows are
// looked up on the board by sync key: a match completes the upload,
// no match requeues the row as failed. An unreachable board stops recovery
// with the remaining rows untouched.
func (s *syncer) recover(ctx context.Context, lk *lookup) ([]Uploaded, error) {
	tasks, err := s.db.ListTasksContext(ctx, db.ListTasksFilter{
		Statuses: []types.Status{types.StatusUploading, types.StatusUploaded},
	})
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	var recovered []Uploaded
	for _, task := range tasks {
		if task.Status == types.StatusUploaded {
			if err := s.db.CompleteUploadContext(bg, task.ID); err != nil {
				return recovered, err
			}
			recovered = append(recovered, Uploaded{TaskID: task.ID, Description: task.Description, CardID: task.CardID})
			s.logger.Printf("Recovered uploaded task %d (card %s)", task.ID, task.CardID)
			continue
		}

		_, err := lk.resolve(ctx, task.ListName)
		var card *board.Card
		if err == nil {
			card, err = lk.find(ctx, task.SyncKey)
		}
		if err != nil && !permanent(err) {
			return recovered, fmt.Errorf("failed to recover task %d: %w", task.ID, err)
		}

		if card != nil {
			if err := s.finish(bg, task.ID, card.ID); err != nil {
				return recovered, err
			}
			recovered = append(recovered, Uploaded{TaskID: task.ID, Description: task.Description, CardID: card.ID})
			s.logger.Printf("Recovered task %d: found card %s", task.ID, card.ID)
			continue
		}

		if err := s.db.MarkStatusContext(bg, task.ID, types.StatusFailed); err != nil {
			return recovered, err
		}
		s.logger.Printf("Requeued interrupted task %d", task.ID)
	}
	return recovered, nil
}

func (s *syncer) queuedIDs(ctx context.Context) ([]int64, error) {
	tasks, err := s.db.ListTasksContext(ctx, db.ListTasksFilter{
		Statuses: []types.Status{types.StatusPending, types.StatusFailed, types.StatusUploading},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids, nil
}
