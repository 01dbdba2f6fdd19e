package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/types"
)

func invalidScope(s string) error {
	return fmt.Errorf("%w: unknown search scope %q (want local, remote or both)", types.ErrInvalidInput, s)
}

// Search implements Syncer.Search.
func (s *syncer) Search(ctx context.Context, query string, scope Scope) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is empty", types.ErrInvalidInput)
	}
	if scope == "" {
		scope = ScopeBoth
	}
	if _, err := ParseScope(string(scope)); err != nil {
		return nil, err
	}

	var results []SearchResult
	if scope != ScopeRemote {
		tasks, err := s.db.SearchTasksContext(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			results = append(results, SearchResult{Origin: OriginLocal, Task: t})
		}
	}

	if scope != ScopeLocal {
		remote, err := s.searchBoard(ctx, query)
		if err != nil {
			return results, fmt.Errorf("failed to search board: %w", err)
		}
		results = append(results, remote...)
	}
	return results, nil
}

// searchBoard walks the board list by list so every match carries its list
// name and position.
func (s *syncer) searchBoard(ctx context.Context, query string) ([]SearchResult, error) {
	if s.board == nil {
		return nil, errNoBoard
	}
	lists, err := s.board.ListLists(ctx, s.opts.BoardID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var results []SearchResult
	for _, list := range lists {
		cards, err := s.board.ListCards(ctx, list.ID)
		if err != nil {
			return nil, err
		}
		for i, card := range cards {
			if !cardMatches(card, needle) {
				continue
			}
			results = append(results, SearchResult{
				Origin:     OriginRemote,
				Card:       card,
				ListName:   list.Name,
				CardNumber: i + 1,
			})
		}
	}
	return results, nil
}

func cardMatches(card *board.Card, needle string) bool {
	return strings.Contains(strings.ToLower(card.Name), needle) ||
		strings.Contains(strings.ToLower(board.DescBody(card.Desc)), needle)
}
