package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/reports"
	"github.com/tasklist-cli/tasklist/internal/sync"
	"github.com/tasklist-cli/tasklist/internal/types"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

func newSearchCmd(a *app) *cobra.Command {
	var scopeName string

	cmd := &cobra.Command{
		Use:     "search <text>",
		GroupID: "board",
		Short:   "Search queued tasks and board cards",
		Long: `Search task descriptions, ignoring case. Queued tasks are listed first,
then matching cards with their list and card number.`,
		Args: args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			scope, err := sync.ParseScope(scopeName)
			if err != nil {
				return err
			}
			if a.offline() {
				switch scope {
				case sync.ScopeRemote:
					if err := a.requireOnline(cmd); err != nil {
						return err
					}
					return a.cfg.RequireBoard()
				case sync.ScopeBoth:
					scope = sync.ScopeLocal
					if !a.structured() {
						a.warnf("board not in use, searching queued tasks only\n")
					}
				}
			}

			s, err := a.openSyncer(ctx)
			if err != nil {
				return err
			}
			results, searchErr := s.Search(ctx, strings.Join(argv, " "), scope)
			if results == nil && searchErr != nil {
				return searchErr
			}

			if a.structured() {
				if results == nil {
					results = []sync.SearchResult{}
				}
				if err := a.encode(results); err != nil {
					return err
				}
			} else {
				a.printSearch(results)
			}
			return searchErr
		},
	}

	cmd.Flags().StringVar(&scopeName, "scope", "both", "where to search: local, remote or both")
	return cmd
}

func (a *app) printSearch(results []sync.SearchResult) {
	if len(results) == 0 {
		a.printf("No matches.\n")
		return
	}
	t := ui.NewTable("Where", "Ref", "Description", "Due")
	for _, r := range results {
		switch r.Origin {
		case sync.OriginLocal:
			t.Row(ui.RenderWarn("queued"), fmt.Sprintf("task %d", r.Task.ID), r.Task.Description, dash(r.Task.DueString()))
		default:
			due := ""
			if r.Card.Due != nil {
				due = r.Card.Due.Format(types.DateLayout)
			}
			t.Row(ui.RenderPass("board"), fmt.Sprintf("%s #%d", r.ListName, r.CardNumber), r.Card.Name, dash(due))
		}
	}
	t.Render(a.stdout)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// listCards is one board list with its open cards.
type listCards struct {
	List  *board.List   `json:"list" yaml:"list"`
	Cards []*board.Card `json:"cards" yaml:"cards"`
}

func newShowCmd(a *app) *cobra.Command {
	var (
		lists    bool
		all      bool
		listName string
	)

	cmd := &cobra.Command{
		Use:     "show",
		GroupID: "board",
		Short:   "Show cards on the board",
		Long: `Show the cards of the default list, a named list, or every list. Cards are
numbered from 1; 'tasklist done' takes these numbers.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			if lists && (all || listName != "") {
				return &usageError{err: fmt.Errorf("--lists cannot be combined with --all or --list-name")}
			}
			if all && listName != "" {
				return &usageError{err: fmt.Errorf("--all cannot be combined with --list-name")}
			}
			if err := a.requireOnline(cmd); err != nil {
				return err
			}
			b, err := a.openBoard()
			if err != nil {
				return err
			}

			boardLists, err := b.ListLists(ctx, a.cfg.Trello.BoardID)
			if err != nil {
				return err
			}

			if lists {
				if a.structured() {
					return a.encode(boardLists)
				}
				for i, l := range boardLists {
					a.printf("%d. %s\n", i+1, l.Name)
				}
				return nil
			}

			var selected []*board.List
			switch {
			case all:
				selected = boardLists
			default:
				l, err := a.pickList(ctx, b, boardLists, listName)
				if err != nil {
					return err
				}
				selected = []*board.List{l}
			}

			out := make([]listCards, 0, len(selected))
			for _, l := range selected {
				cards, err := b.ListCards(ctx, l.ID)
				if err != nil {
					return err
				}
				if cards == nil {
					cards = []*board.Card{}
				}
				out = append(out, listCards{List: l, Cards: cards})
			}

			if a.structured() {
				return a.encode(out)
			}
			for i, lc := range out {
				if i > 0 {
					a.printf("\n")
				}
				ui.RenderCards(a.stdout, lc.List.Name, lc.Cards)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&lists, "lists", false, "show list names only")
	f.BoolVar(&all, "all", false, "show every list")
	f.StringVarP(&listName, "list-name", "l", "", "show this list instead of the default")
	return cmd
}

// pickList returns the named list, or the configured default list.
func (a *app) pickList(ctx context.Context, b board.Board, lists []*board.List, name string) (*board.List, error) {
	id := a.cfg.Trello.ListID
	if name != "" {
		var err error
		if id, err = b.ResolveListID(ctx, name); err != nil {
			return nil, err
		}
	}
	for _, l := range lists {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, fmt.Errorf("list %s is not on board %s: %w", id, a.cfg.Trello.BoardID, types.ErrNotFound)
}

func newDoneCmd(a *app) *cobra.Command {
	var listName string

	cmd := &cobra.Command{
		Use:     "done <card-number>",
		GroupID: "board",
		Short:   "Archive a card by its number in 'tasklist show'",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			n, err := parseID(argv[0])
			if err != nil {
				return err
			}
			if err := a.requireOnline(cmd); err != nil {
				return err
			}
			b, err := a.openBoard()
			if err != nil {
				return err
			}

			listID := a.cfg.Trello.ListID
			if listName != "" {
				if listID, err = b.ResolveListID(ctx, listName); err != nil {
					return err
				}
			}
			cards, err := b.ListCards(ctx, listID)
			if err != nil {
				return err
			}
			if n > int64(len(cards)) {
				return fmt.Errorf("card %d: list has %d card(s): %w", n, len(cards), types.ErrNotFound)
			}

			card := cards[n-1]
			if err := b.ArchiveCard(ctx, card.ID); err != nil {
				return err
			}
			if a.structured() {
				return a.encode(card)
			}
			a.printf("%s Archived card %d: %s\n", ui.RenderPass("✓"), n, card.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&listName, "list-name", "l", "", "list the card is in (default list when omitted)")
	return cmd
}

func newReportsCmd(a *app) *cobra.Command {
	var (
		kinds    []string
		doneList string
		keywords int
	)

	cmd := &cobra.Command{
		Use:     "reports",
		GroupID: "board",
		Short:   "Chart board statistics",
		Long: `Print board reports:

  lists      cards per list
  keywords   most common words in card names
  sentiment  weekly mood of card names
  activity   cards created and finished per day

All reports are shown unless --report picks some.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			opts := reports.Options{
				BoardID:  a.cfg.Trello.BoardID,
				Keywords: keywords,
				DoneList: doneList,
				Location: time.Local,
			}
			for _, k := range kinds {
				opts.Kinds = append(opts.Kinds, reports.Kind(strings.ToLower(strings.TrimSpace(k))))
			}
			for _, k := range opts.Kinds {
				if !validKind(k) {
					return &usageError{err: fmt.Errorf("unknown report %q", k)}
				}
			}

			if err := a.requireOnline(cmd); err != nil {
				return err
			}
			b, err := a.openBoard()
			if err != nil {
				return err
			}
			r, err := reports.Collect(ctx, b, opts)
			if err != nil {
				return err
			}

			if a.structured() {
				return a.encode(r)
			}
			reports.Render(a.stdout, r, ui.Width(a.stdout))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&kinds, "report", "r", nil, "reports to show: lists, keywords, sentiment, activity")
	f.StringVar(&doneList, "done-list", "Done", "list whose incoming cards count as finished")
	f.IntVar(&keywords, "keywords", 10, "number of keywords to show")
	return cmd
}

func validKind(k reports.Kind) bool {
	for _, known := range reports.AllKinds {
		if k == known {
			return true
		}
	}
	return false
}
