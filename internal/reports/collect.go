package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/tasklist-cli/tasklist/internal/board"
)

// maxActions is the activity history fetched for the activity report.
const maxActions = 1000

// Kind selects which reports to build.
type Kind string

const (
	KindLists     Kind = "lists"
	KindKeywords  Kind = "keywords"
	KindSentiment Kind = "sentiment"
	KindActivity  Kind = "activity"
)

// AllKinds lists every report in display order.
var AllKinds = []Kind{KindLists, KindKeywords, KindSentiment, KindActivity}

// Options configures Collect.
type Options struct {
	BoardID  string
	Kinds    []Kind
	Keywords int
	DoneList string
	Location *time.Location
}

// Report holds the reports that were requested.
type Report struct {
	Lists     []ListCount     `json:"lists,omitempty" yaml:"lists,omitempty"`
	Keywords  []Keyword       `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Sentiment []WeekSentiment `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Activity  []DayActivity   `json:"activity,omitempty" yaml:"activity,omitempty"`
	kinds     map[Kind]bool
}

// Has reports whether k was requested.
func (r *Report) Has(k Kind) bool {
	return r.kinds[k]
}

// Collect fetches the board data the requested reports need, once each.
func Collect(ctx context.Context, b board.Board, opts Options) (*Report, error) {
	if len(opts.Kinds) == 0 {
		opts.Kinds = AllKinds
	}
	if opts.DoneList == "" {
		opts.DoneList = "Done"
	}

	r := &Report{kinds: make(map[Kind]bool)}
	for _, k := range opts.Kinds {
		switch k {
		case KindLists, KindKeywords, KindSentiment, KindActivity:
			r.kinds[k] = true
		default:
			return nil, fmt.Errorf("unknown report %q", k)
		}
	}

	var cards []*board.Card
	if r.Has(KindLists) || r.Has(KindKeywords) || r.Has(KindSentiment) {
		var err error
		cards, err = b.BoardCards(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch cards: %w", err)
		}
	}

	if r.Has(KindLists) {
		lists, err := b.ListLists(ctx, opts.BoardID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch lists: %w", err)
		}
		r.Lists = CardsPerList(lists, cards)
	}
	if r.Has(KindKeywords) {
		r.Keywords = TopKeywords(cards, opts.Keywords)
	}
	if r.Has(KindSentiment) {
		r.Sentiment = WeeklySentiment(cards, opts.Location)
	}
	if r.Has(KindActivity) {
		actions, err := b.Actions(ctx, maxActions)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch board activity: %w", err)
		}
		r.Activity = Activity(actions, opts.DoneList)
	}
	return r, nil
}
