// Package reports derives summary views from remote board data: cards per
// list, frequent keywords, weekly sentiment and daily activity.
package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/tasklist-cli/tasklist/internal/board"
)

// DefaultKeywords is the number of keywords TopKeywords returns by default.
const DefaultKeywords = 10

// stopWords are common English words left out of keyword counts.
var stopWords = toSet(strings.Fields(`
	a about above after again against all am an and any are aren't as at be
	because been before being below between both but by can't cannot could
	couldn't d did didn't do does doesn't doing don't down during each few for
	from further had hadn't has hasn't have haven't having he he'd he'll he's
	her here here's hers herself him himself his how how's i i'd i'll i'm i've
	if in into is isn't it it's its itself let's ll m me more most mustn't my
	myself no nor not of off on once only or other ought our ours ourselves out
	over own re s same shan't she she'd she'll she's should shouldn't so some
	such t than that that's the their theirs them themselves then there there's
	these they they'd they'll they're they've this those through to too under
	until up ve very was wasn't we we'd we'll we're we've were weren't what
	what's when when's where where's which while who who's whom why why's with
	won't would wouldn't you you'd you'll you're you've your yours yourself
	yourselves`))

var (
	positiveWords = toSet([]string{"complete", "completed", "done", "finished", "good", "great", "success", "achieved"})
	negativeWords = toSet([]string{"bug", "error", "fail", "failed", "problem", "issue", "fix", "urgent"})
)

// sentimentThreshold separates neutral weeks from positive and negative ones.
const sentimentThreshold = 0.2

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ListCount is the number of open cards in one list.
type ListCount struct {
	List  string `json:"list" yaml:"list"`
	Count int    `json:"count" yaml:"count"`
}

// CardsPerList counts cards per list, in board order. Lists without cards
// are included with a zero count.
func CardsPerList(lists []*board.List, cards []*board.Card) []ListCount {
	counts := make(map[string]int, len(lists))
	for _, c := range cards {
		counts[c.ListID]++
	}
	out := make([]ListCount, len(lists))
	for i, l := range lists {
		out[i] = ListCount{List: l.Name, Count: counts[l.ID]}
	}
	return out
}

// Keyword is a word and the number of card names it appears in.
type Keyword struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}

// TopKeywords returns the n most common non-stop words across card names.
// Words are lower-cased and split on anything that is not a letter or
// digit. Ties keep first-seen order.
func TopKeywords(cards []*board.Card, n int) []Keyword {
	if n <= 0 {
		n = DefaultKeywords
	}

	counts := make(map[string]int)
	var order []string
	for _, c := range cards {
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
				return unicode.ToLower(r)
			}
			return ' '
		}, c.Name)

		for _, w := range strings.Fields(cleaned) {
			if _, stop := stopWords[w]; stop {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	out := make([]Keyword, len(order))
	for i, w := range order {
		out[i] = Keyword{Word: w, Count: counts[w]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Sentiment labels a week.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Neutral  Sentiment = "Neutral"
	Negative Sentiment = "Negative"
)

// WeekSentiment is the average sentiment of the cards created in one week.
type WeekSentiment struct {
	// Week is "YYYY-WW" with weeks starting on Sunday; days before the
	// first Sunday of the year fall in week 00.
	Week      string    `json:"week" yaml:"week"`
	Cards     int       `json:"cards" yaml:"cards"`
	Score     float64   `json:"score" yaml:"score"`
	Sentiment Sentiment `json:"sentiment" yaml:"sentiment"`
}

// WeeklySentiment scores each card name (+1 per positive word, -1 per
// negative word, each word counted once) and averages the scores per week
// of card creation in loc. Weeks are returned in ascending order.
func WeeklySentiment(cards []*board.Card, loc *time.Location) []WeekSentiment {
	if loc == nil {
		loc = time.Local
	}

	type acc struct{ score, count int }
	weeks := make(map[string]*acc)
	for _, c := range cards {
		created := c.CreatedAt
		if created.IsZero() {
			created = board.CreatedAtFromID(c.ID)
		}
		if created.IsZero() {
			continue
		}
		key := WeekKey(created.In(loc))
		a, ok := weeks[key]
		if !ok {
			a = &acc{}
			weeks[key] = a
		}
		a.score += scoreName(c.Name)
		a.count++
	}

	out := make([]WeekSentiment, 0, len(weeks))
	for week, a := range weeks {
		avg := float64(a.score) / float64(a.count)
		label := Neutral
		switch {
		case avg > sentimentThreshold:
			label = Positive
		case avg < -sentimentThreshold:
			label = Negative
		}
		out = append(out, WeekSentiment{Week: week, Cards: a.count, Score: avg, Sentiment: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out
}

// WeekKey formats t as year and Sunday-based week number.
func WeekKey(t time.Time) string {
	week := (t.YearDay() - 1 + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%d-%02d", t.Year(), week)
}

func scoreName(name string) int {
	score := 0
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if seen[w] {
			continue
		}
		seen[w] = true
		if _, ok := positiveWords[w]; ok {
			score++
		}
		if _, ok := negativeWords[w]; ok {
			score--
		}
	}
	return score
}

// DayActivity counts cards created and moved to the done list on one day.
type DayActivity struct {
	Day       time.Time `json:"day" yaml:"day"`
	Created   int       `json:"created" yaml:"created"`
	Completed int       `json:"completed" yaml:"completed"`
}

// Activity buckets createCard actions and updateCard actions that moved a
// card into doneList (case-insensitive) by UTC day. The result covers every
// day from the first to the last active day, including quiet days.
func Activity(actions []*board.Action, doneList string) []DayActivity {
	created := make(map[time.Time]int)
	completed := make(map[time.Time]int)
	var first, last time.Time

	for _, a := range actions {
		day := a.Date.UTC().Truncate(24 * time.Hour)
		switch {
		case a.Type == board.ActionCreateCard:
			created[day]++
		case a.Type == board.ActionUpdateCard && a.ListAfter != "" && strings.EqualFold(a.ListAfter, doneList):
			completed[day]++
		default:
			continue
		}
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}

	if first.IsZero() {
		return nil
	}
	var out []DayActivity
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DayActivity{Day: d, Created: created[d], Completed: completed[d]})
	}
	return out
}
