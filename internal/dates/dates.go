// Package dates parses due dates given on the command line.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/tasklist-cli/tasklist/internal/types"
)

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse reads a due date as YYYY-MM-DD or as an English phrase such as
// "tomorrow", "next friday" or "in 3 days", relative to now. The result is
// the calendar day at midnight UTC. Empty input returns nil.
func Parse(text string, now time.Time) (*time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if d, err := time.Parse(types.DateLayout, text); err == nil {
		return &d, nil
	}

	r, err := parser.Parse(text, now)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse date %q: %v", types.ErrInvalidInput, text, err)
	}
	if r == nil || strings.TrimSpace(strings.Replace(text, r.Text, "", 1)) != "" {
		return nil, fmt.Errorf("%w: cannot parse date %q (use YYYY-MM-DD or phrases like \"next friday\")", types.ErrInvalidInput, text)
	}

	y, m, d := r.Time.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day, nil
}
