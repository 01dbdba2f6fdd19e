package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/tasklist-cli/tasklist/internal/types"
)

const (
	barRune = "█"
	// minBarWidth keeps bars visible on very narrow terminals.
	minBarWidth = 10
	// chartHeight is the row count of each activity plot.
	chartHeight = 10
	axisWidth   = 8
)

var (
	labelStyle    = lipgloss.NewStyle().Align(lipgloss.Right)
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	createdStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// Bar is one row of a bar chart.
type Bar struct {
	Label string
	Value int
}

// BarChart writes a horizontal bar chart scaled to width columns:
//
//	To Do | ████████ 4
//	 Done | ████ 2
func BarChart(w io.Writer, title string, bars []Bar, width int) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render(title))
	if len(bars) == 0 {
		fmt.Fprintln(w, "No data.")
		return
	}

	labelWidth, maxVal := 0, 0
	for _, b := range bars {
		labelWidth = max(labelWidth, lipgloss.Width(b.Label))
		maxVal = max(maxVal, b.Value)
	}

	chart := max(width-labelWidth-10, minBarWidth)
	for _, b := range bars {
		n := 0
		if maxVal > 0 {
			n = b.Value * chart / maxVal
		}
		label := labelStyle.Width(labelWidth).Render(b.Label)
		fmt.Fprintf(w, "%s | %s %d\n", label, strings.Repeat(barRune, n), b.Value)
	}
}

// Render writes every report in r as text.
func Render(w io.Writer, r *Report, width int) {
	if r.Has(KindLists) {
		bars := make([]Bar, len(r.Lists))
		for i, l := range r.Lists {
			bars[i] = Bar{Label: l.List, Value: l.Count}
		}
		BarChart(w, "Cards per List", bars, width)
	}

	if r.Has(KindKeywords) {
		bars := make([]Bar, len(r.Keywords))
		for i, k := range r.Keywords {
			bars[i] = Bar{Label: k.Word, Value: k.Count}
		}
		BarChart(w, "Top Keywords", bars, width)
	}

	if r.Has(KindSentiment) {
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Weekly Sentiment"))
		if len(r.Sentiment) == 0 {
			fmt.Fprintln(w, "No cards to analyze.")
		}
		for _, s := range r.Sentiment {
			label := string(s.Sentiment)
			switch s.Sentiment {
			case Positive:
				label = positiveStyle.Render(label)
			case Negative:
				label = negativeStyle.Render(label)
			}
			fmt.Fprintf(w, "Week %s: %s (%d cards)\n", s.Week, label, s.Cards)
		}
	}

	if r.Has(KindActivity) {
		renderActivity(w, r.Activity, width)
	}
}

// renderActivity plots created and completed counts per day, one line
// chart each, stretched or squeezed to fit width.
func renderActivity(w io.Writer, days []DayActivity, width int) {
	fmt.Fprintf(w, "\n%s\n", titleStyle.Render("Task Activity Over Time"))
	switch {
	case len(days) == 0:
		fmt.Fprintln(w, "No activity to report.")
		return
	case len(days) < 2:
		fmt.Fprintln(w, "Not enough data to generate an activity chart.")
		return
	}

	created := make([]float64, len(days))
	completed := make([]float64, len(days))
	for i, d := range days {
		created[i] = float64(d.Created)
		completed[i] = float64(d.Completed)
	}
	caption := fmt.Sprintf("%s to %s",
		days[0].Day.Format(types.DateLayout), days[len(days)-1].Day.Format(types.DateLayout))

	opts := []asciigraph.Option{
		asciigraph.Height(chartHeight),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
	}
	// The y axis labels and gutter take about axisWidth columns.
	if plot := width - axisWidth; plot > 0 && len(days) > plot {
		opts = append(opts, asciigraph.Width(plot))
	}

	fmt.Fprintf(w, "\n%s\n", createdStyle.Render("Tasks Created"))
	fmt.Fprintln(w, asciigraph.Plot(created, opts...))
	fmt.Fprintf(w, "\n%s\n", doneStyle.Render("Tasks Completed"))
	fmt.Fprintln(w, asciigraph.Plot(completed, opts...))
}
