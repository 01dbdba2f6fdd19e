package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// SubTaskMarker follows the description of a task that has sub-tasks.
const SubTaskMarker = "[+]"

// columnGap separates table columns.
const columnGap = 2

var cellStyle = lipgloss.NewStyle()

// Table lays out rows in borderless columns. Cells may carry ANSI styling;
// widths are measured on the visible text.
type Table struct {
	header []string
	rows   [][]string
}

// NewTable starts a table with the given column headers.
func NewTable(header ...string) *Table {
	return &Table{header: header}
}

// Row appends a row. Missing cells are left blank.
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.header))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render writes the header and rows to w.
func (t *Table) Render(w io.Writer) {
	last := len(t.header) - 1
	tbl := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		Headers(t.header...).
		Rows(t.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cellStyle
			if row == table.HeaderRow {
				style = headerStyle
			}
			if col < last {
				style = style.PaddingRight(columnGap)
			}
			return style
		})

	for _, line := range strings.Split(tbl.String(), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// RenderTasks prints pending tasks as a table. subCounts maps task ids to
// their sub-task count; tasks with sub-tasks get the [+] marker. Verbose
// adds the target list, status and creation time.
func RenderTasks(w io.Writer, tasks []*types.Task, subCounts map[int64]int, verbose bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No pending tasks.")
		return
	}

	header := []string{"ID", "Description", "Due", "Priority", "Category"}
	if verbose {
		header = append(header, "List", "Status", "Created")
	}
	t := NewTable(header...)
	for _, task := range tasks {
		desc := task.Description
		if subCounts[task.ID] > 0 {
			desc += " " + RenderAccent(SubTaskMarker)
		}
		row := []string{
			strconv.FormatInt(task.ID, 10),
			desc,
			orDash(task.DueString()),
			RenderPriority(task.Priority),
			orDash(task.Category),
		}
		if verbose {
			row = append(row,
				orDash(task.ListName),
				renderStatus(task.Status),
				task.CreatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		t.Row(row...)
	}
	t.Render(w)
}

// RenderTask prints one task with its sub-tasks.
func RenderTask(w io.Writer, task *types.Task, subs []*types.SubTask) {
	fmt.Fprintf(w, "%s %d\n", RenderHeader("Task"), task.ID)
	fmt.Fprintf(w, "  Description: %s\n", task.Description)
	fmt.Fprintf(w, "  Due:         %s\n", orDash(task.DueString()))
	fmt.Fprintf(w, "  Priority:    %s\n", RenderPriority(task.Priority))
	fmt.Fprintf(w, "  Category:    %s\n", orDash(task.Category))
	fmt.Fprintf(w, "  List:        %s\n", orDash(task.ListName))
	fmt.Fprintf(w, "  Status:      %s\n", renderStatus(task.Status))
	fmt.Fprintf(w, "  Created:     %s\n", task.CreatedAt.Local().Format("2006-01-02 15:04"))
	RenderSubTasks(w, subs)
}

// RenderSubTasks prints a numbered list of sub-tasks.
func RenderSubTasks(w io.Writer, subs []*types.SubTask) {
	if len(subs) == 0 {
		fmt.Fprintln(w, RenderMuted("  No sub-tasks."))
		return
	}
	fmt.Fprintln(w, "  Sub-tasks:")
	for _, s := range subs {
		fmt.Fprintf(w, "    %d. %s\n", s.ID, s.Description)
	}
}

// RenderCards prints the cards of one list, numbered from 1 in board order.
// The numbers are the ones `done` accepts.
func RenderCards(w io.Writer, listName string, cards []*board.Card) {
	fmt.Fprintf(w, "%s (%d)\n", RenderHeader(listName), len(cards))
	if len(cards) == 0 {
		fmt.Fprintln(w, RenderMuted("  No cards."))
		return
	}
	for i, c := range cards {
		line := fmt.Sprintf("  %d. %s", i+1, c.Name)
		if c.Due != nil {
			line += RenderMuted(" (due " + c.Due.Format(types.DateLayout) + ")")
		}
		fmt.Fprintln(w, line)
	}
}

func renderStatus(s types.Status) string {
	switch s {
	case types.StatusFailed:
		return RenderFail(string(s))
	case types.StatusUploading:
		return RenderWarn(string(s))
	}
	return string(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
