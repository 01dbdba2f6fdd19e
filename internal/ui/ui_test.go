package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tasklist-cli/tasklist/internal/board"
	"github.com/tasklist-cli/tasklist/internal/types"
)

func init() {
	DisableColor()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, types.ErrInvalidInput) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrInvalidInput", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	v := map[string]int{"pending": 2}

	var buf bytes.Buffer
	if err := Encode(&buf, FormatJSON, v); err != nil {
		t.Fatalf("Encode json failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"pending": 2`) {
		t.Errorf("Unexpected json: %s", buf.String())
	}

	buf.Reset()
	if err := Encode(&buf, FormatYAML, v); err != nil {
		t.Fatalf("Encode yaml failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "pending: 2" {
		t.Errorf("Unexpected yaml: %s", buf.String())
	}

	if err := Encode(&buf, FormatText, v); err == nil {
		t.Error("Expected error encoding text")
	}
}

func TestRenderPriority(t *testing.T) {
	for p, want := range map[int]string{1: "Low", 2: "Medium", 3: "High", 7: "Unknown"} {
		if got := RenderPriority(p); got != want {
			t.Errorf("RenderPriority(%d) = %q, want %q", p, got, want)
		}
	}
}

func TestTable_Aligns(t *testing.T) {
	tbl := NewTable("ID", "Name")
	tbl.Row("1", "short")
	tbl.Row("100", "longer name")

	var buf bytes.Buffer
	tbl.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	col := strings.Index(lines[0], "Name")
	for _, line := range lines[1:] {
		if idx := strings.IndexAny(line[3:], "sl") + 3; idx != col {
			t.Errorf("Column misaligned in %q: got %d, want %d", line, idx, col)
		}
	}
}

func TestRenderTasks(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tasks := []*types.Task{
		{ID: 1, Description: "Buy milk", Priority: 3, Category: "Home", Status: types.StatusPending},
		{ID: 2, Description: "File taxes", DueDate: &due, Priority: 1, Status: types.StatusFailed},
	}

	var buf bytes.Buffer
	RenderTasks(&buf, tasks, map[int64]int{1: 2}, false)
	out := buf.String()

	if !strings.Contains(out, "Buy milk [+]") {
		t.Errorf("Expected sub-task marker on task 1:\n%s", out)
	}
	if strings.Contains(out, "File taxes [+]") {
		t.Errorf("Unexpected sub-task marker on task 2:\n%s", out)
	}
	if !strings.Contains(out, "2024-05-01") || !strings.Contains(out, "High") {
		t.Errorf("Missing due date or priority:\n%s", out)
	}
	if strings.Contains(out, "Status") {
		t.Errorf("Status column shown without verbose:\n%s", out)
	}

	buf.Reset()
	RenderTasks(&buf, tasks, nil, true)
	if !strings.Contains(buf.String(), "failed") {
		t.Errorf("Verbose output missing status:\n%s", buf.String())
	}

	buf.Reset()
	RenderTasks(&buf, nil, nil, false)
	if strings.TrimSpace(buf.String()) != "No pending tasks." {
		t.Errorf("Unexpected empty output: %q", buf.String())
	}
}

func TestRenderCards(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cards := []*board.Card{
		{ID: "a", Name: "First"},
		{ID: "b", Name: "Second", Due: &due},
	}

	var buf bytes.Buffer
	RenderCards(&buf, "To Do", cards)
	out := buf.String()

	for _, want := range []string{"To Do (2)", "1. First", "2. Second (due 2024-05-01)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}

func TestValidatePriorityText(t *testing.T) {
	for _, ok := range []string{"1", " 2", "3"} {
		if err := ValidatePriorityText(ok); err != nil {
			t.Errorf("ValidatePriorityText(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "4", "high"} {
		if err := ValidatePriorityText(bad); !errors.Is(err, types.ErrInvalidInput) {
			t.Errorf("ValidatePriorityText(%q) = %v, want ErrInvalidInput", bad, err)
		}
	}
}

func TestWidth_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Error("Buffer reported as terminal")
	}
	if got := Width(&buf); got != DefaultWidth {
		t.Errorf("Width = %d, want %d", got, DefaultWidth)
	}
}

func TestTable_StyledCellsAndShortRows(t *testing.T) {
	tbl := NewTable("A", "B", "C")
	tbl.Row(RenderFail("x"), "y")
	tbl.Row("wide cell", "z", "end")

	var buf bytes.Buffer
	tbl.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if got, want := strings.Index(lines[1], "y"), strings.Index(lines[0], "B"); got != want {
		t.Errorf("Column B at %d in %q, want %d", got, lines[1], want)
	}
	if strings.HasSuffix(lines[1], " ") {
		t.Errorf("Trailing space in %q", lines[1])
	}
}
