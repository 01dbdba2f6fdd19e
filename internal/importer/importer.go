// Package importer reads tasks from files and feeds them through smart add.
//
// Two formats are accepted: plain text with one task description per line,
// and JSONL with one record per line:
//
//	{"description": "Buy milk", "due_date": "2024-05-01", "priority": 2, "category": "Home", "list_name": "To Do"}
package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tasklist-cli/tasklist/internal/dates"
	"github.com/tasklist-cli/tasklist/internal/sync"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// Format is an import file format.
type Format string

const (
	FormatText  Format = "text"
	FormatJSONL Format = "jsonl"
)

// DetectFormat picks JSONL for .jsonl and .ndjson files and text otherwise.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	}
	return FormatText
}

// Record is one task read from an import file.
type Record struct {
	Line        int
	Description string
	DueDate     *time.Time
	Priority    int
	Category    string
	ListName    string
}

// jsonRecord is the JSONL line layout.
type jsonRecord struct {
	Description string `json:"description"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Category    string `json:"category,omitempty"`
	ListName    string `json:"list_name,omitempty"`
}

// ReadFile reads records from path in the format its extension implies.
func ReadFile(path string, now time.Time) ([]Record, error) {
	// #nosec G304 - path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", path, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return Read(f, DetectFormat(path), now)
}

// Read parses records from r. Blank lines are skipped in both formats.
func Read(r io.Reader, format Format, now time.Time) ([]Record, error) {
	switch format {
	case FormatText:
		return readText(r)
	case FormatJSONL:
		return readJSONL(r, now)
	}
	return nil, fmt.Errorf("%w: unknown import format %q", types.ErrInvalidInput, format)
}

func readText(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		desc := strings.TrimSpace(scanner.Text())
		if desc == "" {
			continue
		}
		records = append(records, Record{Line: line, Description: desc})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return records, nil
}

func readJSONL(r io.Reader, now time.Time) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var jr jsonRecord
		if err := json.Unmarshal([]byte(text), &jr); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON at line %d: %v", types.ErrInvalidInput, line, err)
		}
		due, err := dates.Parse(jr.DueDate, now)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, Record{
			Line:        line,
			Description: jr.Description,
			DueDate:     due,
			Priority:    jr.Priority,
			Category:    jr.Category,
			ListName:    jr.ListName,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return records, nil
}

// Adder is the part of sync.Syncer the importer needs.
type Adder interface {
	Add(ctx context.Context, req sync.AddRequest) (*sync.AddResult, error)
}

// Failure is a record that could not be added.
type Failure struct {
	Record Record
	Err    error
}

// Result summarizes an import run.
type Result struct {
	Remote   int
	Local    int
	Failures []Failure
}

// Options configures Run.
type Options struct {
	// Offline queues every record locally.
	Offline bool
	// Progress, when set, is called after each record.
	Progress func(rec Record, res *sync.AddResult, err error)
}

// Run adds every record through smart add, in file order. A record that
// fails is recorded and the run continues, except for local storage
// failures, which stop the run.
func Run(ctx context.Context, adder Adder, records []Record, opts Options) (*Result, error) {
	result := &Result{}
	for _, rec := range records {
		res, err := adder.Add(ctx, sync.AddRequest{
			Description: rec.Description,
			DueDate:     rec.DueDate,
			Priority:    rec.Priority,
			Category:    rec.Category,
			ListName:    rec.ListName,
			Offline:     opts.Offline,
		})
		if opts.Progress != nil {
			opts.Progress(rec, res, err)
		}
		if err != nil {
			if errors.Is(err, types.ErrStorage) {
				return result, fmt.Errorf("failed to import line %d: %w", rec.Line, err)
			}
			result.Failures = append(result.Failures, Failure{Record: rec, Err: err})
			continue
		}
		if res.Origin == sync.OriginRemote {
			result.Remote++
		} else {
			result.Local++
		}
	}
	return result, nil
}
