package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tasklist-cli/tasklist/internal/types"
	"gopkg.in/yaml.v3"
)

// Format selects how a command prints its result.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an --output value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown output format %q (want text, json or yaml)", types.ErrInvalidInput, s)
}

// Encode writes v as JSON or YAML. Text output is rendered by the caller.
func Encode(w io.Writer, f Format, v interface{}) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %s is not a structured format", types.ErrInvalidInput, f)
}
