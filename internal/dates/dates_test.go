package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/tasklist-cli/tasklist/internal/types"
)

func TestParse(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 3, 6, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"2024-05-01", "2024-05-01"},
		{"  2024-12-31 ", "2024-12-31"},
		{"today", "2024-03-06"},
		{"tomorrow", "2024-03-07"},
		{"in 3 days", "2024-03-09"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, now)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if got.Format(types.DateLayout) != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got.Format(types.DateLayout), tt.want)
			}
			if got.Hour() != 0 || got.Location() != time.UTC {
				t.Errorf("Parse(%q) = %v, want midnight UTC", tt.in, got)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse("  ", time.Now())
	if err != nil || got != nil {
		t.Errorf("Parse(blank) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"2024-13-45", "whenever", "tomorrow or so maybe"} {
		if _, err := Parse(in, time.Now()); !errors.Is(err, types.ErrInvalidInput) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidInput", in, err)
		}
	}
}
