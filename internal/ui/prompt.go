package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/tasklist-cli/tasklist/internal/types"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("aborted")

// Setup holds the answers of the configure prompt. Fields start with the
// current values and are edited in place.
type Setup struct {
	APIKey   string
	Token    string
	BoardID  string
	ListID   string
	Priority string
	Category string
}

// Prompter asks the user questions.
type Prompter interface {
	Confirm(title string) (bool, error)
	Setup(s *Setup) error
}

// HuhPrompter prompts on the terminal.
type HuhPrompter struct {
	// Accessible switches to plain line prompts for screen readers and
	// dumb terminals.
	Accessible bool
}

// Confirm asks a yes/no question. The default answer is no.
func (p HuhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithAccessible(p.Accessible)

	if err := form.Run(); err != nil {
		return false, promptErr(err)
	}
	return ok, nil
}

// Setup asks for the board credentials and task defaults.
func (p HuhPrompter) Setup(s *Setup) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trello API key").
				Value(&s.APIKey).
				Validate(required("API key")),
			huh.NewInput().
				Title("Trello API token").
				EchoMode(huh.EchoModePassword).
				Value(&s.Token).
				Validate(required("token")),
			huh.NewInput().
				Title("Board ID").
				Value(&s.BoardID).
				Validate(required("board ID")),
			huh.NewInput().
				Title("Default list ID").
				Description("Cards are created here unless a list name is given.").
				Value(&s.ListID).
				Validate(required("list ID")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Default priority (1-3)").
				Value(&s.Priority).
				Validate(ValidatePriorityText),
			huh.NewInput().
				Title("Default category").
				Value(&s.Category),
		),
	).WithAccessible(p.Accessible)

	if err := form.Run(); err != nil {
		return promptErr(err)
	}
	return nil
}

// ValidatePriorityText checks a priority typed as text.
func ValidatePriorityText(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: priority must be a number between 1 and 3", types.ErrInvalidInput)
	}
	return types.ValidatePriority(p)
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func promptErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return fmt.Errorf("failed to read answer: %w", err)
}
