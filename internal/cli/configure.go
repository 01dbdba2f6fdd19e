package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tasklist-cli/tasklist/internal/config"
	"github.com/tasklist-cli/tasklist/internal/probe"
	"github.com/tasklist-cli/tasklist/internal/ui"
)

func newConfigureCmd(a *app) *cobra.Command {
	var (
		setup     ui.Setup
		skipCheck bool
	)

	cmd := &cobra.Command{
		Use:     "configure",
		GroupID: "setup",
		Short:   "Set board credentials and task defaults",
		Long: `Write the configuration file. On a terminal every value is prompted for;
otherwise pass the values as flags.

Get an API key and token at https://trello.com/app-key. Board and list ids
appear in the JSON view of the board (append .json to its URL).`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			current := ui.Setup{
				APIKey:   cfg.Trello.APIKey,
				Token:    cfg.Trello.Token,
				BoardID:  cfg.Trello.BoardID,
				ListID:   cfg.Trello.ListID,
				Priority: strconv.Itoa(cfg.Defaults.Priority),
				Category: cfg.Defaults.Category,
			}

			f := cmd.Flags()
			fromFlags := false
			for _, field := range []struct {
				flag string
				dst  *string
				val  string
			}{
				{"api-key", &current.APIKey, setup.APIKey},
				{"token", &current.Token, setup.Token},
				{"board-id", &current.BoardID, setup.BoardID},
				{"list-id", &current.ListID, setup.ListID},
				{"priority", &current.Priority, setup.Priority},
				{"category", &current.Category, setup.Category},
			} {
				if f.Changed(field.flag) {
					*field.dst = field.val
					fromFlags = true
				}
			}

			if !fromFlags {
				if !a.deps.Interactive() {
					return &usageError{err: errors.New("no terminal for prompts; pass the values as flags")}
				}
				if err := a.deps.Prompter.Setup(&current); err != nil {
					if errors.Is(err, ui.ErrAborted) {
						a.printf("Configuration unchanged.\n")
						return nil
					}
					return err
				}
			}

			if err := ui.ValidatePriorityText(current.Priority); err != nil {
				return err
			}
			priority, _ := strconv.Atoi(strings.TrimSpace(current.Priority))
			cfg.Trello.APIKey = strings.TrimSpace(current.APIKey)
			cfg.Trello.Token = strings.TrimSpace(current.Token)
			cfg.Trello.BoardID = strings.TrimSpace(current.BoardID)
			cfg.Trello.ListID = strings.TrimSpace(current.ListID)
			cfg.Defaults.Priority = priority
			cfg.Defaults.Category = strings.TrimSpace(current.Category)
			if err := cfg.RequireBoard(); err != nil {
				return err
			}

			if !skipCheck {
				b, err := a.deps.NewBoard(cfg, a.logs.Logger("board"))
				if err != nil {
					return err
				}
				if probe.New(b, cfg.Probe.Timeout).IsOnline(ctx) {
					a.printf("%s Board credentials verified\n", ui.RenderPass("✓"))
				} else {
					a.warnf("could not reach the board with these credentials; saving anyway\n")
				}
			}

			path := a.flags.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			a.printf("%s Saved %s\n", ui.RenderPass("✓"), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&setup.APIKey, "api-key", "", "Trello API key")
	f.StringVar(&setup.Token, "token", "", "Trello API token")
	f.StringVar(&setup.BoardID, "board-id", "", "board id")
	f.StringVar(&setup.ListID, "list-id", "", "default list id for new cards")
	f.StringVar(&setup.Priority, "priority", "", "default priority (1-3)")
	f.StringVar(&setup.Category, "category", "", "default category")
	f.BoolVar(&skipCheck, "skip-check", false, "do not verify the credentials against the board")
	return cmd
}
