// Package userscmder provides the users command, which inspects the users
// stored in the brain.
package userscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/cmd/parley/sqlitepath"
	"github.com/papercomputeco/parley/cmd/parley/stack"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/utils"
)

const maxUserIDLen = 36

type usersCommander struct {
	brain      string
	sqlitePath string
	postgres   string
	jsonOutput bool

	debug     bool
	configDir string
}

// UserRow is one listed user.
type UserRow struct {
	UserID            string    `json:"userId"`
	CreatedAt         time.Time `json:"createdAt"`
	ConversationCount int       `json:"conversationCount"`
	ConversationValid bool      `json:"conversationValid"`
}

const usersLongDesc string = `List the users stored in the brain.

For each user, shows when they were first seen, how many conversations
they had and whether their last conversation is still valid.

The in-memory brain is empty on every run, so this is mostly useful with
--brain sqlite or --brain postgres.

Examples:
  parley users --brain sqlite
  parley users --brain postgres --postgres "postgres://localhost/parley" --json`

const usersShortDesc string = "List brain users"

var usersFlags = []string{
	config.FlagBrainProvider,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewUsersCmd() *cobra.Command {
	cmder := &usersCommander{}

	cmd := &cobra.Command{
		Use:   "users",
		Short: usersShortDesc,
		Long:  usersLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := stack.LoadConfig(cmd, usersFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print users as JSON")

	config.AddStringFlag(cmd, config.Flags, config.FlagBrainProvider, &cmder.brain)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgres, &cmder.postgres)

	return cmd
}

func (c *usersCommander) run(ctx context.Context, cfg *config.Config, out, errOut io.Writer) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(errOut))

	var (
		sqlitePath string
		err        error
	)
	if cfg.Brain.Provider == "sqlite" && cfg.Brain.SQLitePath == "" {
		sqlitePath, err = sqlitepath.ResolveSQLitePath("", c.configDir)
		if err != nil {
			return err
		}
	}

	b, err := stack.OpenBrain(ctx, cfg, sqlitePath, log)
	if err != nil {
		return err
	}
	defer b.Close()

	users, err := b.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserRow{
			UserID:            u.UserID,
			CreatedAt:         u.CreatedAt,
			ConversationCount: len(u.Conversations),
			ConversationValid: b.IsLastConversationValid(u.LastConversation()),
		})
	}

	if c.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No users yet."))
		return nil
	}

	fmt.Fprintln(out)
	for _, r := range rows {
		state := cliui.DimStyle.Render("expired")
		if r.ConversationValid {
			state = cliui.SuccessMark + " active"
		}
		fmt.Fprintf(out, "  %s  %s  %s  %s\n",
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", maxUserIDLen+3, utils.Truncate(r.UserID, maxUserIDLen))),
			cliui.DimStyle.Render(r.CreatedAt.Format(time.RFC3339)),
			cliui.ValueStyle.Render(fmt.Sprintf("%d conversation(s)", r.ConversationCount)),
			state,
		)
	}
	fmt.Fprintln(out)

	return nil
}
