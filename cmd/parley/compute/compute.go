// Package computecmder provides the compute command: it runs understanding
// turns locally, from arguments, a script file or an interactive prompt.
package computecmder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/cmd/parley/sqlitepath"
	"github.com/papercomputeco/parley/cmd/parley/stack"
	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/dotdir"
	"github.com/papercomputeco/parley/pkg/logger"
)

var userPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")

type computeCommander struct {
	user       string
	script     string
	reset      bool
	jsonOutput bool

	locale      string
	multiIntent bool
	brain       string
	sqlitePath  string
	threshold   string
	intents     string

	debug     bool
	configDir string
	dotdir    *dotdir.Manager
}

const computeLongDesc string = `Compute the understanding of sentences locally.

Sentences come from the arguments, from a script file (one sentence per line,
lines starting with "#" are skipped) or, when neither is given, from an
interactive prompt.

The user id is kept in .parley/session.json so successive runs talk as the
same user. Use --reset to start over as a new user. With the default
in-memory brain, conversations only live for one run; use --brain sqlite to
keep them.

Examples:
  parley compute --threshold 0.5 "book a flight to paris"
  parley compute --script conversation.txt --json
  parley compute --brain sqlite --user alice`

const computeShortDesc string = "Compute understandings locally"

var computeFlags = []string{
	config.FlagLocale,
	config.FlagMultiIntent,
	config.FlagBrainProvider,
	config.FlagSQLite,
	config.FlagThreshold,
	config.FlagIntents,
}

func NewComputeCmd() *cobra.Command {
	cmder := &computeCommander{dotdir: dotdir.NewManager()}

	cmd := &cobra.Command{
		Use:   "compute [sentence...]",
		Short: computeShortDesc,
		Long:  computeLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := stack.LoadConfig(cmd, computeFlags)
			if err != nil {
				return err
			}

			sentences, err := cmder.sentences(args)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg, sentences, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&cmder.user, "user", "u", "", "User id to talk as (default: the session user)")
	cmd.Flags().StringVar(&cmder.script, "script", "", "File with one sentence per line")
	cmd.Flags().BoolVar(&cmder.reset, "reset", false, "Forget the session user and start as a new one")
	cmd.Flags().BoolVar(&cmder.jsonOutput, "json", false, "Print responses as JSON lines")

	config.AddStringFlag(cmd, config.Flags, config.FlagLocale, &cmder.locale)
	config.AddBoolFlag(cmd, config.Flags, config.FlagMultiIntent, &cmder.multiIntent)
	config.AddStringFlag(cmd, config.Flags, config.FlagBrainProvider, &cmder.brain)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagThreshold, &cmder.threshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagIntents, &cmder.intents)

	return cmd
}

// sentences returns the scripted sentences, or nil for interactive mode.
func (c *computeCommander) sentences(args []string) ([]string, error) {
	if c.script == "" {
		return args, nil
	}

	data, err := os.ReadFile(c.script)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return append(ParseScript(string(data)), args...), nil
}

// ParseScript splits a script into sentences, skipping blank lines and
// "#" comments.
func ParseScript(script string) []string {
	var sentences []string
	for line := range strings.Lines(script) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sentences = append(sentences, line)
	}
	return sentences
}

func (c *computeCommander) run(ctx context.Context, cfg *config.Config, sentences []string, in io.Reader, out io.Writer) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr))

	userID, err := c.resolveUser()
	if err != nil {
		return err
	}

	opts := stack.Options{Logger: log}
	if cfg.Brain.Provider == "sqlite" && cfg.Brain.SQLitePath == "" {
		opts.SQLitePath, err = sqlitepath.ResolveSQLitePath("", c.configDir)
		if err != nil {
			return err
		}
	}

	var s *stack.Stack
	build := func() error {
		s, err = stack.Build(ctx, cfg, opts)
		return err
	}
	if c.jsonOutput {
		err = build()
	} else {
		err = cliui.Step(out, "Loading parley", build)
	}
	if err != nil {
		return err
	}
	defer s.Close()

	if len(sentences) > 0 {
		responses, playErr := s.Bot.Play(ctx, userID, sentences)
		for _, resp := range responses {
			if err := c.print(resp, out); err != nil {
				return err
			}
		}
		return playErr
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		sentence := strings.TrimSpace(scanner.Text())
		if sentence == "" {
			continue
		}
		if err := c.respond(ctx, s.Bot, userID, sentence, out); err != nil {
			fmt.Fprintf(out, "  %s %v\n", cliui.FailMark, err)
		}
	}
}

// resolveUser picks the user id from --user, then the saved session, and
// otherwise starts a new session.
func (c *computeCommander) resolveUser() (string, error) {
	if c.reset {
		if err := c.dotdir.ClearSession(c.configDir); err != nil {
			return "", fmt.Errorf("clearing session: %w", err)
		}
	}

	if c.user != "" {
		return c.user, c.dotdir.SaveSession(&dotdir.SessionState{UserID: c.user, StartedAt: time.Now()}, c.configDir)
	}

	state, err := c.dotdir.LoadSession(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if state != nil && state.UserID != "" {
		return state.UserID, nil
	}

	userID := uuid.NewString()
	if err := c.dotdir.SaveSession(&dotdir.SessionState{UserID: userID, StartedAt: time.Now()}, c.configDir); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	return userID, nil
}

func (c *computeCommander) respond(ctx context.Context, b *bot.Bot, userID, sentence string, out io.Writer) error {
	resp, err := b.Respond(ctx, bot.UserMessage{UserID: userID, Sentence: sentence})
	if err != nil {
		return err
	}
	return c.print(resp, out)
}

func (c *computeCommander) print(resp *bot.Response, out io.Writer) error {
	if c.jsonOutput {
		return json.NewEncoder(out).Encode(resp)
	}

	fmt.Fprintf(out, "\n  %s %s\n", cliui.KeyStyle.Render("sentence:"), resp.Sentence)
	fmt.Fprintf(out, "  %s  %s\n", cliui.KeyStyle.Render("intents:"), cliui.FormatIntents(resp.Result.Intents))
	fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("entities:"), cliui.FormatEntities(resp.Result.Entities))

	if answers := cliui.AnswersMarkdown(resp.Result.Intents); answers != "" {
		rendered, err := cliui.RenderMarkdown(answers)
		if err != nil {
			rendered = answers
		}
		fmt.Fprint(out, rendered)
	}

	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("conversation "+resp.ConversationID))
	return nil
}
