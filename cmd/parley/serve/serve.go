// Package servecmder provides the serve command running the parley API.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/parley/api"
	"github.com/papercomputeco/parley/api/mcp"
	"github.com/papercomputeco/parley/cmd/parley/sqlitepath"
	"github.com/papercomputeco/parley/cmd/parley/stack"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/logger"
)

type serveCommander struct {
	flags config.FlagSet

	listen      string
	locale      string
	multiIntent bool
	brain       string
	sqlitePath  string
	postgresDSN string
	duration    string
	threshold   string
	classifier  string
	target      string
	intents     string
	eventstream string
	topic       string
	noMCP       bool
	logFile     string

	debug     bool
	configDir string
	logger    *slog.Logger
}

const serveLongDesc string = `Run the parley API server.

The server computes understandings on POST /understand, exposes the brain on
/users, Prometheus metrics on /metrics and an MCP endpoint on /mcp.

Flags override PARLEY_* environment variables, which override config.toml
values in the .parley/ directory.

Logs are JSON lines on stdout. With --log-file, the terminal gets readable
logs and the JSON lines go to the file instead.

Examples:
  parley serve --threshold 0.6
  parley serve --brain sqlite --sqlite ./parley.db
  parley serve --eventstream kafka --topic parley.understandings
  parley serve --log-file parley.log`

const serveShortDesc string = "Run the parley API server"

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagLocale,
	config.FlagMultiIntent,
	config.FlagBrainProvider,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagConversationTTL,
	config.FlagThreshold,
	config.FlagClassifier,
	config.FlagClassifierTgt,
	config.FlagIntents,
	config.FlagEventStream,
	config.FlagKafkaTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := stack.LoadConfig(cmd, serveFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagLocale, &cmder.locale)
	config.AddBoolFlag(cmd, cmder.flags, config.FlagMultiIntent, &cmder.multiIntent)
	config.AddStringFlag(cmd, cmder.flags, config.FlagBrainProvider, &cmder.brain)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagConversationTTL, &cmder.duration)
	config.AddStringFlag(cmd, cmder.flags, config.FlagThreshold, &cmder.threshold)
	config.AddStringFlag(cmd, cmder.flags, config.FlagClassifier, &cmder.classifier)
	config.AddStringFlag(cmd, cmder.flags, config.FlagClassifierTgt, &cmder.target)
	config.AddStringFlag(cmd, cmder.flags, config.FlagIntents, &cmder.intents)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventStream, &cmder.eventstream)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaTopic, &cmder.topic)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Serve an MCP endpoint without tools")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Append JSON logs to this file")

	return cmd
}

// newLogger returns the serve logger and a func releasing the log file.
func (c *serveCommander) newLogger() (*slog.Logger, func() error, error) {
	if c.logFile == "" {
		return logger.New(logger.WithDebug(c.debug), logger.WithJSON(true)), func() error { return nil }, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	return logger.Multi(
		logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr)),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithSource(c.debug), logger.WithWriter(f)),
	), f.Close, nil
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	var (
		closeLog func() error
		err      error
	)
	c.logger, closeLog, err = c.newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := stack.Options{Logger: c.logger}
	if cfg.Brain.Provider == "sqlite" && cfg.Brain.SQLitePath == "" {
		path, err := sqlitepath.ResolveSQLitePath("", c.configDir)
		if err != nil {
			return err
		}
		opts.SQLitePath = path
	}

	s, err := stack.Build(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("building parley: %w", err)
	}
	defer s.Close()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Bot:    s.Bot,
		Brain:  s.Brain,
		Noop:   c.noMCP,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server, err := api.NewServer(api.Config{ListenAddr: cfg.API.Listen}, api.Deps{
		Bot:     s.Bot,
		Brain:   s.Brain,
		Metrics: s.Metrics,
		MCP:     mcpServer,
		Logger:  c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		return server.Shutdown()
	})

	return g.Wait()
}
