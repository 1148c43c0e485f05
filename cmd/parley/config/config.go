// Package configcmder provides the config command for managing persistent
// parley configuration stored in the .parley/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

const configLongDesc string = `Manage persistent parley configuration.

Configuration is stored as config.toml in the .parley/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  locale, multi_intent,
  brain.provider, brain.conversation_duration, brain.sqlite_path, brain.postgres_dsn,
  nlu.intent_threshold,
  nlu.classifier.provider, nlu.classifier.target, nlu.classifier.intents_path,
  nlu.qna.enabled, nlu.qna.when, nlu.qna.strict, nlu.qna.target,
  nlu.qna.app_id, nlu.qna.app_key,
  api.listen,
  eventstream.provider, eventstream.brokers, eventstream.topic

Corpora are declared as [[nlu.corpora]] tables directly in config.toml.

Use subcommands to get, set, list or validate configuration values:
  parley config set <key> <value>    Set a configuration value
  parley config get <key>            Get a configuration value
  parley config list                 List all configuration values
  parley config validate             Check the configuration

Examples:
  parley config set nlu.intent_threshold 0.6
  parley config set brain.provider sqlite
  parley config get nlu.qna.when
  parley config validate
  parley config list`

// configTarget prints where the configuration is read from.
func configTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

const configShortDesc string = "Manage persistent parley configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}
