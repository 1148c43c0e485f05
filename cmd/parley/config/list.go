package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays all configuration keys and their current values from the
config.toml file stored in the .parley/ directory. Keys still at their
default value are dimmed.

Examples:
  parley config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runList(w io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configTarget(w, cfger)

	keys := config.ValidConfigKeys()
	defaults := make(map[string]string, len(keys))
	for _, key := range keys {
		defaults[key] = config.DefaultValue(key)
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range keys {
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%-*s", maxLen, key)
		switch {
		case value == "":
			fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(name), cliui.DimStyle.Render("<not set>"))
		case value == defaults[key]:
			fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(name), cliui.DimStyle.Render(value))
		default:
			fmt.Fprintf(w, "  %s  %s\n", cliui.KeyStyle.Render(name), cliui.ValueStyle.Render(value))
		}
	}
	fmt.Fprintln(w)

	return nil
}
