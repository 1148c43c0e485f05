// Package parleycmder is the root of the parley command tree.
package parleycmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/parley/cmd/parley/auth"
	computecmder "github.com/papercomputeco/parley/cmd/parley/compute"
	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
	servecmder "github.com/papercomputeco/parley/cmd/parley/serve"
	userscmder "github.com/papercomputeco/parley/cmd/parley/users"
	versioncmder "github.com/papercomputeco/parley/cmd/version"
)

const parleyLongDesc string = `Parley understands what users say to a bot.

Each sentence is classified into intents, matched against a QnA knowledge
base and searched for entities, within a conversation that stays valid for
a configured duration.

Run parley using:
  parley serve          Run the understanding API and MCP server
  parley compute        Compute understandings locally
  parley users          List brain users
  parley config         Manage the configuration
  parley auth           Store service credentials`

const parleyShortDesc string = "Parley - natural language understanding for bots"

func NewParleyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "parley",
		Short:        parleyShortDesc,
		Long:         parleyLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .parley/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(computecmder.NewComputeCmd())
	cmd.AddCommand(userscmder.NewUsersCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
