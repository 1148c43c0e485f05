package stack

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/credentials"
)

// LoadConfig resolves the config for cmd through the viper precedence chain:
// the flags named by flagKeys, then PARLEY_* env vars, then config.toml, then
// defaults. Secrets still missing are taken from credentials.toml.
func LoadConfig(cmd *cobra.Command, flagKeys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}

	creds, err := credentials.NewManager(configDir)
	if err != nil {
		return nil, err
	}
	if err := creds.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
