package configcmder

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
)

const validateLongDesc string = `Check the configuration.

Loads config.toml from the .parley/ directory and reports every value
parley would refuse to start with. The intent threshold is required
to compute understandings.

Examples:
  parley config validate`

const validateShortDesc string = "Check the configuration"

// ErrInvalidConfig is returned when validation reports problems.
var ErrInvalidConfig = errors.New("invalid configuration")

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runValidate(cmd.OutOrStdout(), configDir)
		},
	}

	return cmd
}

func runValidate(w io.Writer, configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configTarget(w, cfger)

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	var problems []string
	if cfg.NLU.IntentThreshold == nil {
		problems = append(problems, "nlu.intent_threshold is not set")
	}

	var verr *config.ValidationError
	if err := config.Validate(cfg); errors.As(err, &verr) {
		problems = append(problems, verr.Problems...)
	} else if err != nil {
		return err
	}

	if len(problems) == 0 {
		fmt.Fprintf(w, "  %s Configuration is valid\n\n", cliui.SuccessMark)
		return nil
	}

	for _, p := range problems {
		fmt.Fprintf(w, "  %s %s\n", cliui.FailMark, p)
	}
	fmt.Fprintln(w)
	return ErrInvalidConfig
}
