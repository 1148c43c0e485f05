package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/parley/cmd/parley/config"
)

func newCmd(out *bytes.Buffer, configDir string, args ...string) *cobra.Command {
	cmd := configcmder.NewConfigCmd()
	cmd.PersistentFlags().String("config-dir", "", "Override path to .parley/ config directory")
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--config-dir", configDir))
	return cmd
}

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, list and validate subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list", "validate"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		configDir string
		out       *bytes.Buffer
	)

	BeforeEach(func() {
		configDir = filepath.Join(GinkgoT().TempDir(), ".parley")
		Expect(os.MkdirAll(configDir, 0o755)).To(Succeed())
		out = &bytes.Buffer{}
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			cmd := newCmd(out, configDir, "set", "brain.provider", "sqlite")
			Expect(cmd.Execute()).To(Succeed())

			_, err := os.Stat(filepath.Join(configDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.String()).To(ContainSubstring("brain.provider"))
		})

		It("rejects unknown keys", func() {
			cmd := newCmd(out, configDir, "set", "invalid_key", "value")
			err := cmd.Execute()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("requires exactly two arguments", func() {
			cmd := newCmd(out, configDir, "set", "brain.provider")
			Expect(cmd.Execute()).NotTo(Succeed())
		})

		It("rejects a non-boolean value for a boolean key", func() {
			cmd := newCmd(out, configDir, "set", "multi_intent", "maybe")
			Expect(cmd.Execute()).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("reads back a value that was set", func() {
			Expect(newCmd(out, configDir, "set", "nlu.intent_threshold", "0.6").Execute()).To(Succeed())

			out.Reset()
			Expect(newCmd(out, configDir, "get", "nlu.intent_threshold").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("0.6"))
		})

		It("reports unset optional keys", func() {
			Expect(newCmd(out, configDir, "get", "nlu.intent_threshold").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(newCmd(out, configDir, "get", "nope").Execute()).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("lists every config key", func() {
			Expect(newCmd(out, configDir, "list").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("brain.provider"))
			Expect(out.String()).To(ContainSubstring("nlu.qna.when"))
			Expect(out.String()).To(ContainSubstring("api.listen"))
		})

		It("rejects extra arguments", func() {
			Expect(newCmd(out, configDir, "list", "extra").Execute()).NotTo(Succeed())
		})
	})

	Describe("validate subcommand", func() {
		It("fails while the intent threshold is unset", func() {
			err := newCmd(out, configDir, "validate").Execute()
			Expect(err).To(MatchError(configcmder.ErrInvalidConfig))
			Expect(out.String()).To(ContainSubstring("nlu.intent_threshold is not set"))
		})

		It("succeeds once the threshold is set", func() {
			Expect(newCmd(out, configDir, "set", "nlu.intent_threshold", "0.4").Execute()).To(Succeed())

			out.Reset()
			Expect(newCmd(out, configDir, "validate").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Configuration is valid"))
		})

		It("reports validator problems", func() {
			Expect(newCmd(out, configDir, "set", "nlu.intent_threshold", "0.4").Execute()).To(Succeed())
			Expect(newCmd(out, configDir, "set", "brain.provider", "redis").Execute()).To(Succeed())

			out.Reset()
			Expect(newCmd(out, configDir, "validate").Execute()).To(MatchError(configcmder.ErrInvalidConfig))
			Expect(out.String()).To(ContainSubstring("Provider"))
		})
	})
})
