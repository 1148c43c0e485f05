// Package authcmder provides the auth command for storing service credentials.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/credentials"
)

const authLongDesc string = `Store credentials for the remote services parley calls.

Credentials are stored in credentials.toml in the .parley/ directory and
used when config.toml, PARLEY_* env vars and flags leave them empty.

The application key is read from stdin when it is piped, and prompted for
with hidden input otherwise.

Supported services: qna

Examples:
  parley auth qna --app-id my-kb            Prompt for the QnA application key
  echo $KEY | parley auth qna --app-id kb   Pipe the key from stdin
  parley auth --list                        List stored credentials
  parley auth --remove qna                  Remove stored QnA credentials`

const authShortDesc string = "Store credentials for remote services"

type authCommander struct {
	appID      string
	listFlag   bool
	removeFlag string
	configDir  string
}

func NewAuthCmd() *cobra.Command {
	cmder := &authCommander{}

	cmd := &cobra.Command{
		Use:   "auth [service]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			switch {
			case cmder.listFlag:
				return cmder.runList(out)
			case cmder.removeFlag != "":
				return cmder.runRemove(out, cmder.removeFlag)
			default:
				if len(args) == 0 {
					return fmt.Errorf("service argument required\n\nSupported services: %s",
						strings.Join(credentials.SupportedServices(), ", "))
				}
				return cmder.runAuth(cmd.InOrStdin(), out, args[0])
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedServices(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().StringVar(&cmder.appID, "app-id", "", "Application id of the service")
	cmd.Flags().BoolVar(&cmder.listFlag, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&cmder.removeFlag, "remove", "", "Remove stored credentials for a service")

	return cmd
}

func (c *authCommander) runAuth(in io.Reader, out io.Writer, service string) error {
	service = strings.ToLower(strings.TrimSpace(service))

	if !credentials.IsSupportedService(service) {
		return fmt.Errorf("unsupported service: %q\n\nSupported services: %s",
			service, strings.Join(credentials.SupportedServices(), ", "))
	}
	if c.appID == "" {
		return errors.New("--app-id is required")
	}

	appKey, err := readAppKey(in, out, service)
	if err != nil {
		return err
	}

	appKey = strings.TrimSpace(appKey)
	if appKey == "" {
		return errors.New("application key cannot be empty")
	}

	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.Set(service, credentials.ServiceCredential{AppID: c.appID, AppKey: appKey}); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Stored %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(service),
		cliui.DimStyle.Render("(app "+c.appID+")"),
	)
	return nil
}

func (c *authCommander) runList(out io.Writer) error {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	creds, err := mgr.Load()
	if err != nil {
		return err
	}
	services, err := mgr.ListServices()
	if err != nil {
		return err
	}

	if len(services) == 0 {
		fmt.Fprintf(out, "\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'parley auth <service> --app-id <id>' to store credentials.\n")
		fmt.Fprintf(out, "  Supported services: %s\n\n", strings.Join(credentials.SupportedServices(), ", "))
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))
	for _, s := range services {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(s),
			cliui.DimStyle.Render("app "+creds.Services[s].AppID),
		)
	}
	fmt.Fprintln(out)

	return nil
}

func (c *authCommander) runRemove(out io.Writer, service string) error {
	service = strings.ToLower(strings.TrimSpace(service))

	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.Remove(service); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(service))

	return nil
}

// readAppKey reads the key from in. A terminal gets an interactive prompt
// with hidden input; anything else is read up to the first newline.
func readAppKey(in io.Reader, out io.Writer, service string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Enter application key for %s: ", service)

		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after hidden input
		if err != nil {
			return "", fmt.Errorf("reading application key: %w", err)
		}
		return string(keyBytes), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
