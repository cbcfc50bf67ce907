package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/ui"
)

// PasswordEnv supplies the password when stdin is not a terminal.
const PasswordEnv = "NEXUSCTL_PASSWORD"

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Nexus ERP backend",
	Long: `Sign in with a staff account and keep the session for later commands.

Prompts for email and password on a terminal. In scripts, pass --email and
set NEXUSCTL_PASSWORD.

Examples:
  nexusctl login
  NEXUSCTL_PASSWORD=secret nexusctl login --email admin@nexus.local`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(nil)
		if err != nil {
			return err
		}
		creds, err := readCredentials(loginEmail, isInteractive())
		if err != nil {
			return err
		}
		return login(cmd.Context(), rt, creds, cmd.OutOrStdout())
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "staff email (prompted when omitted on a terminal)")
	rootCmd.AddCommand(loginCmd)
}

type credentials struct {
	Email    string
	Password string
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readCredentials prompts with a form on a terminal, otherwise reads the
// flag and the password environment variable.
func readCredentials(email string, interactive bool) (credentials, error) {
	creds := credentials{Email: email, Password: os.Getenv(PasswordEnv)}
	if !interactive {
		if creds.Email == "" || creds.Password == "" {
			return creds, errors.New(errors.ErrAuth,
				"Email and password are required",
				"Pass --email and set "+PasswordEnv+", or run on a terminal")
		}
		return creds, nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&creds.Email).
				Validate(requireField("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(requireField("password")),
		),
	)
	if err := form.Run(); err != nil {
		return creds, errors.WrapWithCode(err, errors.ErrAuth,
			"Login cancelled",
			"Run 'nexusctl login' to try again")
	}
	return creds, nil
}

func requireField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// login exchanges credentials for a token and persists it. A rejected login
// leaves any existing session untouched.
func login(ctx context.Context, rt *cmdEnv, creds credentials, w io.Writer) error {
	resp, err := rt.client.Login(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		return err
	}
	if err := rt.guard.Establish(resp.AccessToken); err != nil {
		return err
	}

	who := creds.Email
	if resp.UserName != "" {
		who = resp.UserName
	}
	if resp.Role != "" {
		who += " (" + resp.Role + ")"
	}
	if !machineMode {
		ui.PrintSuccess(w, "Signed in as "+who)
	}
	return nil
}
