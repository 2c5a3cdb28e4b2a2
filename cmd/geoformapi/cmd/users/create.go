package users

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformapi/cmd/cmdutil"
	"github.com/terraconstructs/geoform/internal/logging"
	"github.com/terraconstructs/geoform/internal/repository"
	"github.com/terraconstructs/geoform/internal/server"
	"github.com/terraconstructs/geoform/internal/validate"
)

var (
	usernameFlag string
	passwordFlag string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := cmdutil.RuntimeFrom(cmd.Context())
		if err != nil {
			return err
		}

		password := passwordFlag
		if stdinFlag {
			// Read password from stdin
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		// Same rules as the sign-up endpoint
		creds := server.Credentials{Username: usernameFlag, Password: password}
		if errs := validate.Check(creds); errs != nil {
			return fmt.Errorf("invalid account: %w", errs)
		}

		bundle, err := cmdutil.NewAccountBundle(rt.Config, logging.Component(rt.Logger, "db"))
		if err != nil {
			return err
		}
		defer bundle.Close()

		account, err := bundle.Service.SignUp(cmd.Context(), creds.Username, creds.Password)
		if err != nil {
			if errors.Is(err, repository.ErrUsernameTaken) {
				return fmt.Errorf("account with username %q already exists", creds.Username)
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Account created successfully!")
		fmt.Fprintln(out, "----------------------------------------")
		fmt.Fprintf(out, "Account ID: %s\n", account.ID)
		fmt.Fprintf(out, "Username: %s\n", account.Username)
		fmt.Fprintln(out, "----------------------------------------")
		return nil
	},
}
