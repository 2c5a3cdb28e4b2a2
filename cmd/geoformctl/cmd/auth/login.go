package auth

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/config"
	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/prompt"
	"github.com/terraconstructs/geoform/pkg/sdk"
)

var (
	usernameFlag string
	passwordFlag string
	stdinFlag    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a bearer token",
	Long: `Signs in with a username and password and stores the issued bearer
token in the credential store for later commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		if usernameFlag == "" {
			return fmt.Errorf("--username flag is required")
		}
		password, err := prompt.Password(cmd.InOrStdin(), cmd.ErrOrStderr(), passwordFlag, stdinFlag)
		if err != nil {
			return err
		}

		creds, err := cfg.ClientProvider.PublicClient().SignIn(cmd.Context(), sdk.CredentialsInput{
			Username: usernameFlag,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		if err := cfg.ClientProvider.Store().SaveCredentials(creds); err != nil {
			return fmt.Errorf("failed to save credentials: %w", err)
		}

		pterm.Success.Printf("Logged in as %s\n", creds.Username)
		pterm.Info.Printf("Token expires at: %s\n", creds.ExpiresAt.Format(time.RFC1123))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&usernameFlag, "username", "", "Account username (email)")
	loginCmd.Flags().StringVar(&passwordFlag, "password", "", "Account password (use --stdin to avoid shell history)")
	loginCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")
}
