package accounts

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/config"
	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/prompt"
	"github.com/terraconstructs/geoform/pkg/sdk"
)

var (
	createUsername string
	createPassword string
	createStdin    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Sign up a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())

		password, err := prompt.Password(cmd.InOrStdin(), cmd.ErrOrStderr(), createPassword, createStdin)
		if err != nil {
			return err
		}

		id, err := cfg.ClientProvider.PublicClient().SignUp(cmd.Context(), sdk.CredentialsInput{
			Username: createUsername,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("sign-up failed: %w", err)
		}

		pterm.Success.Printf("Account created: %s\n", id)
		return nil
	},
}
