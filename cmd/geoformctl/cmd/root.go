package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformctl/cmd/accounts"
	"github.com/terraconstructs/geoform/cmd/geoformctl/cmd/auth"
	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/client"
	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/config"
	"github.com/terraconstructs/geoform/cmd/geoformctl/internal/credstore"
)

var (
	serverURL      string
	credentialsDir string
	nonInteractive bool
)

var rootCmd = &cobra.Command{
	Use:   "geoformctl",
	Short: "Geoform CLI - account and authentication client",
	Long: `geoformctl is the command-line interface for the geoform API.
Use it to sign up, log in and look up accounts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for GEOFORM_NON_INTERACTIVE environment variable
		if os.Getenv("GEOFORM_NON_INTERACTIVE") == "1" {
			nonInteractive = true
		}
		if nonInteractive {
			pterm.DisableStyling()
		}

		dir := credentialsDir
		if dir == "" {
			var err error
			if dir, err = credstore.DefaultDir(); err != nil {
				return err
			}
		}
		store, err := credstore.NewFileStore(dir)
		if err != nil {
			return fmt.Errorf("failed to create credential store: %w", err)
		}

		provider := client.NewProvider(serverURL, store)
		if token := os.Getenv("GEOFORM_TOKEN"); token != "" {
			provider.SetBearerToken(token)
		}

		cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
			ServerURL:      serverURL,
			NonInteractive: nonInteractive,
			ClientProvider: provider,
		}))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Geoform API server URL")
	rootCmd.PersistentFlags().StringVar(&credentialsDir, "credentials-dir", "", "Directory holding credentials.json (default ~/.geoform)")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable interactive output (also set via GEOFORM_NON_INTERACTIVE=1)")
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(accounts.AccountsCmd)
}
