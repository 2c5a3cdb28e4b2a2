package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/geoform/cmd/geoformapi/cmd/cmdutil"
	"github.com/terraconstructs/geoform/cmd/geoformapi/cmd/users"
	"github.com/terraconstructs/geoform/internal/config"
	"github.com/terraconstructs/geoform/internal/logging"
)

var (
	configPath string
	vp         = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "geoformapi",
	Short: "Geoform API server",
	Long: `Geoform API server provides account management and bearer token
authentication over a JSON REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(vp, configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger, err := logging.New(cfg.Environment, cfg.LogLevel, os.Stderr)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		cmd.SetContext(cmdutil.WithRuntime(cmd.Context(), &cmdutil.Runtime{Config: cfg, Logger: logger}))
		return nil
	},
}

func init() {
	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a config file (toml, yaml or json)")
	flags.String("database-url", "", "Database connection URL (env: GEOFORM_DATABASE_URL)")
	flags.String("log-level", "", "Log level override (env: GEOFORM_LOG_LEVEL)")
	flags.String("environment", "", "development or production (env: GEOFORM_ENVIRONMENT)")

	_ = vp.BindPFlag("database.url", flags.Lookup("database-url"))
	_ = vp.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = vp.BindPFlag("environment", flags.Lookup("environment"))

	// Add subcommands
	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
