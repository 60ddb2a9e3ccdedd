package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"conduit/internal/config"
)

// NewRootCmd creates the root command. Subcommands share one viper instance
// so flags bound by a subcommand override the config file and environment.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "conduit",
		Short: "Conduit - a social blogging API",
		Long: `Conduit serves the RealWorld blogging API: users, profiles,
articles, comments and tags, authenticated with "Token <jwt>" headers.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default configs/config.yml)")

	load := func() (*config.Config, error) {
		return config.Load(v, configFile)
	}

	// Add subcommands
	cmd.AddCommand(NewServeCmd(v, load))
	cmd.AddCommand(NewMigrateCmd(load))

	return cmd
}
