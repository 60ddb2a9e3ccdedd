package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"conduit/internal/logger"
	"conduit/internal/repository/db"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the configured database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}

			ctx := cmd.Context()

			// Migrations run explicitly below, not as a side effect of connecting.
			dbCfg := cfg.DB
			dbCfg.AutoMigrate = false

			cmd.Println("Connecting to database...")
			conn, err := db.InitDB(ctx, dbCfg, logger.New(cfg.Log.Level))
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("driver", dbCfg.Driver).Wrap(err)
			}
			defer conn.Close()

			cmd.Println("Running migrations...")
			if err := db.Migrate(ctx, conn); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}

			version, err := db.MigrationVersion(ctx, conn)
			if err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
			}
			cmd.Printf("Migrations completed successfully (version %d)\n", version)
			return nil
		},
	}
}
