package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/okian/touchdown/internal/adapters/repository/postgres"
	"github.com/okian/touchdown/internal/config"
	"github.com/okian/touchdown/pkg/logger"
)

func migrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(migrateUpCmd(flags), migrateDownCmd(flags), migrateVersionCmd(flags))
	return cmd
}

// postgresDSN loads configuration and returns the required DSN.
func postgresDSN(cmd *cobra.Command, flags *rootFlags) (string, error) {
	cfg, err := loadConfig(cmd.Context(), flags)
	if err != nil {
		return "", err
	}
	if cfg.PostgresDSN == "" {
		return "", errors.Wrap(config.ErrInvalidConfig, "postgres_dsn is required")
	}
	return cfg.PostgresDSN, nil
}

func migrateUpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := postgresDSN(cmd, flags)
			if err != nil {
				return err
			}
			files, err := postgres.MigrationFiles()
			if err != nil {
				return err
			}
			logger.Get().Info(cmd.Context(), "applying migrations", logger.Int("files", len(files)))
			return postgres.MigrateUp(dsn)
		},
	}
}

func migrateDownCmd(flags *rootFlags) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := postgresDSN(cmd, flags)
			if err != nil {
				return err
			}
			return postgres.MigrateDown(dsn, steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func migrateVersionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn, err := postgresDSN(cmd, flags)
			if err != nil {
				return err
			}
			v, dirty, err := postgres.Version(dsn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty %t\n", v, dirty)
			return err
		},
	}
}
