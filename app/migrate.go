package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RefractoryERP/RefractoryERP/internal/daemon"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return load(false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := daemon.Open(&cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if err = daemon.Migrate(db); err != nil {
			return err //nolint:wrapcheck
		}

		log.Info().Str("engine", cfg.DB.GormEngine).Msg("database migrated")

		return nil
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd)
}
