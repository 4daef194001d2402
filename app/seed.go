package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/RefractoryERP/RefractoryERP/internal/daemon"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate and fill the database with permissions, the admin role and the admin account",
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

		state, err := daemon.Seed(&cfg, db)
		if err != nil {
			return err //nolint:wrapcheck
		}

		log.Info().Int("version", state.Version).Str("admin", state.Admin).Msg("database seeded")

		return nil
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(seedCmd)
}
