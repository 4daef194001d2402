package app

import (
	"github.com/spf13/cobra"

	"github.com/RefractoryERP/RefractoryERP/internal/daemon"
)

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the RefractoryERP web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return load(devMode)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := daemon.New(&cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			return d.Start(cmd.Context())
		},
	}
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}
