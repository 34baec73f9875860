package main

import (
	"github.com/spf13/cobra"

	"github.com/neomorfeo/curator/internal/app"
)

func newTypesCommand(ctx *commandContext) *cobra.Command {
	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "Inspect playlist types",
	}

	typesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List playlist types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			db, store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			types, err := app.NewPlaylistRegistry(store).ListTypes(cmd.Context())
			if err != nil {
				return err
			}

			writeTypes(cmd.OutOrStdout(), types)
			return nil
		},
	})

	return typesCmd
}
