package main

import (
	"fmt"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(open dbOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage project templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert or update the built-in project templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := services.NewTemplateService(db).Seed(ctx, catalog.BuiltinTemplates())
			if err != nil {
				return fmt.Errorf("seed templates: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d templates\n", n)
			return nil
		},
	})
	return cmd
}
