package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the selectable completion models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParsePurpose(purpose)
			if err != nil {
				return err
			}

			cat := catalog.Builtin()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCONTEXT\tJSON\tDEFAULT")
			for _, m := range cat.ForPurpose(p) {
				def := ""
				if m.ID == cat.Default() {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n", m.ID, m.Name, m.ContextWindowTokens, m.SupportsJSON, def)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&purpose, "purpose", "chat", "chat or code")
	return cmd
}
