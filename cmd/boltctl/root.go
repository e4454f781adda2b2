package main

import (
	"context"

	"github.com/dimitrije/bolt-api/internal/config"
	"github.com/dimitrije/bolt-api/internal/database"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boltctl",
		Short:         "Operator tools for the bolt API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newExportCmd(openDatabase))
	root.AddCommand(newModelsCmd())
	root.AddCommand(newTemplatesCmd(openDatabase))
	return root
}

// dbOpener connects to the store. Commands take one so tests can run them
// without a database.
type dbOpener func(ctx context.Context) (*database.DB, error)

func openDatabase(ctx context.Context) (*database.DB, error) {
	url, err := config.LoadDatabaseURL()
	if err != nil {
		return nil, err
	}
	return database.New(ctx, url)
}
