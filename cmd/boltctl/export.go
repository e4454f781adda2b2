package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dimitrije/bolt-api/internal/events"
	"github.com/dimitrije/bolt-api/internal/export"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newExportCmd(open dbOpener) *cobra.Command {
	var (
		formatFlag string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export <workspace-id>",
		Short: "Write a workspace's files as a ZIP archive or a text listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid workspace id: %w", err)
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			workspaces := services.NewWorkspaceService(db, events.NewLocalBus())
			ws, err := workspaces.GetByID(ctx, workspaceID)
			if err != nil {
				return err
			}

			if output == "" {
				output = export.Filename(ws.Messages, format)
			}
			if output == "-" {
				_, err := writeExport(cmd.OutOrStdout(), ws, format)
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			n, err := writeExport(f, ws, format)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d files to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", export.FormatZip, "export format: zip or text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default derived from the first message)")
	return cmd
}

// writeExport renders the workspace files and returns how many were written.
func writeExport(w io.Writer, ws *models.Workspace, format string) (int, error) {
	if format == export.FormatText {
		_, err := io.WriteString(w, export.Text(ws.Files))
		return len(ws.Files.Leaves()), err
	}
	return export.WriteZip(w, ws.Files)
}
