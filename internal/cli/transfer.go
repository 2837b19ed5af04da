package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"milepost-cli/internal/transfer"
)

func newExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks, milestones and taxonomies to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			doc, err := transfer.Export(cmd.Context(), d)
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == "" || out == "-" {
				return writeOut(cmd, app, doc)
			}
			b, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := os.WriteFile(out, append(b, '\n'), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"exported": len(doc.Tasks), "file": out})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			b, err := os.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			var doc transfer.Document
			if err := json.Unmarshal(b, &doc); err != nil {
				return writeErr(cmd, err)
			}

			res := transfer.Import(cmd.Context(), d, doc)
			failures := make([]map[string]string, 0, len(res.Failed))
			for _, f := range res.Failed {
				failures = append(failures, map[string]string{"kind": f.Kind, "id": f.ID, "error": f.Err.Error()})
			}
			return writeOut(cmd, app, map[string]any{"imported": res.Imported, "failed": failures})
		},
	}
	return cmd
}
