package cli

import (
	"github.com/spf13/cobra"

	"milepost-cli/internal/taxonomy"
)

func taxonomyKind(name string) taxonomy.Kind {
	switch name {
	case "categories":
		return taxonomy.KindCategory
	case "statuses":
		return taxonomy.KindStatus
	default:
		return taxonomy.KindFrom
	}
}

// newTaxonomyCmd builds the shared list/add/remove/sync tree for one of
// the three vocabularies.
func newTaxonomyCmd(app *App, name, short string) *cobra.Command {
	kind := taxonomyKind(name)

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			entries, err := taxonomy.List(cmd.Context(), d.Cache, kind)
			if err != nil {
				return writeErr(cmd, err)
			}
			if entries == nil {
				entries = []string{}
			}
			return writeOut(cmd, app, map[string]any{"data": entries})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <value>",
		Short: "Add an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			if err := taxonomy.Add(cmd.Context(), d.Cache, kind, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"added": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <value>",
		Short: "Remove an entry (refused while tasks still use it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			if err := taxonomy.Remove(cmd.Context(), d.Cache, d.API, kind, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"removed": args[0]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Merge in the values the server has seen",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, cleanup, err := loadDeps(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer cleanup()

			var values []string
			switch kind {
			case taxonomy.KindCategory:
				values, err = d.API.DistinctCategories(cmd.Context())
			case taxonomy.KindStatus:
				values, err = d.API.DistinctStatuses(cmd.Context())
			default:
				values, err = d.API.DistinctFroms(cmd.Context())
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := taxonomy.Merge(cmd.Context(), d.Cache, kind, values); err != nil {
				return writeErr(cmd, err)
			}
			entries, err := taxonomy.List(cmd.Context(), d.Cache, kind)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": entries})
		},
	})

	return cmd
}
