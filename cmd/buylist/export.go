package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format        string
		includeBought bool
		output        string
		dir           string
		force         bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the selected list as CSV or JSON",
		Long: `Without --include-bought only cards still to buy are exported, in list
order. With it, bought cards follow in purchase order.
Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			st, err := a.openStack(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			if output == "-" {
				_, err := st.svc.Export(cmd.OutOrStdout(), f, includeBought)
				return err
			}

			name, rows := st.svc.ExportRows(includeBought)
			path := output
			if path == "" {
				path = filepath.Join(dir, export.Filename(name, includeBought, f))
			}

			if err := export.WriteFile(export.Options{
				Format:     f,
				FilePath:   path,
				PrettyJSON: true,
				Overwrite:  force,
			}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cards to %s\n", len(rows), path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", string(export.FormatCSV), "csv or json")
	flags.BoolVarP(&includeBought, "include-bought", "a", false, "include bought cards")
	flags.StringVarP(&output, "output", "o", "", "output file (default <list>_<all|unbought>.<format>)")
	flags.StringVar(&dir, "dir", ".", "directory for the default file name")
	flags.BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
