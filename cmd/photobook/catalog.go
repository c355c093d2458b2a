package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/sqlite"
)

func newCatalogCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List formats, papers and cover types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			listing, err := catalog.NewService(sqlite.NewCatalogRepository(db), nil).List(context.Background())
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, listing)
			case "table":
				renderCatalog(cmd, listing)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func renderCatalog(cmd *cobra.Command, listing *catalog.Listing) {
	formats := newTable(cmd)
	formats.SetTitle("Formats")
	formats.AppendHeader(table.Row{"ID", "Name", "Trim (mm)", "Bleed", "Pages"})
	for _, f := range listing.Formats {
		formats.AppendRow(table.Row{
			f.ID,
			f.Name,
			fmt.Sprintf("%gx%g", f.WidthMM, f.HeightMM),
			f.BleedMM,
			fmt.Sprintf("%d-%d", f.MinPages, f.MaxPages),
		})
	}
	formats.Render()

	papers := newTable(cmd)
	papers.SetTitle("Papers")
	papers.AppendHeader(table.Row{"ID", "Name", "Thickness (mm)"})
	for _, p := range listing.Papers {
		papers.AppendRow(table.Row{p.ID, p.Name, p.ThicknessMM})
	}
	papers.Render()

	covers := newTable(cmd)
	covers.SetTitle("Cover types")
	covers.AppendHeader(table.Row{"ID", "Name", "Binding tolerance (mm)"})
	for _, c := range listing.CoverTypes {
		covers.AppendRow(table.Row{c.ID, c.Name, c.BindingToleranceMM})
	}
	covers.Render()
}
