package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/app"
	versionpkg "github.com/rpggio/photobook/internal/domain/version"
)

func newHistoryCmd() *cobra.Command {
	var (
		tenantID string
		userID   string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "history <project-id>",
		Short: "Show a project's version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if tenantID == "" {
				tenantID = cfg.Auth.DefaultTenant
			}
			if userID == "" {
				userID = cfg.Auth.DefaultUser
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			a := app.New(db, cfg, app.Options{})
			defer a.Close()

			history, err := a.Versions.GetHistory(context.Background(), tenantID, userID, args[0])
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, history)
			case "table":
				renderHistory(cmd, history)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id (default from config)")
	cmd.Flags().StringVar(&userID, "user", "", "Owner user id (default from config)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func renderHistory(cmd *cobra.Command, history []versionpkg.Record) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Version", "Created", "Name", "Pages", "Production", "Summary"})
	for _, rec := range history {
		production := ""
		if rec.IsProduction {
			production = "locked"
		}
		t.AppendRow(table.Row{
			rec.VersionNumber,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			rec.Snapshot.Project.Name,
			len(rec.Snapshot.Pages),
			production,
			rec.ChangesSummary,
		})
	}
	t.Render()
}
