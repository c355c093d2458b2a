package main

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/sqlite"
	"github.com/rpggio/photobook/internal/transport"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for the HTTP transport",
	}
	cmd.AddCommand(newAPIKeyCreateCmd())
	cmd.AddCommand(newAPIKeyListCmd())
	return cmd
}

func newAPIKeyCreateCmd() *cobra.Command {
	var (
		tenantID    string
		userID      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
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

			token, err := transport.GenerateToken()
			if err != nil {
				return err
			}
			err = sqlite.NewAPIKeyRepository(db).Create(context.Background(), &sqlite.APIKey{
				KeyHash:     transport.HashToken(token),
				TenantID:    tenantID,
				UserID:      userID,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&description, "description", "", "What the key is for")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newAPIKeyListCmd() *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's API keys",
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

			keys, err := sqlite.NewAPIKeyRepository(db).List(context.Background(), tenantID)
			if err != nil {
				return err
			}

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Key", "User", "Description", "Created", "Last used"})
			for _, k := range keys {
				lastUsed := "never"
				if k.LastUsed != nil {
					lastUsed = k.LastUsed.Format("2006-01-02 15:04")
				}
				t.AppendRow(table.Row{k.KeyHash[:12], k.UserID, k.Description, k.CreatedAt.Format("2006-01-02 15:04"), lastUsed})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant id")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
