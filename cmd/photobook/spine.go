package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/spine"
	"github.com/rpggio/photobook/internal/sqlite"
)

func newSpineCmd() *cobra.Command {
	var (
		paperID     string
		coverTypeID string
		pageCount   int
	)

	cmd := &cobra.Command{
		Use:   "spine",
		Short: "Calculate spine width for a paper, cover and page count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pageCount <= 0 {
				return fmt.Errorf("--pages must be positive")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			sizer := spine.NewSizer(catalog.NewService(sqlite.NewCatalogRepository(db), nil), nil)
			width, err := sizer.SpineWidth(context.Background(), paperID, coverTypeID, pageCount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f mm\n", width)
			return nil
		},
	}

	cmd.Flags().StringVar(&paperID, "paper", "", "Paper id")
	cmd.Flags().StringVar(&coverTypeID, "cover", "", "Cover type id")
	cmd.Flags().IntVar(&pageCount, "pages", 0, "Total page count")
	_ = cmd.MarkFlagRequired("paper")
	_ = cmd.MarkFlagRequired("cover")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}
