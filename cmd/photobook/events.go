package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/domain/autosave"
	"github.com/rpggio/photobook/internal/notify"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow autosave events published to Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis.addr is not configured")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			follower, err := notify.NewRedisPublisher(ctx, notify.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				Channel:  cfg.Redis.Channel,
			}, nil)
			if err != nil {
				return err
			}
			defer follower.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "following %s\n", follower.Channel())
			err = follower.Follow(ctx, func(evt autosave.Event) {
				line := fmt.Sprintf("%s %s project=%s user=%s", evt.At.Format("15:04:05"), evt.Type, evt.ProjectID, evt.UserID)
				if evt.Version > 0 {
					line += fmt.Sprintf(" version=%d", evt.Version)
				}
				if evt.Error != "" {
					line += " error=" + evt.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			})
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
