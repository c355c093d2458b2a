package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpggio/photobook/internal/app"
	"github.com/rpggio/photobook/internal/archive"
	"github.com/rpggio/photobook/internal/config"
	"github.com/rpggio/photobook/internal/notify"
	"github.com/rpggio/photobook/internal/transport"
)

func newServeCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long:  "Start the photobook MCP server over stdio or streamable HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.Transport.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&mode, "transport", "", "Transport mode: stdio or http (overrides config)")
	return cmd
}

func serve(cfg config.Config) error {
	logger, closeLog := newLogger(cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	opts := app.Options{Logger: logger}

	if cfg.Redis.Addr != "" {
		publisher, err := notify.NewRedisPublisher(ctx, notify.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		}, logger)
		if err != nil {
			// Autosave still works without events.
			logger.Warn("autosave events disabled", "error", err)
		} else {
			defer publisher.Close()
			opts.Publisher = publisher
		}
	}

	if cfg.Archive.Bucket != "" {
		archiver, err := archive.NewS3Archiver(ctx, archive.Options{
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Prefix:    cfg.Archive.Prefix,
		}, logger)
		if err != nil {
			logger.Error("failed to configure snapshot archive", "error", err)
			return err
		}
		opts.Archiver = archiver
	}

	a := app.New(db, cfg, opts)
	defer a.Close()

	go func() {
		if err := a.Scheduler.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("autosave sweeper stopped", "error", err)
		}
	}()

	mcpServer := a.MCPServer(version)

	switch cfg.Transport.Mode {
	case "stdio":
		err = transport.RunStdio(ctx, logger, mcpServer)
	case "http":
		logger.Info("starting http transport", "auth", cfg.Auth.Enabled)
		err = transport.RunHTTP(ctx, logger, transport.NewRouter(mcpServer, 0), cfg.Server.Host, cfg.Server.Port)
	default:
		err = fmt.Errorf("unknown transport mode %q", cfg.Transport.Mode)
	}
	if err != nil {
		logger.Error("server error", "error", err)
	}
	return err
}

// newLogger writes to stderr in stdio mode so stdout stays clean for
// JSON-RPC, or to cfg.Log.Path when set.
func newLogger(cfg config.Config) (*slog.Logger, func()) {
	writer := os.Stdout
	if cfg.Transport.Mode == "stdio" {
		writer = os.Stderr
	}
	closeFn := func() {}
	handlerOpts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Log.Level)}

	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			return slog.New(slog.NewTextHandler(fileWriter, handlerOpts)), func() { _ = fileWriter.Close() }
		}
	}
	return slog.New(slog.NewTextHandler(writer, handlerOpts)), closeFn
}
