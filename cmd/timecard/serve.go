package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mellaniegambe/timecard/internal/config"
	"github.com/mellaniegambe/timecard/internal/server"
	"github.com/mellaniegambe/timecard/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := build(cfg, config.PartAll)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.pipeline, workspace.NewManager(cfg.Server.MaxBatches), server.Options{
		Mode:           cfg.Server.Mode,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AutoSave:       cfg.Server.AutoSave,
		ImagesDir:      a.imagesDir,
	})

	slog.Info("timecard: starting",
		"addr", cfg.Server.Addr,
		"extractor", cfg.Extractor.Provider,
		"backend", cfg.Backend.Kind,
		"version", rootCmd.Version,
	)
	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout)
}
