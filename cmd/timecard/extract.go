package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mellaniegambe/timecard/internal/config"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/workspace"
)

var (
	extractSave bool
	extractView string
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract data from time card images, one at a time",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "save each successful result to the backend")
	extractCmd.Flags().StringVar(&extractView, "view", "ui", "result view: ui or json")
}

func runExtract(cmd *cobra.Command, args []string) error {
	mode, err := workspace.ParseViewMode(extractView)
	if err != nil {
		return err
	}

	uploads := make([]model.Upload, 0, len(args))
	for _, path := range args {
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		uploads = append(uploads, model.Upload{Name: filepath.Base(path), Body: body})
	}
	b, err := workspace.NewBatch("cli", uploads)
	if err != nil {
		return err
	}

	parts := config.PartExtractor
	if extractSave {
		parts |= config.PartBackend
	}
	a, err := build(cfg, parts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	colorYellow.Printf("Extracting %d file(s)...\n", b.Len())
	if err := b.Extract(ctx, a.pipeline, extractSave); err != nil {
		return err
	}

	snap := b.Snapshot(false)
	failed := 0
	for _, f := range snap.Files {
		if err := b.SetViewMode(f.Index, mode); err != nil {
			return err
		}
		text, err := b.Render(f.Index)
		if err != nil {
			return err
		}

		fmt.Println()
		switch f.Status {
		case workspace.StatusDone:
			colorGreen.Printf("[%d] %s: Done\n", f.Index+1, f.Name)
		default:
			failed++
			colorRed.Printf("[%d] %s: Failed\n", f.Index+1, f.Name)
		}
		if f.Result != nil && f.Result.Saved() {
			colorCyan.Printf("saved as %s (%s)\n", f.Result.RecordID, f.Result.ImageURL)
		}
		fmt.Println(text)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(snap.Files))
	}
	return nil
}
