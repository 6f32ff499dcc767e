package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mellaniegambe/timecard/internal/config"
	"github.com/mellaniegambe/timecard/internal/model"
	"github.com/mellaniegambe/timecard/internal/output"
	"github.com/mellaniegambe/timecard/internal/pipeline"
	"github.com/mellaniegambe/timecard/internal/render"
	"github.com/mellaniegambe/timecard/internal/workspace"
)

var (
	historyLimit int
	historyView  string
	showView     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved results, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one saved result",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", pipeline.DefaultHistoryLimit, "maximum number of results, 0 for all")
	historyCmd.Flags().StringVar(&historyView, "view", "", "print each result in full: ui or json")
	showCmd.Flags().StringVar(&showView, "view", "ui", "result view: ui or json")
}

func runHistory(cmd *cobra.Command, args []string) error {
	var mode workspace.ViewMode
	if historyView != "" {
		var err error
		if mode, err = workspace.ParseViewMode(historyView); err != nil {
			return err
		}
	}

	a, err := build(cfg, config.PartBackend)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := historyLimit
	if limit == 0 {
		limit = pipeline.NoLimit
	}
	recs, err := a.pipeline.History(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		colorYellow.Println("No saved results.")
		return nil
	}
	if mode != "" {
		for _, rec := range recs {
			if err := printRecord(rec, mode); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tEMPLOYEE\tDAYS\tHOURS\tIMAGE")
	for _, rec := range recs {
		m := output.Format(rec, output.Standard)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			rec.ID,
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			orPlaceholder(m.Employee),
			m.Days,
			orPlaceholder(m.TotalHours),
			rec.ImageURL,
		)
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	mode, err := workspace.ParseViewMode(showView)
	if err != nil {
		return err
	}

	a, err := build(cfg, config.PartBackend)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.pipeline.Record(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printRecord(rec, mode)
}

func printRecord(rec model.Record, mode workspace.ViewMode) error {
	colorCyan.Printf("Result %s\n", rec.ID)
	image := rec.ImageURL
	if image == "" {
		image = render.NoImage
	}
	colorFaint.Printf("%s  %s\n\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), image)

	var (
		text string
		err  error
	)
	if mode == workspace.ViewJSON {
		text, err = render.RecordJSON(rec)
	} else {
		text, err = render.RecordUI(rec)
	}
	if err != nil {
		return err
	}
	fmt.Println(text)
	fmt.Println()
	return nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return render.Placeholder
	}
	return s
}
