package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mellaniegambe/timecard/internal/config"
	"github.com/mellaniegambe/timecard/internal/logging"
)

var (
	configPath string
	logLevel   string
	noColor    bool

	cfg config.Config

	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorFaint  = color.New(color.Faint)
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "timecard",
	Short: "Extract attendance data from time card images",
	Long: `timecard sends photos of paper time cards to an AI extraction service,
shows the employee information, attendance rows and total hours it finds,
and saves each image with its extracted JSON to a storage backend.

Examples:
  # serve the HTTP API
  timecard serve

  # extract two cards and save the results
  timecard extract card1.jpg card2.png --save

  # browse saved results
  timecard history --limit 10
  timecard show 42 --view json`,
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./timecard.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd, extractCmd, historyCmd, showCmd)
}
