package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumethik/tablero/internal/app"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "tablero",
	Short: "Tablero - gated KPI dashboard",
	Long: `Tablero serves the directions dashboard behind a single login gate,
refreshes its remote data sources in the background and exports
the direction pages as CSV, PNG or PDF.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads the environment and applies the --debug flag.
func loadConfig() (*app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.AppDebug = true
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
