package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlekbai/expansion_explorer/internal/config"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "explorer",
	Short: "Expansion test record explorer",
	Long: `Serves filtered queries over the CANMET exposure-site and laboratory
expansion records: log in with database credentials, pick values for each
filter category, and fetch or plot the matching readings.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding explorer.yaml")
}

func loadConfig() (*config.Config, error) {
	return config.LoadFrom(configDir)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
