package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var configDir string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "devops-journey",
	Short: "Serve the DevOps journey portfolio",
	Long: `devops-journey serves a single-page portfolio told as a voyage: a blue/green
landing, a container ship loading its cargo as you scroll, project islands,
a monitoring tower with a live (and entirely made up) dashboard, and a career
lighthouse.

Settings come from a .env file, an optional config.yaml and the environment.`,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory holding config.yaml (default is the working directory)")
}

func getConfigDir() (result string) {
	result = configDir
	return result
}
