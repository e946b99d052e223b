package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/devops-journey/internal/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application name and version",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var cfg *config.Config
		cfg, err = config.Load(getConfigDir())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.App.Name, cfg.App.Version)
		return err
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(versionCmd)
}
