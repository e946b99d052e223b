package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Zachkp/devops-journey/internal/content"
)

//nolint:gochecknoglobals // Cobra boilerplate
var contentFile string

//nolint:gochecknoglobals // Cobra boilerplate
var contentFormat string

//nolint:gochecknoglobals // Cobra boilerplate
var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Validate and print the content catalog",
	Long: `Load the content catalog, validate it and print it.

Without --file the built-in catalog is used, which makes a good starting
point for an override file.

Example:
  devops-journey content --format yaml > content.yaml
  devops-journey content --file content.yaml --format summary`,
	RunE: runContent,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(contentCmd)
	contentCmd.Flags().StringVar(&contentFile, "file", "", "Catalog override file (default is the built-in catalog)")
	contentCmd.Flags().StringVar(&contentFormat, "format", "summary", "Output format: summary, json or yaml")
}

func runContent(cmd *cobra.Command, args []string) (err error) {
	var cat *content.Catalog
	cat, err = content.Load(contentFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch contentFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(cat)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err = enc.Encode(cat)
		if err == nil {
			err = enc.Close()
		}
	case "summary":
		fmt.Fprintf(out, "catalog OK\n")
		fmt.Fprintf(out, "  containers: %d\n", len(cat.Containers))
		fmt.Fprintf(out, "  projects:   %d\n", len(cat.Projects))
		fmt.Fprintf(out, "  clouds:     %d\n", len(cat.Clouds.AWS)+len(cat.Clouds.Other))
		fmt.Fprintf(out, "  metrics:    %d\n", len(cat.Gauges))
		fmt.Fprintf(out, "  alerts:     %d\n", len(cat.Alerts))
		fmt.Fprintf(out, "  milestones: %d\n", len(cat.Milestones))
	default:
		err = errors.Errorf("unknown format %q", contentFormat)
	}

	return err
}
