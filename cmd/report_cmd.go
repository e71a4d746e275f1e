package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baseguide/baseguide/internal/analysis"
	"github.com/baseguide/baseguide/internal/guidance"
	"github.com/baseguide/baseguide/internal/schema"
	"github.com/baseguide/baseguide/internal/service"
)

var (
	reportSchema string
	reportGuide  string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a duplication guide from a stored schema",
	Long: `Render a markdown duplication guide offline, from a schema YAML file
previously written by "baseguide fetch" and an optional guide file. No
network access is required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		base, err := schema.LoadYAML(reportSchema)
		if err != nil {
			return fmt.Errorf("loading schema: %w", err)
		}

		var guide *guidance.Guide
		if reportGuide != "" {
			guide, err = guidance.LoadFile(reportGuide)
			if err != nil {
				return fmt.Errorf("loading guide: %w", err)
			}
		}

		a := analysis.New(logger).Analyze(base)

		svc := service.New(cfg, nil, nil, logger)
		result, err := svc.Render(base, a, guide, reportOutput)
		if err != nil {
			return err
		}

		fmt.Printf("Report written to %s\n", result.ReportPath)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportSchema, "schema", "s", "", "schema YAML file written by fetch (required)")
	reportCmd.Flags().StringVar(&reportGuide, "guide", "", "guide file (YAML or JSON) with narrative content")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output path for the markdown report")
	reportCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(reportCmd)
}
