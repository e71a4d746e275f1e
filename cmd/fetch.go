package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/baseguide/baseguide/internal/airtable"
	"github.com/baseguide/baseguide/internal/config"
)

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Retrieve the base schema and store it as YAML",
	Long: `Retrieve the configured base's schema (tables, fields, views) through
the Airtable Metadata API and write it to a YAML file for later offline
analysis with "baseguide report".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		client := airtable.NewClient(
			cfg.Airtable.AccessToken,
			cfg.Airtable.RequestTimeout(),
			cfg.Airtable.MaxRetryAttempts,
			cfg.Airtable.InitialBackoff(),
			logger,
		)

		fmt.Printf("Fetching schema for base %s...\n", cfg.Airtable.BaseID)
		base, err := client.FetchBaseSchema(context.Background(), cfg.Airtable.BaseID)
		if err != nil {
			return fmt.Errorf("fetching base schema: %w", err)
		}

		fmt.Println(base.Summary())

		outputPath := fetchOutput
		if outputPath == "" {
			timestamp := time.Now().Format("2006-01-02_15-04-05")
			outputPath = filepath.Join(
				config.ExpandHome(cfg.Output.SchemaDir),
				fmt.Sprintf("%s_%s.yaml", base.ID, timestamp),
			)
		}

		if err := base.WriteYAML(outputPath); err != nil {
			return fmt.Errorf("writing schema: %w", err)
		}
		fmt.Printf("Schema written to %s\n", outputPath)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "output path for the schema YAML")
	rootCmd.AddCommand(fetchCmd)
}
