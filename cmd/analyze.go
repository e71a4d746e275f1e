package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/baseguide/baseguide/internal/airtable"
	"github.com/baseguide/baseguide/internal/config"
	"github.com/baseguide/baseguide/internal/guidance"
	"github.com/baseguide/baseguide/internal/service"
	"github.com/baseguide/baseguide/internal/tui"
)

var (
	analyzeOutput string
	analyzeGuide  string
	analyzePlain  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline and write a duplication guide",
	Long: `Fetch the configured base's schema, analyze its relationship graph and
complexity, generate narrative guidance (Gemini when an API key is
configured, a local guide file with --guide, or none), and write the
rendered markdown report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		svc := newService(cfg, logger)

		run := func(ctx context.Context) (*service.Result, error) {
			return svc.GenerateReport(ctx, analyzeOutput)
		}

		var result *service.Result
		if analyzePlain {
			result, err = run(context.Background())
		} else {
			result, err = tui.RunPipeline(fmt.Sprintf("Analyzing base %s...", cfg.Airtable.BaseID), run)
		}
		if err != nil {
			return err
		}

		fmt.Println(tui.Summary(result))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "output path for the markdown report")
	analyzeCmd.Flags().StringVar(&analyzeGuide, "guide", "", "guide file (YAML or JSON) to use instead of Gemini")
	analyzeCmd.Flags().BoolVar(&analyzePlain, "plain", false, "disable the progress spinner")
	rootCmd.AddCommand(analyzeCmd)
}

// newService wires the pipeline from config: the metadata client plus
// whichever guidance source applies. Precedence: --guide file, then the
// configured Gemini key, then no guidance at all.
func newService(cfg *config.Config, logger *slog.Logger) *service.Service {
	fetcher := airtable.NewClient(
		cfg.Airtable.AccessToken,
		cfg.Airtable.RequestTimeout(),
		cfg.Airtable.MaxRetryAttempts,
		cfg.Airtable.InitialBackoff(),
		logger,
	)

	var generator guidance.Generator
	switch {
	case analyzeGuide != "":
		generator = guidance.FileSource{Path: analyzeGuide}
	case cfg.Gemini.APIKey != "":
		generator = guidance.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Airtable.RequestTimeout(), logger)
	}

	return service.New(cfg, fetcher, generator, logger)
}
