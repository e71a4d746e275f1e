// Package service coordinates schema retrieval, analysis, guidance
// generation, and report rendering into one pipeline shared by the CLI
// commands.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baseguide/baseguide/internal/analysis"
	"github.com/baseguide/baseguide/internal/config"
	"github.com/baseguide/baseguide/internal/guidance"
	"github.com/baseguide/baseguide/internal/metrics"
	"github.com/baseguide/baseguide/internal/report"
	"github.com/baseguide/baseguide/internal/schema"
)

// SchemaFetcher retrieves a base schema from the metadata API.
type SchemaFetcher interface {
	FetchBaseSchema(ctx context.Context, baseID string) (*schema.BaseSchema, error)
}

// Service runs the analysis pipeline end to end.
type Service struct {
	Config    *config.Config
	Fetcher   SchemaFetcher
	Analyzer  *analysis.Analyzer
	Generator guidance.Generator
	Builder   *report.Builder
	Logger    *slog.Logger
}

// New creates a service. Generator may be nil, in which case reports are
// rendered without narrative guidance.
func New(cfg *config.Config, fetcher SchemaFetcher, generator guidance.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Config:    cfg,
		Fetcher:   fetcher,
		Analyzer:  analysis.New(logger),
		Generator: generator,
		Builder:   report.NewBuilder(logger),
		Logger:    logger,
	}
}

// Result is the output of one full pipeline run.
type Result struct {
	Schema   *schema.BaseSchema
	Analysis *analysis.SchemaAnalysis
	Metrics  *metrics.Metrics
	Guide    *guidance.Guide
	Report   string
	// ReportPath is where the report was written.
	ReportPath string
}

// FetchSchema retrieves the configured base's schema.
func (s *Service) FetchSchema(ctx context.Context) (*schema.BaseSchema, error) {
	baseID := s.Config.Airtable.BaseID
	s.Logger.Info("fetching base schema", "base_id", baseID)
	base, err := s.Fetcher.FetchBaseSchema(ctx, baseID)
	if err != nil {
		return nil, fmt.Errorf("fetching base schema: %w", err)
	}
	return base, nil
}

// Analyze fetches the schema and runs the full analysis over it.
func (s *Service) Analyze(ctx context.Context) (*schema.BaseSchema, *analysis.SchemaAnalysis, error) {
	base, err := s.FetchSchema(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.Logger.Info("analyzing schema", "base", base.Name, "tables", len(base.Tables))
	return base, s.Analyzer.Analyze(base), nil
}

// GenerateReport runs the whole pipeline and writes the rendered report.
// An empty outputPath selects a timestamped file under the configured
// report directory.
func (s *Service) GenerateReport(ctx context.Context, outputPath string) (*Result, error) {
	base, a, err := s.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	guide, err := s.generateGuide(ctx, a)
	if err != nil {
		return nil, err
	}

	return s.Render(base, a, guide, outputPath)
}

// Render computes metrics, builds the markdown document, and saves it.
// It is the offline half of the pipeline: callers with a stored schema
// analysis can skip retrieval and guidance generation entirely.
func (s *Service) Render(base *schema.BaseSchema, a *analysis.SchemaAnalysis, guide *guidance.Guide, outputPath string) (*Result, error) {
	m := metrics.Compute(a)

	doc, err := s.Builder.Build(a, m, guide)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		outputPath = report.DefaultPath(s.Config.Output.ReportDir, a.BaseName)
	}
	if err := report.Save(doc, outputPath); err != nil {
		return nil, err
	}
	s.Logger.Info("report written", "path", outputPath)

	return &Result{
		Schema:     base,
		Analysis:   a,
		Metrics:    m,
		Guide:      guide,
		Report:     doc,
		ReportPath: outputPath,
	}, nil
}

func (s *Service) generateGuide(ctx context.Context, a *analysis.SchemaAnalysis) (*guidance.Guide, error) {
	if s.Generator == nil {
		s.Logger.Warn("no guidance generator configured, rendering structural report only")
		return nil, nil
	}
	s.Logger.Info("generating duplication guidance")
	guide, err := s.Generator.Generate(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("generating guidance: %w", err)
	}
	return guide, nil
}
