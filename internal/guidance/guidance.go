// Package guidance defines the narrative guide that accompanies a schema
// analysis in the rendered report, plus the sources that produce one: a
// Gemini-backed generator and a local file loader for offline runs.
package guidance

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/baseguide/baseguide/internal/analysis"
)

// Guide is externally supplied narrative guidance. The renderer consumes
// it read-only and must tolerate any part being absent.
type Guide struct {
	BaseOverview          string        `json:"base_overview" yaml:"base_overview"`
	KeyConsiderations     []string      `json:"key_considerations,omitempty" yaml:"key_considerations,omitempty"`
	TableDetails          []TableDetail `json:"table_details,omitempty" yaml:"table_details,omitempty"`
	Relationships         []string      `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	DuplicationSteps      []Step        `json:"duplication_steps,omitempty" yaml:"duplication_steps,omitempty"`
	PostDuplicationChecks []string      `json:"post_duplication_checks,omitempty" yaml:"post_duplication_checks,omitempty"`
}

// TableDetail is per-table narrative keyed by table name.
type TableDetail struct {
	TableName         string   `json:"table_name" yaml:"table_name"`
	Summary           string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	FieldInstructions []string `json:"field_instructions,omitempty" yaml:"field_instructions,omitempty"`
	ViewInstructions  []string `json:"view_instructions,omitempty" yaml:"view_instructions,omitempty"`
	SequencingNotes   []string `json:"sequencing_notes,omitempty" yaml:"sequencing_notes,omitempty"`
}

// Step is one ordered duplication step.
type Step struct {
	Order         int      `json:"order" yaml:"order"`
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

// Generator produces a guide for a schema analysis.
type Generator interface {
	Generate(ctx context.Context, a *analysis.SchemaAnalysis) (*Guide, error)
}

// TableDetail returns the detail for the named table, or nil. Lookups
// that miss are normal: the schema and the guide may disagree on tables.
func (g *Guide) TableDetail(name string) *TableDetail {
	for i := range g.TableDetails {
		if g.TableDetails[i].TableName == name {
			return &g.TableDetails[i]
		}
	}
	return nil
}

// LoadFile reads a guide from a YAML or JSON file, chosen by extension.
func LoadFile(path string) (*Guide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guide file: %w", err)
	}

	g := &Guide{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, g); err != nil {
			return nil, fmt.Errorf("parsing guide: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, g); err != nil {
			return nil, fmt.Errorf("parsing guide: %w", err)
		}
	}
	return g, nil
}

// FileSource is a Generator backed by a guide file on disk, used for
// offline report rendering.
type FileSource struct {
	Path string
}

func (f FileSource) Generate(_ context.Context, _ *analysis.SchemaAnalysis) (*Guide, error) {
	return LoadFile(f.Path)
}

// Static wraps a fixed guide as a Generator. An empty Static renders a
// schema-only report.
type Static struct {
	Guide *Guide
}

func (s Static) Generate(_ context.Context, _ *analysis.SchemaAnalysis) (*Guide, error) {
	if s.Guide == nil {
		return &Guide{}, nil
	}
	return s.Guide, nil
}
