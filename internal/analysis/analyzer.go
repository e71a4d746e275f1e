package analysis

import (
	"errors"
	"log/slog"

	"github.com/baseguide/baseguide/internal/schema"
)

// Analyzer turns a raw base schema into a SchemaAnalysis.
type Analyzer struct {
	logger *slog.Logger
}

// New creates an Analyzer. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Analyze builds the complete analysis artifact for one base: normalized
// per-table summaries, the full relationship edge list, and the suggested
// table creation order. A cyclic dependency graph is expected input, not
// an error; it is logged and the alphabetical fallback order is used.
func (a *Analyzer) Analyze(base *schema.BaseSchema) *SchemaAnalysis {
	tableNames := base.TableNames()
	dependencies := make(map[string]map[string]struct{}, len(base.Tables))

	var tables []TableSummary
	var relationships []Edge

	for _, table := range base.Tables {
		result := processTable(table, tableNames)
		relationships = append(relationships, result.edges...)
		dependencies[table.ID] = result.dependencies

		var views []ViewSummary
		for _, view := range table.Views {
			views = append(views, ViewSummary{
				ID:            view.ID,
				Name:          view.Name,
				Type:          view.Type,
				Description:   view.Description,
				VisibleFields: view.VisibleFieldIDs(),
				Filters:       view.Filters,
				Sorts:         view.Sorts,
				Groups:        view.Groups,
			})
		}

		tables = append(tables, TableSummary{
			ID:             table.ID,
			Name:           table.Name,
			Description:    table.Description,
			PrimaryFieldID: table.PrimaryFieldID,
			Fields:         result.fields,
			Views:          views,
			Dependencies:   sortedIDs(result.dependencies),
		})
	}

	order, err := creationOrder(base.Tables, dependencies, tableNames)
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		a.logger.Warn("cyclic table dependencies detected, using alphabetical creation order",
			"base", base.ID)
	}

	return &SchemaAnalysis{
		BaseID:        base.ID,
		BaseName:      base.Name,
		Tables:        tables,
		Relationships: relationships,
		CreationOrder: order,
	}
}
