package analysis

import (
	"sort"

	"github.com/baseguide/baseguide/internal/schema"
)

// tableResult carries everything the per-table pass derives: normalized
// fields, relationship edges in field-iteration order, and the set of
// table ids this table depends on.
type tableResult struct {
	fields       []FieldSummary
	edges        []Edge
	dependencies map[string]struct{}
}

// processTable normalizes every field of a table and records one edge per
// field with a resolved cross-table reference. Self-referential links are
// kept as fields but excluded from edges and dependencies.
func processTable(table schema.Table, tableNames map[string]string) tableResult {
	result := tableResult{dependencies: make(map[string]struct{})}

	for _, raw := range table.Fields {
		field := NormalizeField(raw, table, tableNames)
		result.fields = append(result.fields, field)

		if field.LinkedTableID == "" || field.LinkedTableID == table.ID {
			continue
		}

		result.dependencies[field.LinkedTableID] = struct{}{}

		toName := field.LinkedTableName
		if toName == "" {
			// Referenced id not found in the base; degrade to the raw id.
			toName = field.LinkedTableID
		}
		result.edges = append(result.edges, Edge{
			FromTableID:   table.ID,
			FromTableName: table.Name,
			FromFieldID:   field.ID,
			FromFieldName: field.Name,
			ToTableID:     field.LinkedTableID,
			ToTableName:   toName,
			Kind:          relationshipKind(field.Type),
			Configuration: field.Configuration,
		})
	}

	return result
}

// sortedIDs returns the members of an id set in sorted order.
func sortedIDs(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
