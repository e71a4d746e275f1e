// Package report renders a schema analysis, its metrics, and externally
// supplied narrative guidance into a markdown duplication guide. Rendering
// is deterministic: the same inputs always produce the same document.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/baseguide/baseguide/internal/analysis"
	"github.com/baseguide/baseguide/internal/guidance"
	"github.com/baseguide/baseguide/internal/metrics"
)

// collapsibleThreshold is the field count above which a table's field
// listing is wrapped in a disclosure block.
const collapsibleThreshold = 12

// GenerationError wraps any failure during report assembly so callers see
// one error kind at the boundary.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to build markdown report: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Builder renders markdown reports.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a report builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build renders the full markdown document. A nil guide renders the
// structural sections without narrative content.
func (b *Builder) Build(a *analysis.SchemaAnalysis, m *metrics.Metrics, guide *guidance.Guide) (string, error) {
	if a == nil {
		return "", &GenerationError{Err: fmt.Errorf("analysis is nil")}
	}
	if m == nil {
		m = metrics.Compute(a)
	}
	if guide == nil {
		guide = &guidance.Guide{}
	}

	b.logger.Debug("rendering report", "base", a.BaseName, "tables", len(a.Tables))

	tableNames := a.TableNames()
	fieldIndex := a.FieldIndex()

	var lines []string
	lines = append(lines, fmt.Sprintf("# Airtable Base Duplication Guide: %s", a.BaseName))
	lines = append(lines, "")

	lines = append(lines, b.quickReference(a, m)...)
	lines = append(lines, "", "---", "")

	lines = append(lines, "## Base Overview", "")
	lines = append(lines, strings.TrimSpace(guide.BaseOverview))
	lines = append(lines, "")

	if len(guide.KeyConsiderations) > 0 {
		lines = append(lines, "### Key Considerations")
		for _, item := range guide.KeyConsiderations {
			lines = append(lines, "- "+item)
		}
		lines = append(lines, "")
	}

	lines = append(lines, "---", "")
	lines = append(lines, b.relationshipSection(a, guide)...)
	lines = append(lines, "", "---", "")

	lines = append(lines, "## Table Breakdown", "")
	for _, table := range a.Tables {
		section, err := b.tableSection(table, guide, tableNames, fieldIndex, m)
		if err != nil {
			return "", &GenerationError{Err: err}
		}
		lines = append(lines, section...)
		lines = append(lines, "")
	}

	if len(guide.DuplicationSteps) > 0 {
		lines = append(lines, "---", "")
		lines = append(lines, b.duplicationSteps(guide.DuplicationSteps)...)
	}

	if len(guide.PostDuplicationChecks) > 0 {
		lines = append(lines, "", "## Post-duplication Validation")
		for _, item := range guide.PostDuplicationChecks {
			lines = append(lines, "- "+item)
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (b *Builder) quickReference(a *analysis.SchemaAnalysis, m *metrics.Metrics) []string {
	lines := []string{"## Quick Reference", ""}

	var kindSegments []string
	for _, kc := range m.KindsByFrequency() {
		kindSegments = append(kindSegments, fmt.Sprintf("%s x %d", humanizeRelationshipKind(kc.Kind), kc.Count))
	}

	lines = append(lines, fmt.Sprintf(
		"- **Structure:** %d tables · %d fields · %d relationships",
		m.TableCount, m.FieldCount, m.RelationshipCount))
	lines = append(lines, fmt.Sprintf(
		"- **Calculated fields:** %d formulas, %d lookups, %d rollups",
		m.FormulaCount, m.LookupCount, m.RollupCount))
	lines = append(lines, fmt.Sprintf(
		"- **Complexity:** %s (score %d)", m.ComplexityLabel, m.RoundedScore()))
	lines = append(lines, fmt.Sprintf(
		"- **Estimated duplication time:** %s", formatTimeEstimate(m.EstimatedMinutes)))
	if len(kindSegments) > 0 {
		lines = append(lines, fmt.Sprintf("- **Relationships by type:** %s", strings.Join(kindSegments, ", ")))
	}

	if len(a.CreationOrder) > 0 {
		lines = append(lines, "", "**Table creation sequence**")
		for i, tableName := range a.CreationOrder {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, tableName))
		}
	}

	if len(m.CriticalDependencies) > 0 {
		lines = append(lines, "", "**Critical dependencies**")
		for _, dependency := range m.CriticalDependencies {
			lines = append(lines, "- "+dependency)
		}
	}

	if m.RelationshipCount == 0 {
		lines = append(lines, "", "_No cross-table relationships detected._")
	}

	hasViews := false
	for _, table := range a.Tables {
		if len(table.Views) > 0 {
			hasViews = true
			break
		}
	}
	if !hasViews {
		lines = append(lines, "",
			"_View configurations were not returned by the API; capture key views manually._")
	}

	return lines
}

func (b *Builder) relationshipSection(a *analysis.SchemaAnalysis, guide *guidance.Guide) []string {
	lines := []string{"## Relationships & Flow", ""}

	diagram := relationshipDiagram(a.Relationships)
	if len(diagram) > 0 {
		lines = append(lines, "```")
		lines = append(lines, diagram...)
		lines = append(lines, "```")
	} else {
		lines = append(lines, "_No relationships to visualize._")
	}

	if summaries := keyRelationshipSummaries(a.Relationships); len(summaries) > 0 {
		lines = append(lines, "", "**Key relationships**")
		for _, item := range summaries {
			lines = append(lines, "- "+item)
		}
	}

	if len(guide.Relationships) > 0 {
		lines = append(lines, "", "**LLM insights**")
		for _, item := range guide.Relationships {
			lines = append(lines, "- "+item)
		}
	}

	return lines
}

// relationshipDiagram draws one block per table: the table in brackets
// followed by its outgoing edges sorted by target name.
func relationshipDiagram(edges []analysis.Edge) []string {
	if len(edges) == 0 {
		return nil
	}

	type outgoing struct {
		target string
		kind   string
	}
	adjacency := make(map[string][]outgoing)
	tableSet := make(map[string]struct{})
	for _, edge := range edges {
		adjacency[edge.FromTableName] = append(adjacency[edge.FromTableName], outgoing{
			target: edge.ToTableName,
			kind:   humanizeRelationshipKind(edge.Kind),
		})
		tableSet[edge.FromTableName] = struct{}{}
		tableSet[edge.ToTableName] = struct{}{}
	}

	tables := make([]string, 0, len(tableSet))
	for name := range tableSet {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	var lines []string
	for _, tableName := range tables {
		lines = append(lines, fmt.Sprintf("[%s]", tableName))
		outs := adjacency[tableName]
		sort.SliceStable(outs, func(i, j int) bool { return outs[i].target < outs[j].target })
		if len(outs) > 0 {
			for i, out := range outs {
				prefix := "  |--"
				if i == len(outs)-1 {
					prefix = "  '--"
				}
				lines = append(lines, fmt.Sprintf("%s(%s)--> [%s]", prefix, out.kind, out.target))
			}
		} else {
			lines = append(lines, "  '-- no outgoing links")
		}
		lines = append(lines, "")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// keyRelationshipSummaries deduplicates edges into "source -> target
// (kind x N)" lines sorted by source then target.
func keyRelationshipSummaries(edges []analysis.Edge) []string {
	if len(edges) == 0 {
		return nil
	}

	type pair struct{ source, target string }
	counts := make(map[pair]map[string]int)
	for _, edge := range edges {
		key := pair{source: edge.FromTableName, target: edge.ToTableName}
		if counts[key] == nil {
			counts[key] = make(map[string]int)
		}
		counts[key][humanizeRelationshipKind(edge.Kind)]++
	}

	pairs := make([]pair, 0, len(counts))
	for key := range counts {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].source != pairs[j].source {
			return pairs[i].source < pairs[j].source
		}
		return pairs[i].target < pairs[j].target
	})

	var items []string
	for _, key := range pairs {
		kinds := make([]string, 0, len(counts[key]))
		for kind := range counts[key] {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		segments := make([]string, 0, len(kinds))
		for _, kind := range kinds {
			if count := counts[key][kind]; count > 1 {
				segments = append(segments, fmt.Sprintf("%s x %d", kind, count))
			} else {
				segments = append(segments, kind)
			}
		}
		items = append(items, fmt.Sprintf("%s -> %s (%s)", key.source, key.target, strings.Join(segments, ", ")))
	}
	return items
}

func (b *Builder) tableSection(
	table analysis.TableSummary,
	guide *guidance.Guide,
	tableNames map[string]string,
	fieldIndex map[string]analysis.FieldRef,
	m *metrics.Metrics,
) ([]string, error) {
	lines := []string{fmt.Sprintf("### %s", table.Name)}
	if table.Description != "" {
		lines = append(lines, table.Description)
	}

	detail := guide.TableDetail(table.Name)
	if detail != nil && detail.Summary != "" {
		lines = append(lines, detail.Summary)
	}

	var dependencyNames []string
	for _, dep := range table.Dependencies {
		name := tableNames[dep]
		if name == "" {
			name = dep
		}
		dependencyNames = append(dependencyNames, name)
	}
	sort.Strings(dependencyNames)
	if len(dependencyNames) > 0 {
		lines = append(lines, fmt.Sprintf("- Depends on: %s", strings.Join(dependencyNames, ", ")))
	}

	if dependents := m.DependentsByTarget[table.Name]; len(dependents) > 0 {
		unique := uniqueSorted(dependents)
		lines = append(lines, fmt.Sprintf("- Supports: %s", strings.Join(unique, ", ")))
	}

	if detail != nil && len(detail.SequencingNotes) > 0 {
		lines = append(lines, "- Sequencing notes:")
		for _, note := range detail.SequencingNotes {
			lines = append(lines, "  - "+note)
		}
	}

	lines = append(lines, "")
	fieldLines, err := b.fieldsSection(table, tableNames, fieldIndex)
	if err != nil {
		return nil, err
	}
	lines = append(lines, fieldLines...)

	if detail != nil && len(detail.FieldInstructions) > 0 {
		lines = append(lines, "", "#### Gemini Guidance")
		for _, instruction := range detail.FieldInstructions {
			lines = append(lines, "- "+instruction)
		}
	}

	viewLines := tableViews(table.Views)
	if len(viewLines) > 0 {
		lines = append(lines, "")
		lines = append(lines, viewLines...)
	}

	if detail != nil && len(detail.ViewInstructions) > 0 {
		if len(viewLines) > 0 {
			lines = append(lines, "", "**Gemini view notes**")
		} else {
			lines = append(lines, "", "#### View Notes")
		}
		for _, instruction := range detail.ViewInstructions {
			lines = append(lines, "- "+instruction)
		}
	}

	return lines, nil
}

func (b *Builder) fieldsSection(
	table analysis.TableSummary,
	tableNames map[string]string,
	fieldIndex map[string]analysis.FieldRef,
) ([]string, error) {
	lines := []string{"#### Fields"}

	var content []string
	for _, group := range GroupFields(table.Fields) {
		content = append(content, fmt.Sprintf("**%s**", group.Category))
		for _, field := range group.Fields {
			entry, err := b.fieldEntry(field, tableNames, fieldIndex)
			if err != nil {
				return nil, err
			}
			content = append(content, entry...)
		}
		content = append(content, "")
	}
	for len(content) > 0 && content[len(content)-1] == "" {
		content = content[:len(content)-1]
	}

	if len(table.Fields) > collapsibleThreshold && len(content) > 0 {
		lines = append(lines, fmt.Sprintf(
			"<details>\n<summary><strong>Field groups (%d fields)</strong></summary>", len(table.Fields)))
		lines = append(lines, "")
		lines = append(lines, content...)
		lines = append(lines, "</details>")
	} else {
		lines = append(lines, content...)
	}

	return lines, nil
}

func (b *Builder) fieldEntry(
	field analysis.FieldSummary,
	tableNames map[string]string,
	fieldIndex map[string]analysis.FieldRef,
) ([]string, error) {
	header := fmt.Sprintf("- `%s` (%s)", field.Name, humanizeFieldType(field.Type))
	if highlights := inlineHighlights(field); len(highlights) > 0 {
		header += " | " + strings.Join(highlights, ", ")
	}
	lines := []string{header}

	if field.Description != "" {
		lines = append(lines, "  - "+field.Description)
	}
	if field.LinkedTableName != "" {
		lines = append(lines, fmt.Sprintf("  - Links to `%s`", field.LinkedTableName))
	}

	details, err := fieldDetails(field, tableNames, fieldIndex)
	if err != nil {
		return nil, err
	}
	lines = append(lines, details...)

	return lines, nil
}

// fieldDetails renders per-type structured detail. Raw configuration is
// dumped verbatim only when no structured rule produced anything.
func fieldDetails(
	field analysis.FieldSummary,
	tableNames map[string]string,
	fieldIndex map[string]analysis.FieldRef,
) ([]string, error) {
	config := field.Configuration
	var lines []string

	if field.Type == "singleSelect" || field.Type == "multipleSelects" {
		if options := selectOptions(config); len(options) > 0 {
			lines = append(lines, fmt.Sprintf("  - Options: %s", strings.Join(options, ", ")))
		}
	}

	if relationshipFieldTypes[field.Type] {
		lines = append(lines, "  - "+describeLinkedRecord(config))
	}

	if field.Type == "lookup" {
		if desc := describeLookup(config, fieldIndex, tableNames); desc != "" {
			lines = append(lines, "  - "+desc)
		}
	}

	if field.Type == "rollup" {
		if desc := describeRollup(config, fieldIndex, tableNames); desc != "" {
			lines = append(lines, "  - "+desc)
		}
	}

	if field.Type == "formula" {
		lines = append(lines, formulaDetails(config)...)
	}

	if !complexFieldTypes[field.Type] {
		for _, note := range simpleConfigNotes(config) {
			lines = append(lines, "  - "+note)
		}
	}

	if len(lines) == 0 && len(config) > 0 {
		serialized, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("serializing configuration for field %s: %w", field.Name, err)
		}
		lines = append(lines, "  - Configuration:", "    ```json")
		for _, configLine := range strings.Split(string(serialized), "\n") {
			lines = append(lines, "    "+configLine)
		}
		lines = append(lines, "    ```")
	}

	return lines, nil
}

func formulaDetails(config map[string]any) []string {
	formula, _ := config["formula"].(string)
	formula = strings.TrimSpace(formula)
	if formula == "" {
		return nil
	}

	lines := []string{"  - Formula:", "    ```text"}
	for _, formulaLine := range strings.Split(formula, "\n") {
		lines = append(lines, "    "+formulaLine)
	}
	lines = append(lines, "    ```")

	if description := describeFormula(formula); description != "" {
		lines = append(lines, "  - Purpose: "+description)
	}
	if refs := referencedFields(formula); len(refs) > 0 {
		quoted := make([]string, len(refs))
		for i, name := range refs {
			quoted[i] = "`" + name + "`"
		}
		lines = append(lines, "  - Uses: "+strings.Join(quoted, ", "))
	}
	return lines
}

func tableViews(views []analysis.ViewSummary) []string {
	if len(views) == 0 {
		return nil
	}

	lines := []string{"#### Views"}
	for _, view := range views {
		viewType := view.Type
		if viewType == "" {
			viewType = "custom"
		}
		lines = append(lines, fmt.Sprintf("- `%s` (%s)", view.Name, viewType))
		if view.Description != "" {
			lines = append(lines, "  - "+view.Description)
		}
		if len(view.VisibleFields) > 0 {
			shown := view.VisibleFields
			truncated := false
			if len(shown) > 12 {
				shown = shown[:12]
				truncated = true
			}
			quoted := make([]string, len(shown))
			for i, field := range shown {
				quoted[i] = "`" + field + "`"
			}
			display := strings.Join(quoted, ", ")
			if truncated {
				display += ", ..."
			}
			lines = append(lines, "  - Visible fields: "+display)
		}
		if sortSummary := viewSortSummary(view.Sorts); sortSummary != "" {
			lines = append(lines, "  - Sort: "+sortSummary)
		}
		if len(view.Filters) > 0 {
			lines = append(lines, "  - Filters: "+filterSummary(view.Filters))
		}
		if groupFields := viewGroupSummary(view.Groups); groupFields != "" {
			lines = append(lines, "  - Grouped by: "+groupFields)
		}
	}
	return lines
}

func inlineHighlights(field analysis.FieldSummary) []string {
	config := field.Configuration
	var highlights []string

	if field.IsPrimary {
		highlights = append(highlights, "primary")
	}

	switch field.Type {
	case "number", "currency", "percent":
		if precision, ok := configNumber(config, "precision"); ok {
			highlights = append(highlights, fmt.Sprintf("precision %s", formatNumber(precision)))
		}
		if symbol, ok := config["symbol"].(string); ok {
			highlights = append(highlights, fmt.Sprintf("symbol '%s'", symbol))
		}
	case "checkbox":
		if color, ok := config["color"].(string); ok {
			highlights = append(highlights, "color "+color)
		}
	case "rating":
		if max, ok := configNumber(config, "max"); ok {
			highlights = append(highlights, fmt.Sprintf("max %s", formatNumber(max)))
		}
	case "date", "dateTime":
		if format, ok := config["format"].(map[string]any); ok {
			name, _ := format["name"].(string)
			if name == "" {
				name, _ = format["format"].(string)
			}
			if name != "" {
				highlights = append(highlights, "format "+name)
			}
		}
	}

	return highlights
}

func describeLinkedRecord(config map[string]any) string {
	allowMultiple, hasAllowMultiple := config["allowMultipleRecords"].(bool)
	prefersSingle, _ := config["prefersSingleRecordLink"].(bool)

	var cardinality string
	switch {
	case hasAllowMultiple && allowMultiple:
		cardinality = "multiple records"
	case (hasAllowMultiple && !allowMultiple) || prefersSingle:
		cardinality = "one record"
	default:
		cardinality = "one or many records"
	}
	return fmt.Sprintf("Stores %s from the linked table", cardinality)
}

func describeLookup(
	config map[string]any,
	fieldIndex map[string]analysis.FieldRef,
	tableNames map[string]string,
) string {
	var lookupFieldID, relationshipFieldID, linkedTableID string
	if nested, ok := config["lookup"].(map[string]any); ok {
		lookupFieldID = configString(nested, "fieldId", "lookupFieldId")
		relationshipFieldID = configString(nested, "relationshipFieldId")
		linkedTableID = configString(nested, "linkedTableId")
	} else {
		lookupFieldID = configString(config, "lookupFieldId", "fieldId")
		relationshipFieldID = configString(config, "recordLinkFieldId")
		linkedTableID = configString(config, "linkedTableId")
	}

	var sourceDesc string
	if ref, ok := fieldIndex[lookupFieldID]; ok {
		sourceDesc = fmt.Sprintf("%s -> %s", ref.TableName, ref.FieldName)
	} else if lookupFieldID != "" {
		sourceDesc = fmt.Sprintf("field %s", lookupFieldID)
	} else {
		sourceDesc = "linked records"
	}

	relationDesc := "via linked records"
	if ref, ok := fieldIndex[relationshipFieldID]; ok {
		relationDesc = "via " + ref.FieldName
	}

	if tableName := tableNames[linkedTableID]; tableName != "" {
		sourceDesc = fmt.Sprintf("%s -> %s", tableName, lastArrowSegment(sourceDesc))
	}

	return fmt.Sprintf("Pulls values from %s %s", sourceDesc, relationDesc)
}

func describeRollup(
	config map[string]any,
	fieldIndex map[string]analysis.FieldRef,
	tableNames map[string]string,
) string {
	rollupConfig := config
	if nested, ok := config["rollup"].(map[string]any); ok {
		rollupConfig = nested
	}

	aggDisplay := "aggregation"
	if aggregation, ok := rollupConfig["aggregation"].(string); ok {
		aggDisplay = strings.ReplaceAll(aggregation, "_", " ")
	}

	fieldID := configString(rollupConfig, "fieldId")
	relationFieldID := configString(rollupConfig, "recordLinkFieldId")
	linkedTableID := configString(rollupConfig, "linkedTableId")

	var targetDesc string
	if ref, ok := fieldIndex[fieldID]; ok {
		targetDesc = fmt.Sprintf("%s -> %s", ref.TableName, ref.FieldName)
	} else if fieldID != "" {
		targetDesc = fmt.Sprintf("field %s", fieldID)
	} else {
		targetDesc = "the linked table"
	}

	relationDesc := "via linked records"
	if ref, ok := fieldIndex[relationFieldID]; ok {
		relationDesc = "via " + ref.FieldName
	}

	if tableName := tableNames[linkedTableID]; tableName != "" {
		targetDesc = fmt.Sprintf("%s -> %s", tableName, lastArrowSegment(targetDesc))
	}

	return fmt.Sprintf("Rolls up %s using %s %s", targetDesc, aggDisplay, relationDesc)
}

func simpleConfigNotes(config map[string]any) []string {
	var notes []string
	for _, key := range []string{"defaultValue", "allowNegativeNumbers", "useThousandsSeparator"} {
		value, ok := config[key]
		if !ok || value == nil || value == "" {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s: %v", key, value))
	}
	return notes
}

func selectOptions(config map[string]any) []string {
	choices, ok := config["choices"].([]any)
	if !ok {
		return nil
	}
	var options []string
	for _, choice := range choices {
		if m, ok := choice.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				options = append(options, name)
			}
		}
	}
	return options
}

func viewSortSummary(sorts []map[string]any) string {
	var segments []string
	for _, s := range sorts {
		fieldID := configString(s, "fieldId", "field")
		if fieldID == "" {
			continue
		}
		direction, ok := s["direction"].(string)
		if !ok {
			direction = "asc"
		}
		segments = append(segments, fieldID+" "+direction)
	}
	return strings.Join(segments, ", ")
}

func filterSummary(filters map[string]any) string {
	switch formula := filters["formula"].(type) {
	case map[string]any:
		if text, ok := formula["text"].(string); ok {
			return text
		}
		return "formula filter"
	case string:
		return formula
	default:
		return "configured"
	}
}

func viewGroupSummary(groups []map[string]any) string {
	var segments []string
	for _, group := range groups {
		fieldID := configString(group, "fieldId")
		if fieldID == "" {
			fieldID = "field"
		}
		segments = append(segments, "`"+fieldID+"`")
	}
	return strings.Join(segments, ", ")
}

// configString returns the first non-empty string value among keys.
func configString(config map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := config[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func configNumber(config map[string]any, key string) (float64, bool) {
	switch v := config[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func lastArrowSegment(s string) string {
	parts := strings.Split(s, "->")
	return strings.TrimSpace(parts[len(parts)-1])
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var unique []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	sort.Strings(unique)
	return unique
}
