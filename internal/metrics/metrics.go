// Package metrics derives aggregate counts and complexity estimates from a
// schema analysis. Everything here is a pure function of its input.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/baseguide/baseguide/internal/analysis"
)

// Complexity labels in ascending order of score.
const (
	ComplexityLow      = "Low"
	ComplexityModerate = "Moderate"
	ComplexityHigh     = "High"
	ComplexityVeryHigh = "Very High"
)

// Complexity score thresholds. These are a policy knob: changing them
// changes every report's label.
const (
	thresholdModerate = 60
	thresholdHigh     = 120
	thresholdVeryHigh = 180
)

// Metrics is the derived presentation data for one analysis.
type Metrics struct {
	TableCount        int
	FieldCount        int
	RelationshipCount int
	FormulaCount      int
	LookupCount       int
	RollupCount       int
	LinkedCount       int
	SingleSelectCount int

	// RelationshipKinds counts edges per relationship kind.
	RelationshipKinds map[string]int
	// DependentsByTarget maps a link-target table name to the source table
	// names referencing it, one entry per edge, in edge order.
	DependentsByTarget map[string][]string

	ComplexityScore  float64
	ComplexityLabel  string
	EstimatedMinutes int

	// CriticalDependencies lists the most-referenced tables, at most five,
	// each as "<table> referenced by <sorted unique sources>".
	CriticalDependencies []string
}

// KindCount is one relationship kind with its edge count.
type KindCount struct {
	Kind  string
	Count int
}

// Compute derives all report metrics from a schema analysis.
func Compute(a *analysis.SchemaAnalysis) *Metrics {
	m := &Metrics{
		TableCount:         len(a.Tables),
		RelationshipCount:  len(a.Relationships),
		RelationshipKinds:  make(map[string]int),
		DependentsByTarget: make(map[string][]string),
	}

	for _, table := range a.Tables {
		m.FieldCount += len(table.Fields)
		for _, field := range table.Fields {
			switch field.Type {
			case "formula":
				m.FormulaCount++
			case "lookup":
				m.LookupCount++
			case "rollup":
				m.RollupCount++
			case "singleSelect":
				m.SingleSelectCount++
			}
			switch field.Type {
			case "multipleRecordLinks", "singleRecordLink", "linkedRecord":
				m.LinkedCount++
			}
		}
	}

	for _, edge := range a.Relationships {
		m.RelationshipKinds[edge.Kind]++
		m.DependentsByTarget[edge.ToTableName] = append(m.DependentsByTarget[edge.ToTableName], edge.FromTableName)
	}

	m.ComplexityScore = float64(m.TableCount)*5 +
		float64(m.FieldCount)*0.6 +
		float64(m.RelationshipCount)*4 +
		float64(m.FormulaCount)*6 +
		float64(m.LookupCount)*4 +
		float64(m.RollupCount)*4.5 +
		float64(m.LinkedCount)*3
	m.ComplexityLabel = classifyComplexity(m.ComplexityScore)

	estimate := int(float64(m.TableCount)*20 +
		float64(m.FieldCount)*1.2 +
		float64(m.RelationshipCount)*5 +
		float64(m.FormulaCount)*8 +
		float64(m.LookupCount)*6 +
		float64(m.RollupCount)*6)
	if estimate < 30 {
		estimate = 30
	}
	m.EstimatedMinutes = estimate

	m.CriticalDependencies = criticalDependencies(m.DependentsByTarget)

	return m
}

// RoundedScore returns the complexity score as displayed: rounded
// half-to-even, so a score ending in exactly .5 does not always bump up.
func (m *Metrics) RoundedScore() int {
	return int(math.RoundToEven(m.ComplexityScore))
}

// KindsByFrequency returns relationship kinds ordered by descending count,
// kind name breaking ties, so output ordering is reproducible.
func (m *Metrics) KindsByFrequency() []KindCount {
	kinds := make([]KindCount, 0, len(m.RelationshipKinds))
	for kind, count := range m.RelationshipKinds {
		kinds = append(kinds, KindCount{Kind: kind, Count: count})
	}
	sort.Slice(kinds, func(i, j int) bool {
		if kinds[i].Count != kinds[j].Count {
			return kinds[i].Count > kinds[j].Count
		}
		return kinds[i].Kind < kinds[j].Kind
	})
	return kinds
}

func classifyComplexity(score float64) string {
	switch {
	case score < thresholdModerate:
		return ComplexityLow
	case score < thresholdHigh:
		return ComplexityModerate
	case score < thresholdVeryHigh:
		return ComplexityHigh
	default:
		return ComplexityVeryHigh
	}
}

// criticalDependencies ranks link-target tables by the number of distinct
// source tables referencing them, capped at five entries. Tables with no
// incoming sources are excluded.
func criticalDependencies(dependentsByTarget map[string][]string) []string {
	type entry struct {
		table   string
		sources []string
	}

	var entries []entry
	for table, sources := range dependentsByTarget {
		unique := uniqueSorted(sources)
		if len(unique) == 0 {
			continue
		}
		entries = append(entries, entry{table: table, sources: unique})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].sources) != len(entries[j].sources) {
			return len(entries[i].sources) > len(entries[j].sources)
		}
		return entries[i].table < entries[j].table
	})

	var critical []string
	for _, e := range entries {
		critical = append(critical, fmt.Sprintf("%s referenced by %s", e.table, strings.Join(e.sources, ", ")))
		if len(critical) >= 5 {
			break
		}
	}
	return critical
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
