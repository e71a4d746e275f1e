package report

import (
	"strings"

	"github.com/baseguide/baseguide/internal/analysis"
)

// Field categories in render order. Categorization is first-match-wins
// over the rules in Categorize, so every field lands in exactly one.
const (
	CategoryCore         = "Core Fields"
	CategoryRelationship = "Relationship Fields"
	CategoryAssignment   = "Assignment Fields"
	CategoryStatus       = "Status Management"
	CategoryRating       = "Rating Fields"
	CategoryCalculated   = "Calculated Fields"
	CategoryMetadata     = "Metadata Fields"
	CategoryOther        = "Other Fields"
)

var categoryOrder = []string{
	CategoryCore,
	CategoryRelationship,
	CategoryAssignment,
	CategoryStatus,
	CategoryRating,
	CategoryCalculated,
	CategoryMetadata,
	CategoryOther,
}

var relationshipFieldTypes = map[string]bool{
	"multipleRecordLinks": true,
	"singleRecordLink":    true,
	"linkedRecord":        true,
}

var assignmentFieldTypes = map[string]bool{
	"user":                  true,
	"collaborator":          true,
	"multipleCollaborators": true,
}

var statusFieldTypes = map[string]bool{
	"singleSelect":    true,
	"multipleSelects": true,
	"checkbox":        true,
}

var metadataFieldTypes = map[string]bool{
	"createdTime":      true,
	"lastModifiedTime": true,
	"createdBy":        true,
	"lastModifiedBy":   true,
	"autoNumber":       true,
	"formula":          true,
	"rollup":           true,
	"lookup":           true,
}

// complexFieldTypes carry their own structured detail rendering; simple
// configuration notes are only emitted for types outside this set.
var complexFieldTypes = map[string]bool{
	"formula":             true,
	"lookup":              true,
	"rollup":              true,
	"multipleRecordLinks": true,
	"singleRecordLink":    true,
	"linkedRecord":        true,
	"singleSelect":        true,
	"multipleSelects":     true,
}

var (
	statusKeywords     = []string{"status", "stage", "state", "phase", "progress"}
	assignmentKeywords = []string{"assign", "owner", "lead", "manager", "responsible"}
	metadataKeywords   = []string{"created", "updated", "modified", "timestamp", "notes", "description", "comment"}
)

// Categorize assigns a field to exactly one category. Unknown field types
// fall through to Other rather than failing.
func Categorize(field analysis.FieldSummary) string {
	nameLower := strings.ToLower(field.Name)

	switch {
	case field.IsPrimary || field.Type == "singleLineText" || field.Type == "multilineText":
		return CategoryCore
	case relationshipFieldTypes[field.Type] || field.LinkedTableName != "":
		return CategoryRelationship
	case assignmentFieldTypes[field.Type] || containsAny(nameLower, assignmentKeywords):
		return CategoryAssignment
	case statusFieldTypes[field.Type] || containsAny(nameLower, statusKeywords):
		return CategoryStatus
	case field.Type == "rating" || strings.Contains(nameLower, "rating"):
		return CategoryRating
	case field.Type == "formula" || field.Type == "lookup" || field.Type == "rollup":
		return CategoryCalculated
	case metadataFieldTypes[field.Type] || containsAny(nameLower, metadataKeywords):
		return CategoryMetadata
	default:
		return CategoryOther
	}
}

// FieldGroup is one non-empty category with its fields in schema order.
type FieldGroup struct {
	Category string
	Fields   []analysis.FieldSummary
}

// GroupFields buckets fields by category, preserving the fixed category
// order and omitting empty categories.
func GroupFields(fields []analysis.FieldSummary) []FieldGroup {
	buckets := make(map[string][]analysis.FieldSummary)
	for _, field := range fields {
		category := Categorize(field)
		buckets[category] = append(buckets[category], field)
	}

	var groups []FieldGroup
	for _, category := range categoryOrder {
		if len(buckets[category]) > 0 {
			groups = append(groups, FieldGroup{Category: category, Fields: buckets[category]})
		}
	}
	return groups
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
