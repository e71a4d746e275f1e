package analysis

import "github.com/baseguide/baseguide/internal/schema"

// NormalizeField strips null configuration entries, resolves the linked
// table reference (if any), and computes the primary flag for one field.
func NormalizeField(field schema.Field, table schema.Table, tableNames map[string]string) FieldSummary {
	configuration := normalizeConfiguration(field.Options)
	linkedID := extractLinkedTableID(configuration)

	return FieldSummary{
		ID:              field.ID,
		Name:            field.Name,
		Type:            field.Type,
		Description:     field.Description,
		IsPrimary:       field.IsPrimaryField || field.ID == table.PrimaryFieldID,
		Configuration:   configuration,
		LinkedTableID:   linkedID,
		LinkedTableName: tableNames[linkedID],
	}
}

// normalizeConfiguration drops null-valued keys and passes every other
// value through unchanged.
func normalizeConfiguration(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	sanitized := make(map[string]any, len(options))
	for key, value := range options {
		if value == nil {
			continue
		}
		sanitized[key] = value
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}

// extractLinkedTableID finds the referenced table id in a field
// configuration. Direct keys win over the id nested inside a rollup or
// lookup source descriptor; the first non-empty match is returned.
func extractLinkedTableID(configuration map[string]any) string {
	for _, key := range []string{"linkedTableId", "foreignTableId", "recordLinkTableId"} {
		if id, ok := configuration[key].(string); ok && id != "" {
			return id
		}
	}
	for _, key := range []string{"rollup", "lookup"} {
		nested, ok := configuration[key].(map[string]any)
		if !ok {
			continue
		}
		if id, ok := nested["linkedTableId"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// relationshipKind maps a field type to its relationship kind. Unknown
// types fall through as themselves so new upstream field types degrade
// instead of crashing.
func relationshipKind(fieldType string) string {
	switch fieldType {
	case "linkedRecord", "singleRecordLink", "multipleRecordLinks":
		return KindLinkedRecord
	case "rollup":
		return KindRollup
	case "lookup":
		return KindLookup
	default:
		return fieldType
	}
}
