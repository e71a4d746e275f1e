package report

import (
	"fmt"
	"regexp"
	"strings"
)

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// humanizeFieldType turns API type tags like "multipleRecordLinks" into
// readable lowercase phrases ("multiple record links").
func humanizeFieldType(fieldType string) string {
	spaced := camelBoundary.ReplaceAllString(fieldType, "$1 $2")
	spaced = strings.ReplaceAll(spaced, "_", " ")
	return strings.ToLower(spaced)
}

// humanizeRelationshipKind turns kind tags like "linked_record" into
// readable lowercase phrases.
func humanizeRelationshipKind(kind string) string {
	return strings.ToLower(strings.ReplaceAll(kind, "_", " "))
}

// formatTimeEstimate renders a minute count as "~X hr Y min".
func formatTimeEstimate(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("~%d hr %d min", hours, mins)
	case hours == 1:
		return "~1 hr"
	case hours > 0:
		return fmt.Sprintf("~%d hrs", hours)
	default:
		return fmt.Sprintf("~%d min", minutes)
	}
}
