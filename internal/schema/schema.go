package schema

// BaseSchema is the complete metadata of an Airtable base as returned by
// the Metadata API. It is never mutated after retrieval.
type BaseSchema struct {
	ID     string  `json:"id" yaml:"id"`
	Name   string  `json:"name" yaml:"name"`
	Tables []Table `json:"tables" yaml:"tables"`
}

// Table is a single table within a base. Fields and views keep API order.
type Table struct {
	ID             string  `json:"id" yaml:"id"`
	Name           string  `json:"name" yaml:"name"`
	Description    string  `json:"description,omitempty" yaml:"description,omitempty"`
	PrimaryFieldID string  `json:"primaryFieldId,omitempty" yaml:"primary_field_id,omitempty"`
	Fields         []Field `json:"fields" yaml:"fields"`
	Views          []View  `json:"views,omitempty" yaml:"views,omitempty"`
}

// Field is a table field. Type is an open string tag: unknown upstream
// types must flow through unchanged rather than fail decoding.
type Field struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	IsPrimaryField bool           `json:"isPrimaryField,omitempty" yaml:"is_primary_field,omitempty"`
	Options        map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// View is a saved view on a table. Filter, sort, and group descriptors are
// opaque type-specific mappings.
type View struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Type        string           `json:"type" yaml:"type"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	FieldOrder  map[string]any   `json:"fieldOrder,omitempty" yaml:"field_order,omitempty"`
	Filters     map[string]any   `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sorts       []map[string]any `json:"sorts,omitempty" yaml:"sorts,omitempty"`
	Groups      []map[string]any `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// TableNames returns an id -> name lookup for every table in the base.
func (s *BaseSchema) TableNames() map[string]string {
	lookup := make(map[string]string, len(s.Tables))
	for _, t := range s.Tables {
		lookup[t.ID] = t.Name
	}
	return lookup
}

// VisibleFieldIDs extracts the ordered visible field ids from the view's
// fieldOrder descriptor. Entries that are not strings are skipped.
func (v *View) VisibleFieldIDs() []string {
	raw, ok := v.FieldOrder["fieldIds"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var ids []string
	for _, item := range items {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
