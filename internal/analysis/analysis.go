package analysis

// Relationship kinds derived from field types. Any other field type is
// carried through as its own kind string.
const (
	KindLinkedRecord = "linked_record"
	KindLookup       = "lookup"
	KindRollup       = "rollup"
)

// FieldSummary is a normalized field: null-stripped configuration plus the
// resolved cross-table reference, if any.
type FieldSummary struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Type            string         `json:"type" yaml:"type"`
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`
	IsPrimary       bool           `json:"is_primary" yaml:"is_primary"`
	Configuration   map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	LinkedTableID   string         `json:"linked_table_id,omitempty" yaml:"linked_table_id,omitempty"`
	LinkedTableName string         `json:"linked_table_name,omitempty" yaml:"linked_table_name,omitempty"`
}

// ViewSummary is a normalized view with its visible field ids extracted.
type ViewSummary struct {
	ID            string           `json:"id" yaml:"id"`
	Name          string           `json:"name" yaml:"name"`
	Type          string           `json:"type" yaml:"type"`
	Description   string           `json:"description,omitempty" yaml:"description,omitempty"`
	VisibleFields []string         `json:"visible_fields,omitempty" yaml:"visible_fields,omitempty"`
	Filters       map[string]any   `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sorts         []map[string]any `json:"sorts,omitempty" yaml:"sorts,omitempty"`
	Groups        []map[string]any `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// TableSummary is a per-table analysis result. Dependencies holds the ids
// of tables this table links to, sorted for stable serialization.
type TableSummary struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	PrimaryFieldID string         `json:"primary_field_id,omitempty" yaml:"primary_field_id,omitempty"`
	Fields         []FieldSummary `json:"fields" yaml:"fields"`
	Views          []ViewSummary  `json:"views,omitempty" yaml:"views,omitempty"`
	Dependencies   []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Edge is one cross-table relationship contributed by a single field.
// Two fields linking the same pair of tables produce two distinct edges.
type Edge struct {
	FromTableID   string         `json:"from_table_id" yaml:"from_table_id"`
	FromTableName string         `json:"from_table_name" yaml:"from_table_name"`
	FromFieldID   string         `json:"from_field_id" yaml:"from_field_id"`
	FromFieldName string         `json:"from_field_name" yaml:"from_field_name"`
	ToTableID     string         `json:"to_table_id" yaml:"to_table_id"`
	ToTableName   string         `json:"to_table_name" yaml:"to_table_name"`
	Kind          string         `json:"relationship_type" yaml:"relationship_type"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// SchemaAnalysis is the complete analysis artifact for one base. It is
// computed once per run and never mutated afterwards.
type SchemaAnalysis struct {
	BaseID        string         `json:"base_id" yaml:"base_id"`
	BaseName      string         `json:"base_name" yaml:"base_name"`
	Tables        []TableSummary `json:"tables" yaml:"tables"`
	Relationships []Edge         `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	CreationOrder []string       `json:"suggested_table_creation_order" yaml:"suggested_table_creation_order"`
}

// FieldRef locates a field within the base by table and field name.
type FieldRef struct {
	TableName string
	FieldName string
}

// FieldIndex returns a field id -> (table, field) name lookup across the
// whole analysis.
func (a *SchemaAnalysis) FieldIndex() map[string]FieldRef {
	index := make(map[string]FieldRef)
	for _, table := range a.Tables {
		for _, field := range table.Fields {
			index[field.ID] = FieldRef{TableName: table.Name, FieldName: field.Name}
		}
	}
	return index
}

// TableNames returns a table id -> name lookup over the analysis tables.
func (a *SchemaAnalysis) TableNames() map[string]string {
	lookup := make(map[string]string, len(a.Tables))
	for _, t := range a.Tables {
		lookup[t.ID] = t.Name
	}
	return lookup
}
