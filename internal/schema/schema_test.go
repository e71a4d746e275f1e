package schema

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestDecodeMetadataJSON(t *testing.T) {
	payload := `{
		"id": "appX1",
		"name": "Tracker",
		"tables": [
			{
				"id": "tbl1",
				"name": "Projects",
				"primaryFieldId": "fld1",
				"fields": [
					{"id": "fld1", "name": "Name", "type": "singleLineText"},
					{"id": "fld2", "name": "Budget", "type": "currency", "options": {"precision": 2, "symbol": "$"}}
				],
				"views": [
					{"id": "viw1", "name": "Grid", "type": "grid", "fieldOrder": {"fieldIds": ["fld1", "fld2"]}}
				]
			}
		]
	}`

	var s BaseSchema
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ID != "appX1" || s.Name != "Tracker" {
		t.Errorf("unexpected base identity: %s/%s", s.ID, s.Name)
	}
	if len(s.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(s.Tables))
	}
	table := s.Tables[0]
	if table.PrimaryFieldID != "fld1" {
		t.Errorf("expected primary field fld1, got %s", table.PrimaryFieldID)
	}
	if got := table.Fields[1].Options["symbol"]; got != "$" {
		t.Errorf("expected symbol option to survive decoding, got %v", got)
	}
}

func TestDecodeUnknownFieldType(t *testing.T) {
	payload := `{"id": "fld9", "name": "AI Summary", "type": "aiText"}`

	var f Field
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Type != "aiText" {
		t.Errorf("expected open type tag to pass through, got %s", f.Type)
	}
}

func TestVisibleFieldIDs(t *testing.T) {
	v := View{FieldOrder: map[string]any{
		"fieldIds": []any{"fld1", 42, "fld2"},
	}}

	ids := v.VisibleFieldIDs()
	if len(ids) != 2 || ids[0] != "fld1" || ids[1] != "fld2" {
		t.Errorf("expected non-string entries skipped, got %v", ids)
	}

	empty := View{}
	if got := empty.VisibleFieldIDs(); got != nil {
		t.Errorf("expected nil for missing fieldOrder, got %v", got)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	s := &BaseSchema{
		ID:   "appX1",
		Name: "Tracker",
		Tables: []Table{
			{
				ID:             "tbl1",
				Name:           "Projects",
				PrimaryFieldID: "fld1",
				Fields: []Field{
					{ID: "fld1", Name: "Name", Type: "singleLineText"},
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := s.WriteYAML(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Tables[0].PrimaryFieldID != "fld1" {
		t.Errorf("primary field id lost in round trip: %+v", loaded.Tables[0])
	}
}

func TestTableNames(t *testing.T) {
	s := &BaseSchema{Tables: []Table{
		{ID: "tbl1", Name: "Projects"},
		{ID: "tbl2", Name: "Tasks"},
	}}

	lookup := s.TableNames()
	if lookup["tbl2"] != "Tasks" {
		t.Errorf("expected Tasks, got %s", lookup["tbl2"])
	}
}

func TestSummary(t *testing.T) {
	s := &BaseSchema{
		Name: "Tracker",
		Tables: []Table{
			{Fields: []Field{
				{Type: "singleLineText"},
				{Type: "multipleRecordLinks"},
			}},
		},
	}

	got := s.Summary()
	want := `Base "Tracker": 1 tables, 2 fields, 0 views, 1 link fields`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
