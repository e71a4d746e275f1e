package analysis

import (
	"reflect"
	"testing"

	"github.com/baseguide/baseguide/internal/schema"
)

func projectsAndTasks() *schema.BaseSchema {
	return &schema.BaseSchema{
		ID:   "appTest",
		Name: "Tracker",
		Tables: []schema.Table{
			{
				ID:             "tblProjects",
				Name:           "Projects",
				PrimaryFieldID: "fldName",
				Fields: []schema.Field{
					{ID: "fldName", Name: "Name", Type: "singleLineText"},
					{ID: "fldStatus", Name: "Status", Type: "singleSelect"},
				},
			},
			{
				ID:             "tblTasks",
				Name:           "Tasks",
				PrimaryFieldID: "fldTask",
				Fields: []schema.Field{
					{ID: "fldTask", Name: "Task", Type: "singleLineText"},
					{
						ID:      "fldProject",
						Name:    "Project",
						Type:    "multipleRecordLinks",
						Options: map[string]any{"linkedTableId": "tblProjects"},
					},
				},
			},
		},
	}
}

func TestAnalyzeProjectsAndTasks(t *testing.T) {
	analysis := New(nil).Analyze(projectsAndTasks())

	if analysis.BaseID != "appTest" || analysis.BaseName != "Tracker" {
		t.Errorf("unexpected base identity: %s/%s", analysis.BaseID, analysis.BaseName)
	}

	wantOrder := []string{"Projects", "Tasks"}
	if !reflect.DeepEqual(analysis.CreationOrder, wantOrder) {
		t.Errorf("expected creation order %v, got %v", wantOrder, analysis.CreationOrder)
	}

	if len(analysis.Relationships) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(analysis.Relationships))
	}
	edge := analysis.Relationships[0]
	if edge.FromTableName != "Tasks" || edge.ToTableName != "Projects" {
		t.Errorf("expected Tasks -> Projects, got %s -> %s", edge.FromTableName, edge.ToTableName)
	}
	if edge.Kind != KindLinkedRecord {
		t.Errorf("expected kind %s, got %s", KindLinkedRecord, edge.Kind)
	}

	tasks := analysis.Tables[1]
	if !reflect.DeepEqual(tasks.Dependencies, []string{"tblProjects"}) {
		t.Errorf("expected Tasks to depend on tblProjects, got %v", tasks.Dependencies)
	}
	if analysis.Tables[0].Dependencies != nil {
		t.Errorf("expected Projects to have no dependencies, got %v", analysis.Tables[0].Dependencies)
	}
}

func TestAnalyzeMutualCycleFallsBack(t *testing.T) {
	base := &schema.BaseSchema{
		ID:   "appCycle",
		Name: "Cycle",
		Tables: []schema.Table{
			{
				ID:   "tblA",
				Name: "A",
				Fields: []schema.Field{
					{ID: "fld1", Name: "To B", Type: "multipleRecordLinks", Options: map[string]any{"linkedTableId": "tblB"}},
				},
			},
			{
				ID:   "tblB",
				Name: "B",
				Fields: []schema.Field{
					{ID: "fld2", Name: "To A", Type: "multipleRecordLinks", Options: map[string]any{"linkedTableId": "tblA"}},
				},
			},
		},
	}

	analysis := New(nil).Analyze(base)

	want := []string{"A", "B"}
	if !reflect.DeepEqual(analysis.CreationOrder, want) {
		t.Errorf("expected alphabetical fallback %v, got %v", want, analysis.CreationOrder)
	}
	if len(analysis.Relationships) != 2 {
		t.Errorf("expected both edges preserved, got %d", len(analysis.Relationships))
	}
}

func TestAnalyzeSelfReferenceExcluded(t *testing.T) {
	base := &schema.BaseSchema{
		ID:   "appSelf",
		Name: "Self",
		Tables: []schema.Table{
			{
				ID:   "tblEmployees",
				Name: "Employees",
				Fields: []schema.Field{
					{ID: "fld1", Name: "Manager", Type: "multipleRecordLinks", Options: map[string]any{"linkedTableId": "tblEmployees"}},
				},
			},
		},
	}

	analysis := New(nil).Analyze(base)

	if len(analysis.Relationships) != 0 {
		t.Errorf("expected self-link excluded from edges, got %v", analysis.Relationships)
	}
	if analysis.Tables[0].Dependencies != nil {
		t.Errorf("expected no self-dependency, got %v", analysis.Tables[0].Dependencies)
	}
	// The field itself is still recorded.
	if len(analysis.Tables[0].Fields) != 1 {
		t.Errorf("expected field kept, got %v", analysis.Tables[0].Fields)
	}
	if analysis.Tables[0].Fields[0].LinkedTableName != "Employees" {
		t.Errorf("expected resolved linked name, got %+v", analysis.Tables[0].Fields[0])
	}
}

func TestAnalyzeDuplicateEdgesPreserved(t *testing.T) {
	base := projectsAndTasks()
	base.Tables[1].Fields = append(base.Tables[1].Fields, schema.Field{
		ID:      "fldReviewer",
		Name:    "Review Project",
		Type:    "multipleRecordLinks",
		Options: map[string]any{"linkedTableId": "tblProjects"},
	})

	analysis := New(nil).Analyze(base)

	if len(analysis.Relationships) != 2 {
		t.Fatalf("expected 2 distinct edges for the same table pair, got %d", len(analysis.Relationships))
	}
	if analysis.Relationships[0].FromFieldName != "Project" || analysis.Relationships[1].FromFieldName != "Review Project" {
		t.Errorf("expected edges in field-iteration order, got %v", analysis.Relationships)
	}
	// Dependency set stays a set.
	if !reflect.DeepEqual(analysis.Tables[1].Dependencies, []string{"tblProjects"}) {
		t.Errorf("expected single dependency, got %v", analysis.Tables[1].Dependencies)
	}
}

func TestAnalyzeUnresolvedReferenceDegrades(t *testing.T) {
	base := &schema.BaseSchema{
		ID:   "appBroken",
		Name: "Broken",
		Tables: []schema.Table{
			{
				ID:   "tblOrders",
				Name: "Orders",
				Fields: []schema.Field{
					{ID: "fld1", Name: "Customer", Type: "multipleRecordLinks", Options: map[string]any{"linkedTableId": "tblGone"}},
				},
			},
		},
	}

	analysis := New(nil).Analyze(base)

	if len(analysis.Relationships) != 1 {
		t.Fatalf("expected edge recorded for unresolved target, got %d", len(analysis.Relationships))
	}
	if analysis.Relationships[0].ToTableName != "tblGone" {
		t.Errorf("expected raw id as degraded target name, got %q", analysis.Relationships[0].ToTableName)
	}
}

func TestAnalyzeViews(t *testing.T) {
	base := projectsAndTasks()
	base.Tables[0].Views = []schema.View{
		{
			ID:         "viw1",
			Name:       "Active",
			Type:       "grid",
			FieldOrder: map[string]any{"fieldIds": []any{"fldName"}},
			Sorts:      []map[string]any{{"fieldId": "fldName", "direction": "asc"}},
		},
	}

	analysis := New(nil).Analyze(base)

	views := analysis.Tables[0].Views
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if !reflect.DeepEqual(views[0].VisibleFields, []string{"fldName"}) {
		t.Errorf("expected visible fields extracted, got %v", views[0].VisibleFields)
	}
}

func TestFieldIndex(t *testing.T) {
	analysis := New(nil).Analyze(projectsAndTasks())

	index := analysis.FieldIndex()
	ref, ok := index["fldProject"]
	if !ok {
		t.Fatal("expected fldProject in index")
	}
	if ref.TableName != "Tasks" || ref.FieldName != "Project" {
		t.Errorf("unexpected ref: %+v", ref)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	first := New(nil).Analyze(projectsAndTasks())
	second := New(nil).Analyze(projectsAndTasks())
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical analyses for identical input")
	}
}
