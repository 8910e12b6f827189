package crm

import (
	"reflect"
	"testing"

	"github.com/digiheadway/sales-crm/internal/remote"
)

func TestLeadFromRecord_Current(t *testing.T) {
	rec := remote.Record{
		"id":            "17",
		"in_pipeline":   "1",
		"name":          "Ananya Iyer",
		"phone":         "9812340001",
		"labels":        "investor, urgent",
		"stage":         "site_visit",
		"priority":      "hot",
		"source":        "walk_in",
		"budget":        "7500000",
		"custom_fields": `{"preferred_floor":"high"}`,
		"score":         42.5,
		"created_at":    "2025-08-01T09:00:00Z",
	}

	lead := leadFromRecord(SchemaCurrent, rec)

	if lead.ID != 17 {
		t.Errorf("ID = %d, want 17", lead.ID)
	}
	if !lead.InPipeline {
		t.Error("InPipeline = false, want true")
	}
	if lead.Stage != "Site Visit" {
		t.Errorf("Stage = %q, want Site Visit", lead.Stage)
	}
	if lead.Priority != "Hot" {
		t.Errorf("Priority = %q, want Hot", lead.Priority)
	}
	if lead.Source != "Walk In" {
		t.Errorf("Source = %q, want Walk In", lead.Source)
	}
	if lead.Budget != 7500000 {
		t.Errorf("Budget = %v, want 7500000", lead.Budget)
	}
	if lead.Score != 42.5 {
		t.Errorf("Score = %v, want 42.5", lead.Score)
	}
	if want := []string{"investor", "urgent"}; !reflect.DeepEqual(lead.Labels, want) {
		t.Errorf("Labels = %v, want %v", lead.Labels, want)
	}
	if lead.CustomFields["preferred_floor"] != "high" {
		t.Errorf("CustomFields = %v, want preferred_floor=high", lead.CustomFields)
	}
}

func TestLeadFromRecord_Legacy(t *testing.T) {
	rec := remote.Record{
		"id":          float64(3),
		"lead_name":   "Rohit Sharma",
		"mobile":      "9812340002",
		"lead_stage":  "contacted",
		"pipeline":    "1",
		"tags":        "first-home",
		"lead_source": "referral",
		"custom_data": `{"floor":"2"}`,
		"add_time":    "2024-02-01T08:00:00Z",
	}

	lead := leadFromRecord(SchemaLegacy, rec)

	if lead.Name != "Rohit Sharma" {
		t.Errorf("Name = %q, want Rohit Sharma", lead.Name)
	}
	if lead.Phone != "9812340002" {
		t.Errorf("Phone = %q", lead.Phone)
	}
	if lead.Stage != "Contacted" {
		t.Errorf("Stage = %q, want Contacted", lead.Stage)
	}
	if !lead.InPipeline {
		t.Error("InPipeline = false, want true")
	}
	if want := []string{"first-home"}; !reflect.DeepEqual(lead.Labels, want) {
		t.Errorf("Labels = %v, want %v", lead.Labels, want)
	}
	if lead.CreatedAt != "2024-02-01T08:00:00Z" {
		t.Errorf("CreatedAt = %q", lead.CreatedAt)
	}
}

// leadFromRecord must be total: any malformed record yields a usable Lead
// with defaulted fields rather than an error.
func TestLeadFromRecord_Total(t *testing.T) {
	tests := []struct {
		name string
		rec  remote.Record
	}{
		{"empty record", remote.Record{}},
		{"nil values", remote.Record{"name": nil, "labels": nil, "custom_fields": nil, "budget": nil}},
		{"wrong types", remote.Record{"name": 12, "budget": []any{"x"}, "labels": 7, "custom_fields": 9}},
		{"bad numerics", remote.Record{"id": "NaN-ish", "budget": "a lot", "score": ""}},
		{"bad custom json", remote.Record{"custom_fields": `{"unterminated":`}},
		{"unknown enums", remote.Record{"stage": "quantum", "priority": "plaid", "source": "osmosis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := leadFromRecord(SchemaCurrent, tt.rec)
			if lead.Labels == nil {
				t.Error("Labels is nil, want empty slice")
			}
			if lead.CustomFields == nil {
				t.Error("CustomFields is nil, want empty map")
			}
			if lead.Stage != Stages.Fallback && !containsString(Stages.Values(), lead.Stage) {
				t.Errorf("Stage = %q, not a catalog value or fallback", lead.Stage)
			}
			if lead.Priority == "" || lead.Source == "" {
				t.Error("enum fields must never be empty")
			}
		})
	}
}

func TestTodoFromRecord(t *testing.T) {
	rec := remote.Record{
		"id":           "5",
		"lead_id":      "17",
		"type":         "Activity",
		"status":       "Pending",
		"scheduled_at": "2025-09-03T11:00:00Z",
		"participants": "asha,ravi",
	}

	todo := todoFromRecord(rec)

	if todo.ID != 5 || todo.LeadID != 17 {
		t.Errorf("ids = (%d, %d), want (5, 17)", todo.ID, todo.LeadID)
	}
	if todo.Kind != TodoKindActivity {
		t.Errorf("Kind = %q, want Activity", todo.Kind)
	}
	if want := []string{"asha", "ravi"}; !reflect.DeepEqual(todo.Participants, want) {
		t.Errorf("Participants = %v, want %v", todo.Participants, want)
	}
}

func TestTodoFromRecord_Defaults(t *testing.T) {
	todo := todoFromRecord(remote.Record{})
	if todo.Participants == nil {
		t.Error("Participants is nil, want empty slice")
	}
	if todo.Description != "" || todo.Response != "" {
		t.Error("optional text fields should default to empty strings")
	}
}

func TestParseSchema(t *testing.T) {
	if ParseSchema("legacy") != SchemaLegacy {
		t.Error(`ParseSchema("legacy") != SchemaLegacy`)
	}
	if ParseSchema("current") != SchemaCurrent {
		t.Error(`ParseSchema("current") != SchemaCurrent`)
	}
	if ParseSchema("") != SchemaCurrent {
		t.Error("empty schema should default to current")
	}
}
