package crm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/digiheadway/sales-crm/internal/remote"
)

// Schema selects which generation of the wire format a deployment speaks.
// The upstream is mid-migration: legacy installs still serve the old field
// names (lead_name, mobile, lead_stage, ...) while current ones serve the
// new schema. One transformer handles both, keyed by this tag.
type Schema string

const (
	SchemaCurrent Schema = "current"
	SchemaLegacy  Schema = "legacy"
)

// ParseSchema maps a config string to a Schema, defaulting to current.
func ParseSchema(s string) Schema {
	if Schema(s) == SchemaLegacy {
		return SchemaLegacy
	}
	return SchemaCurrent
}

// leadFields names the wire fields of a lead record for one schema
// generation. The same table drives both reading (transform) and writing
// (draft/patch encoding), so a deployment is consistent in both directions.
type leadFields struct {
	id, inPipeline, name, phone, altPhone, address    string
	labels, stage, priority, requirement, budget      string
	about, listName, source, customFields, propType   string
	assignedTo, adminID, email, score, lastNote       string
	createdAt, updatedAt                              string
}

var leadFieldsCurrent = leadFields{
	id: "id", inPipeline: "in_pipeline", name: "name", phone: "phone",
	altPhone: "alt_phone", address: "address", labels: "labels",
	stage: "stage", priority: "priority", requirement: "requirement",
	budget: "budget", about: "about", listName: "list_name",
	source: "source", customFields: "custom_fields", propType: "property_type",
	assignedTo: "assigned_to", adminID: "admin_id", email: "email",
	score: "score", lastNote: "last_note",
	createdAt: "created_at", updatedAt: "updated_at",
}

var leadFieldsLegacy = leadFields{
	id: "id", inPipeline: "pipeline", name: "lead_name", phone: "mobile",
	altPhone: "alternate_mobile", address: "lead_address", labels: "tags",
	stage: "lead_stage", priority: "lead_priority", requirement: "requirements",
	budget: "budget", about: "notes", listName: "list",
	source: "lead_source", customFields: "custom_data", propType: "type",
	assignedTo: "assigned_user", adminID: "admin", email: "email_id",
	score: "lead_score", lastNote: "last_note",
	createdAt: "add_time", updatedAt: "update_time",
}

func fieldsFor(schema Schema) leadFields {
	if schema == SchemaLegacy {
		return leadFieldsLegacy
	}
	return leadFieldsCurrent
}

// leadFromRecord converts a raw API record into a Lead. It is total: any
// malformed input yields a best-effort Lead with defaulted fields, never an
// error. Unknown enum values coerce to the catalog fallbacks, lists are never
// nil, and unparsable custom-field blobs fall back to an empty map.
func leadFromRecord(schema Schema, rec remote.Record) Lead {
	f := fieldsFor(schema)
	return Lead{
		ID:           recInt(rec, f.id),
		InPipeline:   recBool(rec, f.inPipeline),
		Name:         recString(rec, f.name),
		Phone:        recString(rec, f.phone),
		AltPhone:     recString(rec, f.altPhone),
		Address:      recString(rec, f.address),
		Labels:       recList(rec, f.labels),
		Stage:        Stages.APIToValue(recString(rec, f.stage)),
		Priority:     Priorities.APIToValue(recString(rec, f.priority)),
		Requirement:  recString(rec, f.requirement),
		Budget:       recFloat(rec, f.budget),
		About:        recString(rec, f.about),
		ListName:     recString(rec, f.listName),
		Source:       Sources.APIToValue(recString(rec, f.source)),
		CustomFields: recJSONMap(rec, f.customFields),
		PropertyType: recString(rec, f.propType),
		AssignedTo:   recString(rec, f.assignedTo),
		AdminID:      recInt(rec, f.adminID),
		Email:        recString(rec, f.email),
		Score:        recFloat(rec, f.score),
		LastNote:     recString(rec, f.lastNote),
		CreatedAt:    recString(rec, f.createdAt),
		UpdatedAt:    recString(rec, f.updatedAt),
	}
}

// todoFromRecord converts a raw activity record into a Todo. Total, like
// leadFromRecord. The activity schema did not change across the migration.
func todoFromRecord(rec remote.Record) Todo {
	return Todo{
		ID:           recInt(rec, "id"),
		LeadID:       recInt(rec, "lead_id"),
		Kind:         recString(rec, "type"),
		Description:  recString(rec, "description"),
		Response:     recString(rec, "response"),
		Status:       recString(rec, "status"),
		ScheduledAt:  recString(rec, "scheduled_at"),
		Participants: recList(rec, "participants"),
		CreatedAt:    recString(rec, "created_at"),
		UpdatedAt:    recString(rec, "updated_at"),
	}
}

// recString reads a text field, defaulting to "" so form bindings stay
// stable. Non-string scalars are stringified.
func recString(rec remote.Record, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// recFloat parses a numeric field from a JSON number or a string, defaulting
// to 0 on failure.
func recFloat(rec remote.Record, key string) float64 {
	v, ok := rec[key]
	if !ok || v == nil {
		return 0
	}
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func recInt(rec remote.Record, key string) int64 {
	return int64(recFloat(rec, key))
}

// recBool accepts JSON booleans plus the upstream's "1"/"0" and "true"
// string spellings.
func recBool(rec remote.Record, key string) bool {
	v, ok := rec[key]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val == "1" || strings.EqualFold(val, "true")
	default:
		return false
	}
}

// recList reads a list field. The wire sends either a comma-joined string or
// a JSON array; the result is never nil.
func recList(rec remote.Record, key string) []string {
	v, ok := rec[key]
	if !ok || v == nil {
		return []string{}
	}
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return []string{}
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// recJSONMap reads an embedded JSON object field. Malformed blobs fall back
// to an empty map; the parse error is deliberately swallowed so that one bad
// record cannot take down a whole page render.
func recJSONMap(rec remote.Record, key string) map[string]any {
	v, ok := rec[key]
	if !ok || v == nil {
		return map[string]any{}
	}
	switch val := v.(type) {
	case map[string]any:
		return val
	case string:
		if strings.TrimSpace(val) == "" {
			return map[string]any{}
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(val), &m); err != nil || m == nil {
			return map[string]any{}
		}
		return m
	default:
		return map[string]any{}
	}
}
