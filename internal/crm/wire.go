package crm

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// leadQueryValues translates a LeadQuery into the read endpoint's parameter
// set. Enumerated filter values are mapped to their wire spellings; budget
// bounds become budget_min/budget_max; unrecognized fields pass through under
// their own name so new server-side filters work without a client release.
func leadQueryValues(q LeadQuery) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.SortBy != "" {
		v.Set("sort_by", q.SortBy)
		dir := q.SortDir
		if dir == "" {
			dir = "asc"
		}
		v.Set("sort_dir", dir)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Pipeline {
		v.Set("in_pipeline", "1")
	}
	for _, f := range q.Filters {
		switch f.Field {
		case "stage":
			v.Set("stage", Stages.ValueToAPI(filterScalar(f.Value)))
		case "priority":
			v.Set("priority", Priorities.ValueToAPI(filterScalar(f.Value)))
		case "source":
			v.Set("source", Sources.ValueToAPI(filterScalar(f.Value)))
		case "budget":
			switch f.Op {
			case OpGte:
				v.Set("budget_min", filterScalar(f.Value))
			case OpLte:
				v.Set("budget_max", filterScalar(f.Value))
			}
		default:
			v.Set(f.Field, filterScalar(f.Value))
		}
	}
	return v
}

// filterScalar flattens a filter value (scalar or list) to its query-param
// spelling. Lists join with commas.
func filterScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// draftFields encodes a LeadDraft into wire-named fields for the write
// endpoint, under the given schema generation.
func draftFields(schema Schema, d LeadDraft) map[string]any {
	f := fieldsFor(schema)
	fields := map[string]any{
		f.name:        d.Name,
		f.phone:       d.Phone,
		f.stage:       Stages.ValueToAPI(d.Stage),
		f.priority:    Priorities.ValueToAPI(d.Priority),
		f.source:      Sources.ValueToAPI(d.Source),
		f.requirement: d.Requirement,
		f.budget:      d.Budget,
		f.inPipeline:  d.InPipeline,
	}
	if d.AltPhone != "" {
		fields[f.altPhone] = d.AltPhone
	}
	if d.Address != "" {
		fields[f.address] = d.Address
	}
	if len(d.Labels) > 0 {
		fields[f.labels] = strings.Join(d.Labels, ",")
	}
	if d.About != "" {
		fields[f.about] = d.About
	}
	if d.ListName != "" {
		fields[f.listName] = d.ListName
	}
	if len(d.CustomFields) > 0 {
		fields[f.customFields] = marshalCustomFields(d.CustomFields)
	}
	if d.PropertyType != "" {
		fields[f.propType] = d.PropertyType
	}
	if d.AssignedTo != "" {
		fields[f.assignedTo] = d.AssignedTo
	}
	if d.Email != "" {
		fields[f.email] = d.Email
	}
	return fields
}

// patchFields computes the wire-named fields of a partial update that
// actually differ from the last known state. When the record is not known
// locally there is nothing to diff against and every supplied field is sent.
// Slice and map fields compare by serialized equality; scalars by value.
func patchFields(schema Schema, p LeadPatch, current Lead, known bool) map[string]any {
	f := fieldsFor(schema)
	fields := map[string]any{}

	setStr := func(key string, v *string, cur string) {
		if v != nil && (!known || *v != cur) {
			fields[key] = *v
		}
	}
	setStr(f.name, p.Name, current.Name)
	setStr(f.phone, p.Phone, current.Phone)
	setStr(f.altPhone, p.AltPhone, current.AltPhone)
	setStr(f.address, p.Address, current.Address)
	setStr(f.requirement, p.Requirement, current.Requirement)
	setStr(f.about, p.About, current.About)
	setStr(f.listName, p.ListName, current.ListName)
	setStr(f.propType, p.PropertyType, current.PropertyType)
	setStr(f.assignedTo, p.AssignedTo, current.AssignedTo)
	setStr(f.email, p.Email, current.Email)
	setStr(f.lastNote, p.LastNote, current.LastNote)

	if p.Stage != nil && (!known || *p.Stage != current.Stage) {
		fields[f.stage] = Stages.ValueToAPI(*p.Stage)
	}
	if p.Priority != nil && (!known || *p.Priority != current.Priority) {
		fields[f.priority] = Priorities.ValueToAPI(*p.Priority)
	}
	if p.Source != nil && (!known || *p.Source != current.Source) {
		fields[f.source] = Sources.ValueToAPI(*p.Source)
	}
	if p.Budget != nil && (!known || *p.Budget != current.Budget) {
		fields[f.budget] = *p.Budget
	}
	if p.Score != nil && (!known || *p.Score != current.Score) {
		fields[f.score] = *p.Score
	}
	if p.InPipeline != nil && (!known || *p.InPipeline != current.InPipeline) {
		fields[f.inPipeline] = *p.InPipeline
	}
	if p.Labels != nil && (!known || !equalJSON(*p.Labels, current.Labels)) {
		fields[f.labels] = strings.Join(*p.Labels, ",")
	}
	if p.CustomFields != nil && (!known || !equalJSON(*p.CustomFields, current.CustomFields)) {
		fields[f.customFields] = marshalCustomFields(*p.CustomFields)
	}
	return fields
}

// applyLeadPatch merges a patch into the in-memory record after the upstream
// confirmed the update.
func applyLeadPatch(l *Lead, p LeadPatch) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.AltPhone != nil {
		l.AltPhone = *p.AltPhone
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.Labels != nil {
		l.Labels = *p.Labels
	}
	if p.Stage != nil {
		l.Stage = *p.Stage
	}
	if p.Priority != nil {
		l.Priority = *p.Priority
	}
	if p.Requirement != nil {
		l.Requirement = *p.Requirement
	}
	if p.Budget != nil {
		l.Budget = *p.Budget
	}
	if p.About != nil {
		l.About = *p.About
	}
	if p.ListName != nil {
		l.ListName = *p.ListName
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.CustomFields != nil {
		l.CustomFields = *p.CustomFields
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.AssignedTo != nil {
		l.AssignedTo = *p.AssignedTo
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Score != nil {
		l.Score = *p.Score
	}
	if p.LastNote != nil {
		l.LastNote = *p.LastNote
	}
	if p.InPipeline != nil {
		l.InPipeline = *p.InPipeline
	}
}

func todoDraftFields(d TodoDraft) map[string]any {
	kind := d.Kind
	if kind == "" {
		kind = TodoKindActivity
	}
	fields := map[string]any{
		"lead_id":      d.LeadID,
		"type":         kind,
		"status":       TodoPending,
		"scheduled_at": d.ScheduledAt,
	}
	if d.Description != "" {
		fields["description"] = d.Description
	}
	if len(d.Participants) > 0 {
		fields["participants"] = strings.Join(d.Participants, ",")
	}
	return fields
}

func todoPatchFields(p TodoPatch) map[string]any {
	fields := map[string]any{}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Response != nil {
		fields["response"] = *p.Response
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.ScheduledAt != nil {
		fields["scheduled_at"] = *p.ScheduledAt
	}
	if p.Participants != nil {
		fields["participants"] = strings.Join(*p.Participants, ",")
	}
	return fields
}

func applyTodoPatch(t *Todo, p TodoPatch) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Response != nil {
		t.Response = *p.Response
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ScheduledAt != nil {
		t.ScheduledAt = *p.ScheduledAt
	}
	if p.Participants != nil {
		t.Participants = *p.Participants
	}
}

// marshalCustomFields serializes the open-ended custom field map to the
// embedded-JSON wire form. Marshal cannot fail for JSON-decoded values; a
// pathological map falls back to the empty object.
func marshalCustomFields(m map[string]any) string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// equalJSON compares two values by serialized equality, the policy for slice
// and map fields in patch diffing.
func equalJSON(a, b any) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
