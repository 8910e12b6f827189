// Package crm holds the client-side data layer for the sales pipeline: the
// Lead/Todo model, the option catalogs, the wire transformer, and the Store
// that keeps the in-memory collections consistent with the upstream API.
package crm

// Lead is a prospective customer record tracked through the pipeline.
//
// Timestamps are server-authoritative ISO 8601 strings and are carried
// verbatim; the client never interprets them beyond display.
type Lead struct {
	ID           int64          `json:"id"`
	InPipeline   bool           `json:"in_pipeline"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	AltPhone     string         `json:"alt_phone"`
	Address      string         `json:"address"`
	Labels       []string       `json:"labels"`
	Stage        string         `json:"stage"`
	Priority     string         `json:"priority"`
	Requirement  string         `json:"requirement"`
	Budget       float64        `json:"budget"`
	About        string         `json:"about"`
	ListName     string         `json:"list_name"`
	Source       string         `json:"source"`
	CustomFields map[string]any `json:"custom_fields"`
	PropertyType string         `json:"property_type"`
	AssignedTo   string         `json:"assigned_to"`
	AdminID      int64          `json:"admin_id"`
	Email        string         `json:"email"`
	Score        float64        `json:"score"`
	LastNote     string         `json:"last_note"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// Todo statuses. The store does not enforce transitions; any status may be
// written by an update.
const (
	TodoPending   = "Pending"
	TodoCompleted = "Completed"
	TodoCancelled = "Cancelled"
	TodoOverdue   = "Overdue"
)

// TodoKindActivity is the discriminator separating scheduled activities from
// other todo kinds.
const TodoKindActivity = "Activity"

// Todo is a scheduled follow-up task tied to a Lead.
type Todo struct {
	ID           int64    `json:"id"`
	LeadID       int64    `json:"lead_id"`
	Kind         string   `json:"kind"`
	Description  string   `json:"description"`
	Response     string   `json:"response"`
	Status       string   `json:"status"`
	ScheduledAt  string   `json:"scheduled_at"`
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// Filter operators.
const (
	OpEq       = "eq"
	OpContains = "contains"
	OpGte      = "gte"
	OpLte      = "lte"
)

// FilterOption is a single predicate: a field name, an operator, and a
// scalar or list value. Filters are kept in append order (removal is
// by index) and carry no uniqueness constraint.
type FilterOption struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// LeadQuery describes one page of the lead list.
type LeadQuery struct {
	Page     int
	PerPage  int
	SortBy   string
	SortDir  string
	Search   string
	Filters  []FilterOption
	Pipeline bool
}

// LeadPage is the result of a lead list query.
type LeadPage struct {
	Items []Lead
	Total int
}

// LeadDraft carries user-entered fields for creating a lead. The server
// assigns id and timestamps.
type LeadDraft struct {
	Name         string
	Phone        string
	AltPhone     string
	Address      string
	Labels       []string
	Stage        string
	Priority     string
	Requirement  string
	Budget       float64
	About        string
	ListName     string
	Source       string
	CustomFields map[string]any
	PropertyType string
	AssignedTo   string
	Email        string
	InPipeline   bool
}

// LeadPatch is a partial update; nil fields are untouched. The store only
// transmits fields whose values actually differ from the last known state.
type LeadPatch struct {
	Name         *string
	Phone        *string
	AltPhone     *string
	Address      *string
	Labels       *[]string
	Stage        *string
	Priority     *string
	Requirement  *string
	Budget       *float64
	About        *string
	ListName     *string
	Source       *string
	CustomFields *map[string]any
	PropertyType *string
	AssignedTo   *string
	Email        *string
	Score        *float64
	LastNote     *string
	InPipeline   *bool
}

// TodoDraft carries user-entered fields for creating a todo.
type TodoDraft struct {
	LeadID       int64
	Kind         string
	Description  string
	ScheduledAt  string
	Participants []string
}

// TodoPatch is a partial todo update; nil fields are untouched.
type TodoPatch struct {
	Description  *string
	Response     *string
	Status       *string
	ScheduledAt  *string
	Participants *[]string
}
