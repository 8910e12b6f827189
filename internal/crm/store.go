package crm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/digiheadway/sales-crm/internal/remote"
)

const (
	resourceContacts   = "contacts"
	resourceActivities = "activities"
)

// remoteAPI is the slice of the remote client the store depends on. Tests
// substitute fakes to count calls and control completion order.
type remoteAPI interface {
	List(ctx context.Context, resource string, query url.Values) ([]remote.Record, int, error)
	Get(ctx context.Context, resource string, id int64) (remote.Record, error)
	Create(ctx context.Context, resource string, fields map[string]any) (int64, error)
	Update(ctx context.Context, resource string, id int64, fields map[string]any) error
	Delete(ctx context.Context, resource string, id int64) error
	FetchCatalog(ctx context.Context) (remote.Catalog, error)
}

// Store is the central authority for the in-memory lead/todo/filter
// collections and the operations that keep them consistent with the upstream
// API. One Store is created at application start and torn down with it; there
// is no package-level state.
//
// Reads follow last-write-wins semantics: completions of independent
// operations may interleave, and each just overwrites its slice of state.
// Identical concurrent list queries collapse to one network call.
type Store struct {
	api    remoteAPI
	schema Schema
	logger *slog.Logger
	now    func() time.Time
	bus    *Bus
	group  singleflight.Group

	mu          sync.Mutex
	leads       []Lead
	todos       []Todo
	leadFilters []FilterOption
	todoFilters []FilterOption
	activeID    int64
	lastQuery   LeadQuery
	haveQuery   bool
	cache       pageCache
	catalog     remote.Catalog
	lastErr     string
	loading     int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSchema selects the wire schema generation (default current).
func WithSchema(s Schema) StoreOption {
	return func(st *Store) { st.schema = s }
}

// WithStoreLogger replaces the default logger.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(st *Store) { st.logger = l }
}

// WithClock replaces the wall clock, used by tests to age the cache.
func WithClock(now func() time.Time) StoreOption {
	return func(st *Store) { st.now = now }
}

// WithBus attaches an externally shared invalidation bus.
func WithBus(b *Bus) StoreOption {
	return func(st *Store) { st.bus = b }
}

// NewStore creates a Store over the given remote client.
func NewStore(api remoteAPI, opts ...StoreOption) *Store {
	s := &Store{
		api:    api,
		schema: SchemaCurrent,
		logger: slog.Default(),
		now:    time.Now,
		bus:    NewBus(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the invalidation signal bus.
func (s *Store) Bus() *Bus { return s.bus }

// DefaultLeadQuery is the page the list view opens on.
func DefaultLeadQuery() LeadQuery {
	return LeadQuery{Page: 1, PerPage: 20, SortBy: "updated_at", SortDir: "desc"}
}

// FetchLeads returns one page of leads. The single-slot cache answers repeat
// queries inside the freshness window; on a miss, concurrent identical
// queries share one network call. A successful fetch replaces both the cache
// slot and the in-memory lead collection.
func (s *Store) FetchLeads(ctx context.Context, q LeadQuery) (LeadPage, error) {
	key := queryKey(q)

	s.mu.Lock()
	if page, ok := s.cache.tryGet(key, s.now()); ok {
		s.lastQuery = q
		s.haveQuery = true
		s.mu.Unlock()
		return page, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("leads|"+key, func() (any, error) {
		s.beginLoad()
		defer s.endLoad()

		recs, total, err := s.api.List(ctx, resourceContacts, leadQueryValues(q))
		if err != nil {
			return nil, err
		}
		items := make([]Lead, len(recs))
		for i, rec := range recs {
			items[i] = leadFromRecord(s.schema, rec)
		}
		page := LeadPage{Items: items, Total: total}

		s.mu.Lock()
		s.cache.store(key, page, s.now())
		s.leads = items
		s.lastQuery = q
		s.haveQuery = true
		s.lastErr = ""
		s.mu.Unlock()
		return page, nil
	})
	if err != nil {
		s.recordErr("fetching leads", err)
		return LeadPage{}, err
	}
	return v.(LeadPage), nil
}

// FetchLead returns the lead with the given id, consulting the in-memory
// collection before the upstream. A remotely fetched lead is merged into the
// collection. The second return is false when no such lead exists anywhere.
func (s *Store) FetchLead(ctx context.Context, id int64) (Lead, bool, error) {
	s.mu.Lock()
	if i := s.leadIndex(id); i >= 0 {
		lead := s.leads[i]
		s.mu.Unlock()
		return lead, true, nil
	}
	s.mu.Unlock()

	s.beginLoad()
	rec, err := s.api.Get(ctx, resourceContacts, id)
	s.endLoad()
	if errors.Is(err, remote.ErrNotFound) {
		return Lead{}, false, nil
	}
	if err != nil {
		s.recordErr("fetching lead", err)
		return Lead{}, false, err
	}

	lead := leadFromRecord(s.schema, rec)
	s.mu.Lock()
	if i := s.leadIndex(id); i >= 0 {
		s.leads[i] = lead
	} else {
		s.leads = append(s.leads, lead)
	}
	s.mu.Unlock()
	return lead, true, nil
}

// AddLead creates a lead upstream, then invalidates the cache, refetches the
// current page, and makes the new record the active selection.
func (s *Store) AddLead(ctx context.Context, d LeadDraft) error {
	s.beginLoad()
	id, err := s.api.Create(ctx, resourceContacts, draftFields(s.schema, d))
	s.endLoad()
	if err != nil {
		s.recordErr("adding lead", err)
		return err
	}

	s.invalidate(true)

	s.mu.Lock()
	s.activeID = id
	q := s.lastQuery
	if !s.haveQuery {
		q = DefaultLeadQuery()
	}
	s.mu.Unlock()

	if _, err := s.FetchLeads(ctx, q); err != nil {
		// Creation itself succeeded; a failed refresh only delays the list.
		s.logger.Warn("refreshing leads after add", "error", err)
	}
	return nil
}

// UpdateLead sends the fields of the patch that differ from the last known
// state. When nothing differs, no network call is made. On success the patch
// merges into the in-memory record with a refreshed update timestamp, and the
// cache is invalidated — silently when the edited record is the active
// selection, so an open detail view does not trigger a list refresh
// underneath itself.
func (s *Store) UpdateLead(ctx context.Context, id int64, p LeadPatch) error {
	s.mu.Lock()
	var current Lead
	known := false
	if i := s.leadIndex(id); i >= 0 {
		current = s.leads[i]
		known = true
	}
	active := s.activeID == id
	s.mu.Unlock()

	fields := patchFields(s.schema, p, current, known)
	if len(fields) == 0 {
		return nil
	}

	s.beginLoad()
	err := s.api.Update(ctx, resourceContacts, id, fields)
	s.endLoad()
	if err != nil {
		s.recordErr("updating lead", err)
		return err
	}

	s.mu.Lock()
	if i := s.leadIndex(id); i >= 0 {
		applyLeadPatch(&s.leads[i], p)
		s.leads[i].UpdatedAt = s.now().UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()

	s.invalidate(!active)
	return nil
}

// DeleteLead removes a lead upstream, then removes it locally along with
// every todo referencing it, and clears the active selection if it pointed at
// the deleted record. Failure leaves local state unchanged.
func (s *Store) DeleteLead(ctx context.Context, id int64) error {
	s.beginLoad()
	err := s.api.Delete(ctx, resourceContacts, id)
	s.endLoad()
	if err != nil {
		s.recordErr("deleting lead", err)
		return err
	}

	s.mu.Lock()
	if i := s.leadIndex(id); i >= 0 {
		s.leads = append(s.leads[:i], s.leads[i+1:]...)
	}
	kept := s.todos[:0]
	for _, t := range s.todos {
		if t.LeadID != id {
			kept = append(kept, t)
		}
	}
	s.todos = kept
	if s.activeID == id {
		s.activeID = 0
	}
	s.mu.Unlock()

	s.invalidate(true)
	return nil
}

// FetchTodos replaces the in-memory todo collection from the upstream.
func (s *Store) FetchTodos(ctx context.Context) error {
	s.beginLoad()
	recs, _, err := s.api.List(ctx, resourceActivities, nil)
	s.endLoad()
	if err != nil {
		s.recordErr("fetching todos", err)
		return err
	}
	todos := make([]Todo, len(recs))
	for i, rec := range recs {
		todos[i] = todoFromRecord(rec)
	}
	s.mu.Lock()
	s.todos = todos
	s.mu.Unlock()
	return nil
}

// refreshTodos is the opportunistic variant used after a todo write: failure
// is logged but neither recorded nor surfaced, so non-critical data cannot
// block the page.
func (s *Store) refreshTodos(ctx context.Context) {
	recs, _, err := s.api.List(ctx, resourceActivities, nil)
	if err != nil {
		s.logger.Warn("refreshing todos", "error", err)
		return
	}
	todos := make([]Todo, len(recs))
	for i, rec := range recs {
		todos[i] = todoFromRecord(rec)
	}
	s.mu.Lock()
	s.todos = todos
	s.mu.Unlock()
}

// AddTodo creates a todo upstream and refetches the todo list. The refetch is
// simpler than incremental reconciliation and its cost is accepted.
func (s *Store) AddTodo(ctx context.Context, d TodoDraft) error {
	s.beginLoad()
	_, err := s.api.Create(ctx, resourceActivities, todoDraftFields(d))
	s.endLoad()
	if err != nil {
		s.recordErr("adding todo", err)
		return err
	}
	s.refreshTodos(ctx)
	return nil
}

// UpdateTodo sends a partial todo update and merges it locally on success.
func (s *Store) UpdateTodo(ctx context.Context, id int64, p TodoPatch) error {
	fields := todoPatchFields(p)
	if len(fields) == 0 {
		return nil
	}

	s.beginLoad()
	err := s.api.Update(ctx, resourceActivities, id, fields)
	s.endLoad()
	if err != nil {
		s.recordErr("updating todo", err)
		return err
	}

	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			applyTodoPatch(&s.todos[i], p)
			s.todos[i].UpdatedAt = s.now().UTC().Format(time.RFC3339)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// DeleteTodo removes a todo upstream and locally.
func (s *Store) DeleteTodo(ctx context.Context, id int64) error {
	s.beginLoad()
	err := s.api.Delete(ctx, resourceActivities, id)
	s.endLoad()
	if err != nil {
		s.recordErr("deleting todo", err)
		return err
	}
	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// FetchCatalog refreshes the option catalog. Catalog data is non-critical:
// failure is logged and returned but never recorded as the shared error.
func (s *Store) FetchCatalog(ctx context.Context) (remote.Catalog, error) {
	cat, err := s.api.FetchCatalog(ctx)
	if err != nil {
		s.logger.Warn("fetching catalog", "error", err)
		return remote.Catalog{}, err
	}
	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()
	return cat, nil
}

// Catalog returns the last fetched option catalog.
func (s *Store) Catalog() remote.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// SetLeadFilters replaces the lead filter list. Filters are applied
// server-side on the next fetch.
func (s *Store) SetLeadFilters(filters []FilterOption) {
	s.mu.Lock()
	s.leadFilters = append([]FilterOption(nil), filters...)
	s.mu.Unlock()
}

// RemoveLeadFilterAt drops the filter at the given append-order index.
// Out-of-range indexes are ignored.
func (s *Store) RemoveLeadFilterAt(i int) {
	s.mu.Lock()
	if i >= 0 && i < len(s.leadFilters) {
		s.leadFilters = append(s.leadFilters[:i], s.leadFilters[i+1:]...)
	}
	s.mu.Unlock()
}

// ClearLeadFilters empties the lead filter list and drops the cache slot,
// since cached results are keyed in part by filter content.
func (s *Store) ClearLeadFilters() {
	s.mu.Lock()
	s.leadFilters = nil
	s.mu.Unlock()
	s.invalidate(false)
}

// LeadFilters returns a copy of the current lead filters.
func (s *Store) LeadFilters() []FilterOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FilterOption(nil), s.leadFilters...)
}

// SetTodoFilters replaces the todo filter list, evaluated client-side by
// FilteredTodos.
func (s *Store) SetTodoFilters(filters []FilterOption) {
	s.mu.Lock()
	s.todoFilters = append([]FilterOption(nil), filters...)
	s.mu.Unlock()
}

// RemoveTodoFilterAt drops the todo filter at the given index.
func (s *Store) RemoveTodoFilterAt(i int) {
	s.mu.Lock()
	if i >= 0 && i < len(s.todoFilters) {
		s.todoFilters = append(s.todoFilters[:i], s.todoFilters[i+1:]...)
	}
	s.mu.Unlock()
}

// ClearTodoFilters empties the todo filter list.
func (s *Store) ClearTodoFilters() {
	s.mu.Lock()
	s.todoFilters = nil
	s.mu.Unlock()
}

// TodoFilters returns a copy of the current todo filters.
func (s *Store) TodoFilters() []FilterOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FilterOption(nil), s.todoFilters...)
}

// Leads returns the in-memory lead collection. Lead filters are applied
// server-side; this view is a pass-through of the last fetched page.
func (s *Store) Leads() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Lead(nil), s.leads...)
}

// Todos returns the in-memory todo collection.
func (s *Store) Todos() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Todo(nil), s.todos...)
}

// FilteredTodos evaluates the todo filters client-side over the in-memory
// collection. Equality against a list value means set membership; contains is
// a case-insensitive substring match; gte/lte compare numerically when both
// sides parse as numbers.
func (s *Store) FilteredTodos() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.todoFilters) == 0 {
		return append([]Todo(nil), s.todos...)
	}
	var out []Todo
	for _, t := range s.todos {
		if todoMatches(t, s.todoFilters) {
			out = append(out, t)
		}
	}
	return out
}

// LeadByID looks up a lead in the in-memory collection.
func (s *Store) LeadByID(id int64) (Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.leadIndex(id); i >= 0 {
		return s.leads[i], true
	}
	return Lead{}, false
}

// TodosByLead returns the todos referencing the given lead.
func (s *Store) TodosByLead(leadID int64) []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Todo
	for _, t := range s.todos {
		if t.LeadID == leadID {
			out = append(out, t)
		}
	}
	return out
}

// ActiveID returns the active selection (0 when nothing is selected).
func (s *Store) ActiveID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SetActive records the active selection, typically when a detail view opens.
func (s *Store) SetActive(id int64) {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
}

// Err returns the last recorded operation error message, empty when the most
// recent fetch succeeded.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Loading reports whether any remote operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading > 0
}

// invalidate drops the cache slot. With broadcast, subscribers on the bus are
// told to reconsider their cached views; updates to the active selection
// suppress the broadcast so a visible detail view does not force the list
// behind it to refetch.
func (s *Store) invalidate(broadcast bool) {
	s.mu.Lock()
	s.cache.clear()
	s.mu.Unlock()
	if broadcast {
		s.bus.Notify()
	}
}

// leadIndex returns the position of id in the lead collection, -1 when
// absent. Caller holds s.mu.
func (s *Store) leadIndex(id int64) int {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) beginLoad() {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()
}

func (s *Store) endLoad() {
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()
}

func (s *Store) recordErr(op string, err error) {
	s.logger.Error(op, "error", err)
	s.mu.Lock()
	s.lastErr = fmt.Sprintf("%s: %v", op, err)
	s.mu.Unlock()
}

// todoMatches reports whether a todo satisfies every filter.
func todoMatches(t Todo, filters []FilterOption) bool {
	for _, f := range filters {
		if !matchValue(todoFieldValue(t, f.Field), f) {
			return false
		}
	}
	return true
}

func todoFieldValue(t Todo, field string) any {
	switch field {
	case "id":
		return t.ID
	case "lead_id":
		return t.LeadID
	case "type", "kind":
		return t.Kind
	case "description":
		return t.Description
	case "response":
		return t.Response
	case "status":
		return t.Status
	case "scheduled_at":
		return t.ScheduledAt
	case "participants":
		return t.Participants
	default:
		return nil
	}
}

func matchValue(val any, f FilterOption) bool {
	switch f.Op {
	case OpEq, "":
		switch want := f.Value.(type) {
		case []string:
			return containsString(want, stringify(val))
		case []any:
			for _, w := range want {
				if stringify(w) == stringify(val) {
					return true
				}
			}
			return false
		default:
			if list, ok := val.([]string); ok {
				return containsString(list, stringify(f.Value))
			}
			return stringify(val) == stringify(f.Value)
		}
	case OpContains:
		return strings.Contains(strings.ToLower(stringify(val)), strings.ToLower(stringify(f.Value)))
	case OpGte:
		return compareValues(val, f.Value) >= 0
	case OpLte:
		return compareValues(val, f.Value) <= 0
	default:
		return false
	}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// compareValues orders two values numerically when both parse as numbers,
// lexically otherwise.
func compareValues(a, b any) int {
	af, aerr := strconv.ParseFloat(stringify(a), 64)
	bf, berr := strconv.ParseFloat(stringify(b), 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}
