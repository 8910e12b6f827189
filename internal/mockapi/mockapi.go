// Package mockapi is an in-memory stand-in for the upstream CRM API. It
// speaks the same wire contract as production — success envelopes, stringly
// numerics, comma-joined lists, embedded JSON custom fields — and exists for
// store tests and local front-end development (crm mock).
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Server holds the mock dataset. All access is serialized with a mutex; the
// dataset is wire-shaped maps, not internal model types, so the client is
// exercised against realistic payloads.
type Server struct {
	mu      sync.Mutex
	records map[string][]map[string]any // resource -> records
	nextID  int64
	catalog map[string][]string
}

// New creates an empty mock server. Seed or SeedDefault populates it.
func New() *Server {
	return &Server{
		records: map[string][]map[string]any{
			"contacts":   {},
			"activities": {},
		},
		nextID: 1,
		catalog: map[string][]string{
			"tags":        {"investor", "first-home", "nri", "urgent"},
			"assigned_to": {"asha", "ravi", "meera"},
			"lists":       {"Walk-ins Q3", "Website August", "Expo Leads"},
		},
	}
}

// Seed inserts a record for resource, assigning an id, and returns the id.
func (s *Server) Seed(resource string, rec map[string]any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(resource, rec)
}

func (s *Server) insert(resource string, rec map[string]any) int64 {
	id := s.nextID
	s.nextID++
	clone := map[string]any{}
	for k, v := range rec {
		clone[k] = v
	}
	clone["id"] = float64(id)
	if _, ok := clone["created_at"]; !ok {
		clone["created_at"] = "2025-08-01T09:00:00Z"
	}
	if _, ok := clone["updated_at"]; !ok {
		clone["updated_at"] = clone["created_at"]
	}
	s.records[resource] = append(s.records[resource], clone)
	return id
}

// SeedDefault loads a small realistic dataset.
func (s *Server) SeedDefault() {
	leads := []map[string]any{
		{
			"name": "Ananya Iyer", "phone": "9812340001", "stage": "fresh",
			"priority": "hot", "source": "website", "budget": "7500000",
			"labels": "investor,urgent", "requirement": "3BHK near tech park",
			"property_type": "apartment", "assigned_to": "asha",
			"in_pipeline": "1", "custom_fields": `{"preferred_floor":"high"}`,
		},
		{
			"name": "Rohit Sharma", "phone": "9812340002", "stage": "contacted",
			"priority": "warm", "source": "referral", "budget": "4200000",
			"labels": "first-home", "requirement": "2BHK, east facing",
			"property_type": "apartment", "assigned_to": "ravi",
			"in_pipeline": "1",
		},
		{
			"name": "Farida Khan", "phone": "9812340003", "stage": "site_visit",
			"priority": "hot", "source": "walk_in", "budget": "12000000",
			"requirement": "villa plot", "property_type": "plot",
			"assigned_to": "meera", "in_pipeline": "0",
		},
	}
	for _, l := range leads {
		s.Seed("contacts", l)
	}
	s.Seed("activities", map[string]any{
		"lead_id": "1", "type": "Activity", "status": "Pending",
		"description":  "Site visit for tower B",
		"scheduled_at": "2025-09-03T11:00:00Z", "participants": "asha,ravi",
	})
	s.Seed("activities", map[string]any{
		"lead_id": "2", "type": "Activity", "status": "Completed",
		"description": "Intro call", "response": "Interested, share brochure",
		"scheduled_at": "2025-08-20T15:30:00Z",
	})
}

// Handler returns the HTTP surface: the read/write resource endpoints plus
// the options catalog, CORS-enabled for browser front-ends.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Get("/{resource}", s.handleList)
		r.Post("/{resource}", s.handleCreate)
		r.Get("/{resource}/{id}", s.handleGet)
		r.Put("/{resource}/{id}", s.handleUpdate)
		r.Delete("/{resource}/{id}", s.handleDelete)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func failure(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": fmt.Sprintf(format, args...),
	})
}

func (s *Server) resource(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "resource")
	if _, ok := s.records[name]; !ok {
		failure(w, http.StatusNotFound, "unknown resource %q", name)
		return "", false
	}
	return name, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resource(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	var matched []map[string]any
	for _, rec := range s.records[name] {
		if matchesQuery(rec, q) {
			matched = append(matched, rec)
		}
	}
	s.mu.Unlock()

	if sortBy := q.Get("sort_by"); sortBy != "" {
		desc := q.Get("sort_dir") == "desc"
		sort.SliceStable(matched, func(i, j int) bool {
			less := compareField(matched[i][sortBy], matched[j][sortBy]) < 0
			if desc {
				return !less
			}
			return less
		})
	}

	total := len(matched)
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    matched[start:end],
		"meta":    map[string]any{"total": total},
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resource(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[name] {
		if recordID(rec) == id {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
			return
		}
	}
	failure(w, http.StatusNotFound, "no %s with id %d", name, id)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resource(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		failure(w, http.StatusBadRequest, "invalid body: %v", err)
		return
	}

	s.mu.Lock()
	id := s.insert(name, fields)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resource(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		failure(w, http.StatusBadRequest, "invalid body: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[name] {
		if recordID(rec) == id {
			for k, v := range fields {
				if k == "id" {
					continue
				}
				rec[k] = v
			}
			rec["updated_at"] = "2025-09-01T00:00:00Z"
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
			return
		}
	}
	failure(w, http.StatusNotFound, "no %s with id %d", name, id)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name, ok := s.resource(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records[name]
	for i, rec := range recs {
		if recordID(rec) == id {
			s.records[name] = append(recs[:i], recs[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	failure(w, http.StatusNotFound, "no %s with id %d", name, id)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.catalog)
}

func recordID(rec map[string]any) int64 {
	switch v := rec["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	default:
		return 0
	}
}

// matchesQuery applies the per-field filter parameters the way production
// does: exact match for enums and owners, substring for search, numeric
// bounds for budget.
func matchesQuery(rec map[string]any, q map[string][]string) bool {
	for key, vals := range q {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		val := vals[0]
		switch key {
		case "page", "per_page", "sort_by", "sort_dir":
			continue
		case "search":
			hay := strings.ToLower(str(rec["name"]) + " " + str(rec["phone"]) + " " + str(rec["requirement"]))
			if !strings.Contains(hay, strings.ToLower(val)) {
				return false
			}
		case "budget_min":
			if fieldFloat(rec["budget"]) < parseFloat(val) {
				return false
			}
		case "budget_max":
			if fieldFloat(rec["budget"]) > parseFloat(val) {
				return false
			}
		case "in_pipeline":
			if str(rec["in_pipeline"]) != val {
				return false
			}
		default:
			if str(rec[key]) != val {
				return false
			}
		}
	}
	return true
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func fieldFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		return parseFloat(val)
	default:
		return 0
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func compareField(a, b any) int {
	af, bf := fieldFloat(a), fieldFloat(b)
	if af != 0 || bf != 0 {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
	}
	return strings.Compare(str(a), str(b))
}
