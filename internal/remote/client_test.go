package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret-key")
}

func TestList(t *testing.T) {
	var gotPath, gotAuth, gotReqID string
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": "1", "name": "Ananya"}, {"id": "2", "name": "Rohit"}},
			"meta":    map[string]any{"total": 41},
		})
	})

	q := url.Values{"page": {"2"}, "per_page": {"20"}}
	recs, total, err := client.List(context.Background(), "contacts", q)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if gotPath != "/api/v1/contacts" {
		t.Errorf("path = %q, want /api/v1/contacts", gotPath)
	}
	if gotQuery.Get("page") != "2" || gotQuery.Get("per_page") != "20" {
		t.Errorf("query = %v, want page=2 per_page=20", gotQuery)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotReqID == "" {
		t.Error("X-Request-ID header missing")
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if total != 41 {
		t.Errorf("total = %d, want 41", total)
	}
	if recs[0]["name"] != "Ananya" {
		t.Errorf("first record name = %v, want Ananya", recs[0]["name"])
	}
}

func TestList_EnvelopeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid filter"})
	})

	_, _, err := client.List(context.Background(), "contacts", nil)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
	if remoteErr.Resource != "contacts" || remoteErr.Message != "invalid filter" {
		t.Errorf("RemoteError = %+v", remoteErr)
	}
}

func TestList_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, _, err := client.List(context.Background(), "contacts", nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
}

func TestGet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contacts/7" {
			t.Errorf("path = %q, want /api/v1/contacts/7", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "7", "name": "Farida"},
		})
	})

	rec, err := client.Get(context.Background(), "contacts", 7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec["name"] != "Farida" {
		t.Errorf("name = %v, want Farida", rec["name"])
	}
}

func TestGet_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "404 with envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "not found"})
			},
		},
		{
			name: "404 without body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "200 with empty data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"success": false})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Get(context.Background(), "contacts", 999)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": 42})
	})

	id, err := client.Create(context.Background(), "contacts", map[string]any{"name": "New Lead"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if gotBody["name"] != "New Lead" {
		t.Errorf("body = %v, want name=New Lead", gotBody)
	}
}

func TestUpdate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/api/v1/contacts/7" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	if err := client.Update(context.Background(), "contacts", 7, map[string]any{"stage": "booked"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

func TestDelete_EnvelopeFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "record locked"})
	})

	err := client.Delete(context.Background(), "contacts", 7)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want *RemoteError", err)
	}
}

func TestFetchCatalog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/options" {
			t.Errorf("path = %q, want /api/v1/options", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tags":        []string{"investor", "nri"},
			"assigned_to": []string{"asha", "vikram"},
			"lists":       []string{"Q3 walk-ins"},
		})
	})

	cat, err := client.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog() error = %v", err)
	}
	if len(cat.Tags) != 2 || cat.Tags[0] != "investor" {
		t.Errorf("tags = %v", cat.Tags)
	}
	if len(cat.AssignedTo) != 2 || len(cat.Lists) != 1 {
		t.Errorf("catalog = %+v", cat)
	}
}

func TestNoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, "")
	if _, _, err := client.List(context.Background(), "contacts", nil); err != nil {
		t.Fatalf("List() error = %v", err)
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Op: "GET /api/v1/contacts", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("TransportError must unwrap to its cause")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
