package crm

import (
	"testing"
	"time"
)

func TestQueryKey_FilterOrderIndependent(t *testing.T) {
	q1 := LeadQuery{
		Page: 1, PerPage: 20,
		Filters: []FilterOption{
			{Field: "stage", Op: OpEq, Value: "Fresh Lead"},
			{Field: "budget", Op: OpGte, Value: 500000},
		},
	}
	q2 := LeadQuery{
		Page: 1, PerPage: 20,
		Filters: []FilterOption{
			{Field: "budget", Op: OpGte, Value: 500000},
			{Field: "stage", Op: OpEq, Value: "Fresh Lead"},
		},
	}
	if queryKey(q1) != queryKey(q2) {
		t.Errorf("keys differ for reordered filters:\n%s\n%s", queryKey(q1), queryKey(q2))
	}
}

func TestQueryKey_DistinguishesQueries(t *testing.T) {
	base := LeadQuery{Page: 1, PerPage: 20, SortBy: "budget", SortDir: "asc"}
	variants := []LeadQuery{
		{Page: 2, PerPage: 20, SortBy: "budget", SortDir: "asc"},
		{Page: 1, PerPage: 50, SortBy: "budget", SortDir: "asc"},
		{Page: 1, PerPage: 20, SortBy: "budget", SortDir: "desc"},
		{Page: 1, PerPage: 20, SortBy: "name", SortDir: "asc"},
		{Page: 1, PerPage: 20, SortBy: "budget", SortDir: "asc", Search: "anan"},
		{Page: 1, PerPage: 20, SortBy: "budget", SortDir: "asc",
			Filters: []FilterOption{{Field: "stage", Op: OpEq, Value: "Booked"}}},
	}
	for i, v := range variants {
		if queryKey(base) == queryKey(v) {
			t.Errorf("variant %d collides with base key %q", i, queryKey(base))
		}
	}
	// Same filter field with a different value must not collide either.
	withA := base
	withA.Filters = []FilterOption{{Field: "stage", Op: OpEq, Value: "Booked"}}
	withB := base
	withB.Filters = []FilterOption{{Field: "stage", Op: OpEq, Value: "Dropped"}}
	if queryKey(withA) == queryKey(withB) {
		t.Error("differing filter values collide")
	}
}

func TestPageCache_HitAndKeyMismatch(t *testing.T) {
	var c pageCache
	now := time.Now()
	page := LeadPage{Items: []Lead{{ID: 1}}, Total: 42}
	c.store("k1", page, now)

	got, ok := c.tryGet("k1", now.Add(time.Second))
	if !ok {
		t.Fatal("expected hit for matching key inside window")
	}
	if got.Total != 42 || len(got.Items) != 1 {
		t.Errorf("got %+v", got)
	}

	if _, ok := c.tryGet("k2", now.Add(time.Second)); ok {
		t.Error("expected miss for different key")
	}
}

func TestPageCache_Expiry(t *testing.T) {
	var c pageCache
	now := time.Now()
	c.store("k", LeadPage{Total: 1}, now)

	if _, ok := c.tryGet("k", now.Add(cacheFreshFor-time.Second)); !ok {
		t.Error("expected hit just inside the freshness window")
	}
	if _, ok := c.tryGet("k", now.Add(cacheFreshFor)); ok {
		t.Error("expected miss at exactly the freshness window")
	}
	if _, ok := c.tryGet("k", now.Add(cacheFreshFor+time.Minute)); ok {
		t.Error("expected miss past the freshness window")
	}
}

func TestPageCache_Clear(t *testing.T) {
	var c pageCache
	now := time.Now()
	c.store("k", LeadPage{Total: 1}, now)
	c.clear()
	if _, ok := c.tryGet("k", now); ok {
		t.Error("expected miss after clear")
	}
}

func TestPageCache_StoreReplacesWholeSlot(t *testing.T) {
	var c pageCache
	now := time.Now()
	c.store("k1", LeadPage{Total: 1}, now)
	c.store("k2", LeadPage{Total: 2}, now)

	if _, ok := c.tryGet("k1", now); ok {
		t.Error("old key still served after replacement")
	}
	got, ok := c.tryGet("k2", now)
	if !ok || got.Total != 2 {
		t.Errorf("new entry not served: ok=%v got=%+v", ok, got)
	}
}
