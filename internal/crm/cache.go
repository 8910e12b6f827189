package crm

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// cacheFreshFor is the freshness window for the lead page cache. A stored
// entry older than this is never served, even with an unchanged key.
const cacheFreshFor = 2 * time.Minute

// pageCache is the single-slot, time-boxed cache of the most recent lead
// query. Any write replaces the whole slot; entries never merge. This trades
// fine-grained invalidation for simplicity: a mutation discards otherwise
// valid cached data, which is acceptable because the next list render pays
// one extra fetch at most.
//
// pageCache is not self-locking; the owning Store serializes access.
type pageCache struct {
	key      string
	page     LeadPage
	storedAt time.Time
}

// tryGet returns the cached page when the canonical key matches exactly and
// the entry is still fresh at time now.
func (c *pageCache) tryGet(key string, now time.Time) (LeadPage, bool) {
	if c.key == "" || c.key != key {
		return LeadPage{}, false
	}
	if now.Sub(c.storedAt) >= cacheFreshFor {
		return LeadPage{}, false
	}
	return c.page, true
}

func (c *pageCache) store(key string, page LeadPage, now time.Time) {
	c.key = key
	c.page = page
	c.storedAt = now
}

func (c *pageCache) clear() {
	*c = pageCache{}
}

// queryKey builds the canonical cache/dedup key for a lead query. Filters are
// sorted by field name first so the key is independent of filter append
// order; everything else about the query contributes verbatim, so differing
// page, sort, or filter values never collide.
func queryKey(q LeadQuery) string {
	filters := make([]FilterOption, len(q.Filters))
	copy(filters, q.Filters)
	sort.SliceStable(filters, func(i, j int) bool {
		if filters[i].Field != filters[j].Field {
			return filters[i].Field < filters[j].Field
		}
		return filters[i].Op < filters[j].Op
	})

	var b strings.Builder
	fmt.Fprintf(&b, "page=%d&per_page=%d&sort=%s:%s&search=%s&pipeline=%t",
		q.Page, q.PerPage, q.SortBy, q.SortDir, q.Search, q.Pipeline)
	for _, f := range filters {
		fmt.Fprintf(&b, "&f[%s:%s]=%v", f.Field, f.Op, f.Value)
	}
	return b.String()
}
