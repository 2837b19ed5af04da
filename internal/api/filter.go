package api

import (
	"net/url"
	"strings"
)

// Sort keys accepted by the tasks-summary endpoint. Anything else falls
// back to updatedAt (descending) on the server side.
const (
	SortUpdatedAt = "updatedAt"
	SortDeadline  = "deadline"
	SortPriority  = "priority"
	SortFrom      = "from"
)

// Filter mirrors the tasks-summary query surface: free-text search,
// multi-select category/status sets, four independent date ranges and a
// sort key. Dates are YYYY-MM-DD; empty means unbounded. Filtering and
// sorting happen server-side; the client never filters the full task set
// locally.
type Filter struct {
	Query      string
	Categories []string
	Statuses   []string

	CreatedFrom  string
	CreatedTo    string
	UpdatedFrom  string
	UpdatedTo    string
	DeadlineFrom string
	DeadlineTo   string
	FinishedFrom string
	FinishedTo   string

	SortBy string
}

// Values encodes the filter with the wire parameter names.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(f.Query); q != "" {
		v.Set("q", q)
	}
	if len(f.Categories) > 0 {
		v.Set("categories", strings.Join(f.Categories, ","))
	}
	if len(f.Statuses) > 0 {
		v.Set("statuses", strings.Join(f.Statuses, ","))
	}
	setRange := func(fromKey, toKey, from, to string) {
		if from = strings.TrimSpace(from); from != "" {
			v.Set(fromKey, from)
		}
		if to = strings.TrimSpace(to); to != "" {
			v.Set(toKey, to)
		}
	}
	setRange("createdRF", "createdRT", f.CreatedFrom, f.CreatedTo)
	setRange("updatedRF", "updatedRT", f.UpdatedFrom, f.UpdatedTo)
	setRange("deadlineRF", "deadlineRT", f.DeadlineFrom, f.DeadlineTo)
	setRange("finishedRF", "finishedRT", f.FinishedFrom, f.FinishedTo)
	if s := strings.TrimSpace(f.SortBy); s != "" {
		v.Set("sortBy", s)
	}
	return v
}
