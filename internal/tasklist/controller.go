// Package tasklist owns the left-panel list state: the current
// filter/sort/group selections, the summary fetch against the server, and
// the client-side grouping pass over the flat sorted list the server
// returns.
package tasklist

import (
	"context"
	"strconv"

	"milepost-cli/internal/api"
	"milepost-cli/internal/cache"
	"milepost-cli/internal/model"
)

// Controller drives the task list. It issues exactly one summary request
// per filter-state change and fences responses with a monotonic token so
// a slow older response can never overwrite a newer one.
type Controller struct {
	api   *api.Client
	cache *cache.Cache

	filter api.Filter
	group  GroupKey

	// Request fencing: seq is bumped per fetch; applied remembers the
	// newest token whose response has been accepted.
	seq     uint64
	applied uint64

	// lastList keeps the flat server-ordered list so group-key changes
	// can regroup without refetching.
	lastList []model.TaskSummary
	buckets  []Bucket
	fetchErr error
}

// New builds a controller. cache may be nil in contexts without a local
// mirror (selection persistence is then skipped).
func New(a *api.Client, c *cache.Cache) *Controller {
	return &Controller{api: a, cache: c, filter: api.Filter{SortBy: api.SortUpdatedAt}}
}

// Filter returns the current filter selections.
func (c *Controller) Filter() api.Filter { return c.filter }

// SetFilter replaces the filter selections and persists the multi-select
// sets so the next session starts where this one left off.
func (c *Controller) SetFilter(ctx context.Context, f api.Filter) {
	c.filter = f
	c.persistSelections(ctx)
}

// Group returns the current group key.
func (c *Controller) Group() GroupKey { return c.group }

// SetGroup changes the grouping pass. Grouping is purely client-side, so
// no refetch is needed; the next Buckets call regroups the cached list.
func (c *Controller) SetGroup(g GroupKey) {
	c.group = g
	c.regroup()
}

// Begin starts a fetch generation and returns the fencing token plus the
// filter snapshot the request should carry.
func (c *Controller) Begin() (uint64, api.Filter) {
	c.seq++
	return c.seq, c.filter
}

// Apply accepts one fetch outcome. Stale responses (an older token than
// one already applied) are discarded, which is exactly the out-of-order
// hazard of rapid filter changes. Returns whether the response was used.
func (c *Controller) Apply(token uint64, list []model.TaskSummary, err error) bool {
	if token < c.applied {
		return false
	}
	c.applied = token
	if err != nil {
		// Inline error state: the list view renders this instead of rows.
		c.fetchErr = err
		c.buckets = nil
		return true
	}
	c.fetchErr = nil
	c.lastList = list
	c.regroup()
	return true
}

// Fetch is the synchronous convenience used by the CLI: one request, one
// apply.
func (c *Controller) Fetch(ctx context.Context) error {
	token, f := c.Begin()
	list, err := c.api.TaskSummaries(ctx, f)
	c.Apply(token, list, err)
	return err
}

// Buckets returns the grouped view of the last accepted response.
func (c *Controller) Buckets() []Bucket { return c.buckets }

// Err returns the inline error of the last accepted response, if any.
func (c *Controller) Err() error { return c.fetchErr }

// Open fetches the full record for a selected summary (summaries omit
// description/notes/attachments) and mirrors it into the cache.
func (c *Controller) Open(ctx context.Context, taskID string) (*model.Task, error) {
	t, err := c.api.LoadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		_ = c.cache.PutTask(ctx, *t)
	}
	return t, nil
}

func (c *Controller) regroup() {
	c.buckets = Group(c.lastList, c.group)
}

// RestoreSelections loads the persisted multi-select filter sets and the
// filter section visibility from cache metadata.
func (c *Controller) RestoreSelections(ctx context.Context) {
	if c.cache == nil {
		return
	}
	var cats, stats []string
	if ok, err := c.cache.GetMetaJSON(ctx, cache.MetaSelectedFilterCategories, &cats); err == nil && ok {
		c.filter.Categories = cats
	}
	if ok, err := c.cache.GetMetaJSON(ctx, cache.MetaSelectedFilterStatuses, &stats); err == nil && ok {
		c.filter.Statuses = stats
	}
}

func (c *Controller) persistSelections(ctx context.Context) {
	if c.cache == nil {
		return
	}
	_ = c.cache.PutMetaJSON(ctx, cache.MetaSelectedFilterCategories, c.filter.Categories)
	_ = c.cache.PutMetaJSON(ctx, cache.MetaSelectedFilterStatuses, c.filter.Statuses)
}

// FilterSectionVisible reads the persisted filter-panel visibility flag
// (defaults to visible).
func (c *Controller) FilterSectionVisible(ctx context.Context) bool {
	if c.cache == nil {
		return true
	}
	v, ok, err := c.cache.GetMeta(ctx, cache.MetaFilterSectionVisible)
	if err != nil || !ok {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// SetFilterSectionVisible persists the filter-panel visibility flag.
func (c *Controller) SetFilterSectionVisible(ctx context.Context, visible bool) {
	if c.cache == nil {
		return
	}
	_ = c.cache.PutMeta(ctx, cache.MetaFilterSectionVisible, strconv.FormatBool(visible))
}
