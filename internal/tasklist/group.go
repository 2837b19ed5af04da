package tasklist

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"milepost-cli/internal/model"
)

// GroupKey selects the client-side grouping pass applied to the flat,
// server-sorted summary list. The server sorts but never groups.
type GroupKey string

const (
	GroupNone     GroupKey = ""
	GroupStatus   GroupKey = "status"
	GroupFrom     GroupKey = "from"
	GroupPriority GroupKey = "priority"
	GroupCategory GroupKey = "category"

	GroupYearCreated   GroupKey = "year-created"
	GroupYearUpdated   GroupKey = "year-updated"
	GroupYearDeadline  GroupKey = "year-deadline"
	GroupYearFinished  GroupKey = "year-finished"
	GroupMonthCreated  GroupKey = "month-created"
	GroupMonthUpdated  GroupKey = "month-updated"
	GroupMonthDeadline GroupKey = "month-deadline"
	GroupMonthFinished GroupKey = "month-finished"
)

// noValueLabel names the bucket for tasks missing the grouped field. It
// always sorts last.
const noValueLabel = "(none)"

// Bucket is one named group of tasks. Tasks keep the server-provided
// order; a task appears at most once per bucket.
type Bucket struct {
	Key   string
	Tasks []model.TaskSummary
}

// Group partitions the summary list into buckets by key. Grouping by
// category puts a task into every bucket of every category it carries
// (deduplicated per bucket by id). Bucket keys sort numerically for
// priority/year/month-year groups and alphabetically otherwise, with the
// no-value bucket last.
func Group(list []model.TaskSummary, key GroupKey) []Bucket {
	if key == GroupNone {
		if len(list) == 0 {
			return nil
		}
		return []Bucket{{Key: "", Tasks: list}}
	}

	order := []string{}
	byKey := map[string][]model.TaskSummary{}
	seen := map[string]map[string]bool{} // bucket key → task id

	add := func(bucket string, t model.TaskSummary) {
		if bucket == "" {
			bucket = noValueLabel
		}
		if seen[bucket] == nil {
			seen[bucket] = map[string]bool{}
			order = append(order, bucket)
		}
		if seen[bucket][t.ID] {
			return
		}
		seen[bucket][t.ID] = true
		byKey[bucket] = append(byKey[bucket], t)
	}

	for _, t := range list {
		switch key {
		case GroupStatus:
			add(t.Status, t)
		case GroupFrom:
			add(t.From, t)
		case GroupPriority:
			if t.Priority == 0 {
				add("", t)
			} else {
				add(strconv.Itoa(t.Priority), t)
			}
		case GroupCategory:
			if len(t.Categories) == 0 {
				add("", t)
			}
			for _, c := range t.Categories {
				add(c, t)
			}
		default:
			add(dateBucket(key, t), t)
		}
	}

	sortBucketKeys(order, key)

	out := make([]Bucket, 0, len(order))
	for _, k := range order {
		out = append(out, Bucket{Key: k, Tasks: byKey[k]})
	}
	return out
}

func dateBucket(key GroupKey, t model.TaskSummary) string {
	var ts *time.Time
	month := false
	switch key {
	case GroupYearCreated:
		ts = &t.CreatedAt
	case GroupYearUpdated:
		ts = &t.UpdatedAt
	case GroupYearDeadline:
		ts = t.Deadline
	case GroupYearFinished:
		ts = t.FinishDate
	case GroupMonthCreated:
		ts, month = &t.CreatedAt, true
	case GroupMonthUpdated:
		ts, month = &t.UpdatedAt, true
	case GroupMonthDeadline:
		ts, month = t.Deadline, true
	case GroupMonthFinished:
		ts, month = t.FinishDate, true
	}
	if ts == nil || ts.IsZero() {
		return ""
	}
	if month {
		return ts.Format("2006-01")
	}
	return ts.Format("2006")
}

func sortBucketKeys(keys []string, group GroupKey) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a == noValueLabel {
			return false
		}
		if b == noValueLabel {
			return true
		}
		switch group {
		case GroupPriority:
			na, errA := strconv.Atoi(a)
			nb, errB := strconv.Atoi(b)
			if errA == nil && errB == nil {
				return na < nb
			}
		}
		// Year ("2006") and month-year ("2006-01") keys are zero-padded, so
		// lexicographic order is chronological order.
		return a < b
	})
}

// Label renders a bucket key for display.
func Label(group GroupKey, key string) string {
	if key == noValueLabel || key == "" {
		return noValueLabel
	}
	if group == GroupPriority {
		return fmt.Sprintf("Priority %s", key)
	}
	return key
}
