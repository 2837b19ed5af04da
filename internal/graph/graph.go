// Package graph lays out a task's milestone dependency forest: level
// assignment by breadth-first traversal over parent pointers, then a
// geometry pass that turns measured bubble sizes into boxes and connector
// lines.
package graph

import (
	"sort"

	"milepost-cli/internal/model"
)

// Level is one horizontal row of the rendered forest. Index 0 holds the
// roots; within a level milestones are ordered by creation time ascending
// so the layout is deterministic across renders.
type Level struct {
	Index      int
	Milestones []model.Milestone
}

// ResolveParents maps milestone id → parent id, keeping only parent
// references that resolve to *another* milestone in the same set. A
// dangling parentId (deleted sibling, cross-task reference) and a
// self-parent both drop out: the milestone is treated as a root. This is
// a deliberate tolerant-read policy, not error recovery — the records
// themselves are never mutated.
func ResolveParents(ms []model.Milestone) map[string]string {
	byID := make(map[string]bool, len(ms))
	for _, m := range ms {
		byID[m.ID] = true
	}
	out := make(map[string]string)
	for _, m := range ms {
		if m.ParentID == nil {
			continue
		}
		pid := *m.ParentID
		if pid == "" || pid == m.ID || !byID[pid] {
			continue
		}
		out[m.ID] = pid
	}
	return out
}

// Assign buckets the milestones into levels. Roots (no resolvable parent)
// get level 0; every other milestone gets parent level + 1, assigned
// breadth-first. A milestone is leveled at most once, which both keeps the
// traversal linear and makes cyclic parent chains safe: members of a cycle
// are unreachable from any root and fall back to level 0 instead of
// looping forever or being dropped.
func Assign(ms []model.Milestone) []Level {
	if len(ms) == 0 {
		return nil
	}

	parent := ResolveParents(ms)

	children := make(map[string][]string)
	for id, pid := range parent {
		children[pid] = append(children[pid], id)
	}

	level := make(map[string]int, len(ms))
	var queue []string
	for _, m := range ms {
		if _, hasParent := parent[m.ID]; !hasParent {
			level[m.ID] = 0
			queue = append(queue, m.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if _, done := level[child]; done {
				continue
			}
			level[child] = level[id] + 1
			queue = append(queue, child)
		}
	}

	// Anything still unleveled sits on a cycle; park it with the roots.
	for _, m := range ms {
		if _, done := level[m.ID]; !done {
			level[m.ID] = 0
		}
	}

	buckets := make(map[int][]model.Milestone)
	maxLevel := 0
	for _, m := range ms {
		l := level[m.ID]
		buckets[l] = append(buckets[l], m)
		if l > maxLevel {
			maxLevel = l
		}
	}

	out := make([]Level, 0, maxLevel+1)
	for i := 0; i <= maxLevel; i++ {
		row := buckets[i]
		if len(row) == 0 {
			continue
		}
		model.SortMilestonesByCreation(row)
		out = append(out, Level{Index: i, Milestones: row})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
