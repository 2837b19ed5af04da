package model

import (
	"sort"
	"strings"
	"time"
)

// Task is the top-level work item. Creator is the username that owns write
// access; it is empty until the first save claims it and immutable after.
type Task struct {
	ID          string       `json:"id"`
	Creator     string       `json:"creator,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Priority    int          `json:"priority"` // 1..5, 1 = highest
	Deadline    *time.Time   `json:"deadline,omitempty"`
	FinishDate  *time.Time   `json:"finishDate,omitempty"`
	From        string       `json:"from,omitempty"`
	Categories  []string     `json:"categories,omitempty"` // insertion order preserved
	Status      string       `json:"status,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Attachment is an inline file attached to a task. Data is a data: URI.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Milestone is a sub-goal of exactly one task. ParentID, when set, points at
// a sibling milestone within the same task. A dangling ParentID is tolerated
// on read (the graph treats it as a root); it is not rejected at write time.
type Milestone struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"taskId"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	FinishDate *time.Time `json:"finishDate,omitempty"`
	Status     string     `json:"status,omitempty"`
	ParentID   *string    `json:"parentId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// TaskSummary is the lightweight list representation returned by the
// tasks-summary endpoint. Heavy fields (description, notes, attachments)
// are omitted by the server.
type TaskSummary struct {
	ID         string     `json:"id"`
	Creator    string     `json:"creator,omitempty"`
	Title      string     `json:"title"`
	From       string     `json:"from,omitempty"`
	Priority   int        `json:"priority"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	FinishDate *time.Time `json:"finishDate,omitempty"`
	Status     string     `json:"status,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Taxonomies are the three user-editable controlled vocabularies. Order is
// display order; entries are unique.
type Taxonomies struct {
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
	Froms      []string `json:"froms"`
}

// HasCategory reports whether the task lists the category.
func (t Task) HasCategory(c string) bool {
	for _, x := range t.Categories {
		if x == c {
			return true
		}
	}
	return false
}

// Summary derives the lightweight representation from a full task.
func (t Task) Summary() TaskSummary {
	return TaskSummary{
		ID:         t.ID,
		Creator:    t.Creator,
		Title:      t.Title,
		From:       t.From,
		Priority:   t.Priority,
		Deadline:   t.Deadline,
		FinishDate: t.FinishDate,
		Status:     t.Status,
		Categories: append([]string(nil), t.Categories...),
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

// SortMilestonesByCreation orders milestones by createdAt ascending with id
// as the tiebreak, the stable order the graph uses inside a level.
func SortMilestonesByCreation(ms []Milestone) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].ID < ms[j].ID
		}
		return ms[i].CreatedAt.Before(ms[j].CreatedAt)
	})
}

// NormalizeCategories trims entries and drops duplicates while preserving
// first-seen order.
func NormalizeCategories(cats []string) []string {
	out := make([]string, 0, len(cats))
	seen := map[string]bool{}
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
