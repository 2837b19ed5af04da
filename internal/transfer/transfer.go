// Package transfer implements the import/export file format: a single
// JSON document of tasks (with nested milestones) plus the three
// taxonomies. Import goes through the same save path as manual edits, so
// re-importing an export with matching ids is an idempotent upsert.
package transfer

import (
	"context"
	"fmt"

	"milepost-cli/internal/model"
	"milepost-cli/internal/mutate"
	"milepost-cli/internal/taxonomy"
)

// Document is the interchange format.
type Document struct {
	Tasks      []TaskRecord `json:"tasks"`
	Categories []string     `json:"categories"`
	Statuses   []string     `json:"statuses"`
	Froms      []string     `json:"froms"`
}

// TaskRecord nests a task's milestones under it for the file format.
type TaskRecord struct {
	model.Task
	Milestones []model.Milestone `json:"milestones,omitempty"`
}

// ItemError records one failed item of a batch.
type ItemError struct {
	Kind string // "task", "milestone" or "taxonomy"
	ID   string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

// Result reports a partial-failure import: the batch continues past
// individual failures and collects them instead of aborting.
type Result struct {
	Imported int
	Failed   []ItemError
}

// Export assembles the document from the local mirror.
func Export(ctx context.Context, d mutate.Deps) (*Document, error) {
	tasks, err := d.Cache.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := taxonomy.Load(ctx, d.Cache)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Tasks:      make([]TaskRecord, 0, len(tasks)),
		Categories: tx.Categories,
		Statuses:   tx.Statuses,
		Froms:      tx.Froms,
	}
	for _, t := range tasks {
		ms, err := d.Cache.MilestonesForTask(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		doc.Tasks = append(doc.Tasks, TaskRecord{Task: t, Milestones: ms})
	}
	return doc, nil
}

// Import merges the document: taxonomies are unioned (de-duplicated,
// existing order kept) and every task/milestone is upserted through the
// regular save workflow. One bad item doesn't abort the batch.
func Import(ctx context.Context, d mutate.Deps, doc Document) Result {
	var res Result

	merges := []struct {
		kind   taxonomy.Kind
		values []string
	}{
		{taxonomy.KindCategory, doc.Categories},
		{taxonomy.KindStatus, doc.Statuses},
		{taxonomy.KindFrom, doc.Froms},
	}
	for _, m := range merges {
		if err := taxonomy.Merge(ctx, d.Cache, m.kind, m.values); err != nil {
			res.Failed = append(res.Failed, ItemError{Kind: "taxonomy", ID: string(m.kind), Err: err})
		}
	}

	for i := range doc.Tasks {
		rec := doc.Tasks[i]
		t := rec.Task
		if err := mutate.SaveTask(ctx, d, &t); err != nil {
			res.Failed = append(res.Failed, ItemError{Kind: "task", ID: t.ID, Err: err})
			continue
		}
		res.Imported++

		for j := range rec.Milestones {
			m := rec.Milestones[j]
			if err := mutate.SaveMilestone(ctx, d, &t, &m); err != nil {
				res.Failed = append(res.Failed, ItemError{Kind: "milestone", ID: m.ID, Err: err})
				continue
			}
			res.Imported++
		}
	}
	return res
}
