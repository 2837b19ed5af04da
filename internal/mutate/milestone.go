package mutate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"milepost-cli/internal/model"
	"milepost-cli/internal/perm"
	"milepost-cli/internal/session"
)

// SaveMilestone validates and persists one milestone of owner. The parent
// selection may only be a sibling the editor offered, so the one
// write-time graph rule enforced here is no self-parent; a parentId that
// stops resolving later (sibling deleted elsewhere, imported data) is
// tolerated on read by the graph instead.
func SaveMilestone(ctx context.Context, d Deps, owner *model.Task, m *model.Milestone) error {
	if owner == nil || strings.TrimSpace(owner.Creator) == "" {
		// The editor refuses to open for a task that was never saved; this
		// guards the scripted path too.
		return ErrTaskNotSaved
	}
	if strings.TrimSpace(m.Title) == "" {
		return ErrTitleRequired
	}
	username := strings.TrimSpace(d.Session.Username())
	if username == "" {
		return session.ErrAuthRequired
	}
	if !perm.CanEditMilestone(username, owner) {
		return &CreatorMismatchError{Username: username, Creator: owner.Creator, TaskID: owner.ID}
	}

	if strings.TrimSpace(m.ID) == "" {
		m.ID = "ms-" + uuid.NewString()
	}
	m.TaskID = owner.ID
	if m.ParentID != nil && *m.ParentID == m.ID {
		return ErrSelfParent
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	model.SanitizeMilestone(m)

	cacheErr := d.Cache.PutMilestone(ctx, *m)
	apiErr := d.API.SaveMilestone(ctx, *m)
	return errors.Join(cacheErr, apiErr)
}

// DeleteMilestone removes one milestone. A milestone with children (any
// sibling whose parentId names it) cannot be deleted; the check runs
// against the freshly loaded sibling set, not a cached snapshot, and a
// rejection never contacts the delete endpoint.
func DeleteMilestone(ctx context.Context, d Deps, owner *model.Task, milestoneID string) error {
	if owner == nil || strings.TrimSpace(owner.Creator) == "" {
		return ErrTaskNotSaved
	}
	username := strings.TrimSpace(d.Session.Username())
	if username == "" {
		return session.ErrAuthRequired
	}
	if !perm.CanEditMilestone(username, owner) {
		return &CreatorMismatchError{Username: username, Creator: owner.Creator, TaskID: owner.ID}
	}

	siblings, err := d.API.LoadMilestones(ctx, owner.ID)
	if err != nil {
		return err
	}
	var children []string
	for _, s := range siblings {
		if s.ParentID != nil && *s.ParentID == milestoneID && s.ID != milestoneID {
			children = append(children, s.ID)
		}
	}
	if len(children) > 0 {
		return &HasChildrenError{MilestoneID: milestoneID, ChildIDs: children}
	}

	cacheErr := d.Cache.DeleteMilestone(ctx, milestoneID)
	apiErr := d.API.DeleteMilestone(ctx, owner.ID, milestoneID)
	return errors.Join(cacheErr, apiErr)
}
