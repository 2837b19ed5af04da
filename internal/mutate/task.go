// Package mutate implements the save/delete workflows shared by the CLI
// and TUI editors: validate locally, write the optimistic cache mirror,
// then call the server. The cache and server writes are not
// transactionally linked; on failure the caller keeps the in-memory
// record so the user can retry.
package mutate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"milepost-cli/internal/api"
	"milepost-cli/internal/cache"
	"milepost-cli/internal/model"
	"milepost-cli/internal/perm"
	"milepost-cli/internal/session"
)

// Deps are the constructor-injected collaborators of every workflow.
type Deps struct {
	Cache   *cache.Cache
	API     *api.Client
	Session *session.Session
}

// SaveTask validates and persists a task. The first save by an
// authenticated user claims ownership; later saves by anyone else are
// refused client-side without touching the network. The task is mutated
// in place (id, creator, timestamps, sanitized markup) so a failed save
// leaves an intact buffer for retry.
func SaveTask(ctx context.Context, d Deps, t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	username := strings.TrimSpace(d.Session.Username())
	if username == "" {
		return session.ErrAuthRequired
	}
	if !perm.CanEditTask(username, t) {
		return &CreatorMismatchError{Username: username, Creator: t.Creator, TaskID: t.ID}
	}
	if strings.TrimSpace(t.Creator) == "" {
		t.Creator = username
	}

	if strings.TrimSpace(t.ID) == "" {
		t.ID = "task-" + uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	t.Categories = model.NormalizeCategories(t.Categories)
	model.SanitizeTask(t)

	// Cache first (optimistic), then the server of record. Either can fail
	// independently; both failures surface to the caller.
	cacheErr := d.Cache.PutTask(ctx, *t)
	apiErr := d.API.SaveTask(ctx, *t)
	return errors.Join(cacheErr, apiErr)
}

// DeleteTask removes a task. The server cascade-deletes the task's
// milestones; the local mirror follows with sequential, best-effort
// deletes (task record, then its milestones).
func DeleteTask(ctx context.Context, d Deps, t *model.Task) error {
	username := strings.TrimSpace(d.Session.Username())
	if username == "" {
		return session.ErrAuthRequired
	}
	if strings.TrimSpace(t.Creator) == "" || t.Creator != username {
		return &CreatorMismatchError{Username: username, Creator: t.Creator, TaskID: t.ID}
	}

	cacheErr := d.Cache.DeleteTask(ctx, t.ID)
	if err := d.Cache.DeleteMilestonesForTask(ctx, t.ID); cacheErr == nil {
		cacheErr = err
	}
	apiErr := d.API.DeleteTask(ctx, t.ID)
	return errors.Join(cacheErr, apiErr)
}
