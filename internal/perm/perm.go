// Package perm holds the client-side permission checks. These are
// advisory, UX-only gates used to disable mutating controls and to fail
// early without a round trip; the server independently enforces ownership
// and is the actual authority.
package perm

import (
	"strings"

	"milepost-cli/internal/model"
)

// CanEditTask reports whether username may mutate the task.
//
// Rules:
//   - A task with no creator has never been saved; anyone may edit it, and
//     the first save claims ownership.
//   - Otherwise only the creator may edit.
func CanEditTask(username string, t *model.Task) bool {
	if t == nil {
		return false
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	creator := strings.TrimSpace(t.Creator)
	if creator == "" {
		return true
	}
	return creator == username
}

// CanEditMilestone reports whether username may mutate milestones of the
// owning task. Milestones have no creator of their own; write access
// follows the parent task, and a task that was never saved (no creator)
// cannot have milestones edited yet.
func CanEditMilestone(username string, owner *model.Task) bool {
	if owner == nil {
		return false
	}
	if strings.TrimSpace(owner.Creator) == "" {
		return false
	}
	return CanEditTask(username, owner)
}
