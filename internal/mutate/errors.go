package mutate

import (
	"errors"
	"fmt"
	"strings"
)

// Validation failures are resolved locally (a message to the user) and
// never reach the network layer.
var ErrTitleRequired = errors.New("title is required")
var ErrSelfParent = errors.New("a milestone cannot be its own parent")
var ErrTaskNotSaved = errors.New("save the task before editing its milestones")

// CreatorMismatchError rejects a mutation by someone other than the
// task's creator, before any network call. This is a UX shortcut; the
// server enforces the same rule.
type CreatorMismatchError struct {
	Username string
	Creator  string
	TaskID   string
}

func (e *CreatorMismatchError) Error() string {
	return fmt.Sprintf("task %s belongs to %s", e.TaskID, e.Creator)
}

// HasChildrenError rejects deleting a milestone that other milestones
// still name as their parent.
type HasChildrenError struct {
	MilestoneID string
	ChildIDs    []string
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("milestone %s still has children (%s); re-parent or remove them first",
		e.MilestoneID, strings.Join(e.ChildIDs, ", "))
}
