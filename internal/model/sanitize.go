package model

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// Description and notes arrive as arbitrary markup from a contenteditable
// surface (or from an import file we didn't produce). Strip anything
// scriptable before the value touches the cache or an export document.
func sanitizerPolicy() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.UGCPolicy()
	})
	return markupPolicy
}

// SanitizeMarkup sanitizes one rich-markup field.
func SanitizeMarkup(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	return sanitizerPolicy().Sanitize(s)
}

// SanitizeTask sanitizes the rich-markup fields of a task in place.
func SanitizeTask(t *Task) {
	if t == nil {
		return
	}
	t.Description = SanitizeMarkup(t.Description)
	t.Notes = SanitizeMarkup(t.Notes)
}

// SanitizeMilestone sanitizes the rich-markup fields of a milestone in place.
func SanitizeMilestone(m *Milestone) {
	if m == nil {
		return
	}
	m.Notes = SanitizeMarkup(m.Notes)
}
