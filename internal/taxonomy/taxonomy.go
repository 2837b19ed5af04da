// Package taxonomy manages the three user-editable vocabularies
// (categories, statuses, froms) persisted as cache metadata. Entries are
// unique and keep their insertion order for display.
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"milepost-cli/internal/cache"
	"milepost-cli/internal/model"
)

// Kind selects one of the vocabularies. The values double as cache meta
// keys.
type Kind string

const (
	KindCategory Kind = cache.MetaCategories
	KindStatus   Kind = cache.MetaStatuses
	KindFrom     Kind = cache.MetaFroms
)

var ErrDuplicateEntry = errors.New("entry already exists")
var ErrEmptyEntry = errors.New("entry must not be empty")
var ErrUnknownKind = errors.New("unknown taxonomy kind")

// InUseError rejects the removal of an entry that a task or milestone
// still references. RefID names one offender so the user can go fix it;
// it is empty when the reference was reported by the server rather than
// found in the local mirror.
type InUseError struct {
	Kind  Kind
	Value string
	RefID string
}

func (e *InUseError) Error() string {
	if e.RefID == "" {
		return fmt.Sprintf("%s %q is still referenced on the server", kindNoun(e.Kind), e.Value)
	}
	return fmt.Sprintf("%s %q is still referenced (e.g. by %s)", kindNoun(e.Kind), e.Value, e.RefID)
}

// Refs reports the vocabulary values the server currently sees in use.
// *api.Client satisfies it.
type Refs interface {
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctStatuses(ctx context.Context) ([]string, error)
	DistinctFroms(ctx context.Context) ([]string, error)
}

func kindNoun(k Kind) string {
	switch k {
	case KindCategory:
		return "category"
	case KindStatus:
		return "status"
	case KindFrom:
		return "source"
	default:
		return string(k)
	}
}

func validKind(k Kind) bool {
	return k == KindCategory || k == KindStatus || k == KindFrom
}

// List returns the entries of one vocabulary in display order.
func List(ctx context.Context, c *cache.Cache, kind Kind) ([]string, error) {
	if !validKind(kind) {
		return nil, ErrUnknownKind
	}
	var out []string
	if _, err := c.GetMetaJSON(ctx, string(kind), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Load returns all three vocabularies.
func Load(ctx context.Context, c *cache.Cache) (model.Taxonomies, error) {
	var tx model.Taxonomies
	var err error
	if tx.Categories, err = List(ctx, c, KindCategory); err != nil {
		return tx, err
	}
	if tx.Statuses, err = List(ctx, c, KindStatus); err != nil {
		return tx, err
	}
	if tx.Froms, err = List(ctx, c, KindFrom); err != nil {
		return tx, err
	}
	return tx, nil
}

// Add appends one entry, refusing blanks and duplicates.
func Add(ctx context.Context, c *cache.Cache, kind Kind, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ErrEmptyEntry
	}
	existing, err := List(ctx, c, kind)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e == value {
			return ErrDuplicateEntry
		}
	}
	return c.PutMetaJSON(ctx, string(kind), append(existing, value))
}

// Merge unions values into the vocabulary, preserving existing order and
// appending unseen entries in the order given. Used by import and by
// seeding from the server's distinct-value endpoints.
func Merge(ctx context.Context, c *cache.Cache, kind Kind, values []string) error {
	existing, err := List(ctx, c, kind)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	changed := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		existing = append(existing, v)
		changed = true
	}
	if !changed {
		return nil
	}
	return c.PutMetaJSON(ctx, string(kind), existing)
}

// Remove deletes one entry. It is refused while any task or milestone
// still references the value. The local mirror is checked first, then the
// server's distinct-value endpoint when live is non-nil; the mirror is
// populated lazily, so only the server sees tasks never opened locally.
// An unreachable server falls back to the mirror-only answer.
func Remove(ctx context.Context, c *cache.Cache, live Refs, kind Kind, value string) error {
	value = strings.TrimSpace(value)
	if !validKind(kind) {
		return ErrUnknownKind
	}
	if ref, err := findReference(ctx, c, kind, value); err != nil {
		return err
	} else if ref != "" {
		return &InUseError{Kind: kind, Value: value, RefID: ref}
	}
	if live != nil {
		if used, err := distinctFor(ctx, live, kind); err == nil {
			for _, u := range used {
				if u == value {
					return &InUseError{Kind: kind, Value: value}
				}
			}
		}
	}

	existing, err := List(ctx, c, kind)
	if err != nil {
		return err
	}
	out := existing[:0]
	for _, e := range existing {
		if e != value {
			out = append(out, e)
		}
	}
	return c.PutMetaJSON(ctx, string(kind), out)
}

func distinctFor(ctx context.Context, live Refs, kind Kind) ([]string, error) {
	switch kind {
	case KindCategory:
		return live.DistinctCategories(ctx)
	case KindStatus:
		return live.DistinctStatuses(ctx)
	default:
		return live.DistinctFroms(ctx)
	}
}

// findReference returns the id of one entity referencing the value, or "".
func findReference(ctx context.Context, c *cache.Cache, kind Kind, value string) (string, error) {
	tasks, err := c.Tasks(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range tasks {
		switch kind {
		case KindCategory:
			if t.HasCategory(value) {
				return t.ID, nil
			}
		case KindStatus:
			if t.Status == value {
				return t.ID, nil
			}
		case KindFrom:
			if t.From == value {
				return t.ID, nil
			}
		}
	}
	if kind == KindStatus {
		milestones, err := c.Milestones(ctx)
		if err != nil {
			return "", err
		}
		for _, m := range milestones {
			if m.Status == value {
				return m.ID, nil
			}
		}
	}
	return "", nil
}
