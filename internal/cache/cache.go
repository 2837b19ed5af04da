package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"milepost-cli/internal/model"

	_ "modernc.org/sqlite"
)

const dbFileName = "milepost.sqlite"

// Collection names for the generic record API.
const (
	CollectionTasks      = "tasks"
	CollectionMilestones = "milestones"
)

// Unavailable wraps any failure of the underlying store, the cache-side
// analogue of a disabled browser database. Callers match it with errors.As.
type Unavailable struct {
	Op  string
	Err error
}

func (e *Unavailable) Error() string { return "local cache unavailable (" + e.Op + "): " + e.Err.Error() }
func (e *Unavailable) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Unavailable{Op: op, Err: err}
}

// Cache is the local mirror of the server-of-record: a per-collection
// record store plus a flat string-keyed metadata map. It is a staging
// area, not a source of truth; writes here are optimistic and not
// transactionally linked to the corresponding server writes.
type Cache struct {
	db  *sql.DB
	dir string
}

// Open opens (and if needed creates) the cache database under dir.
func Open(ctx context.Context, dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, unavailable("mkdir", err)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, unavailable("open", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, unavailable("pragma", err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, unavailable("migrate", err)
	}
	return &Cache{db: db, dir: dir}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			task_id TEXT NOT NULL DEFAULT '',
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_task ON records(collection, task_id);`,
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database handle. It must complete before Destroy (or
// any other destructive teardown of the same directory) or sqlite will
// report the file busy.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return unavailable("close", err)
}

// Destroy removes the cache database files under dir. The owning Cache
// must be closed first.
func Destroy(dir string) error {
	base := filepath.Join(dir, dbFileName)
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return unavailable("destroy", err)
		}
	}
	return nil
}

// GetCollection returns the raw records of one collection.
func (c *Cache) GetCollection(ctx context.Context, name string) ([]json.RawMessage, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT json FROM records WHERE collection = ? ORDER BY id`, name)
	if err != nil {
		return nil, unavailable("get-collection", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, unavailable("get-collection", err)
		}
		out = append(out, json.RawMessage(js))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get-collection", err)
	}
	return out, nil
}

// Put upserts one record. taskID may be "" for collections that are not
// grouped by owning task.
func (c *Cache) Put(ctx context.Context, collection, id, taskID string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO records(collection, id, task_id, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		collection, id, taskID, string(raw), time.Now().UTC().UnixMilli())
	return unavailable("put", err)
}

// Delete removes one record. Deleting a missing record is not an error.
func (c *Cache) Delete(ctx context.Context, collection, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id)
	return unavailable("delete", err)
}

// GetMeta returns the metadata value for k. ok is false when unset.
func (c *Cache) GetMeta(ctx context.Context, k string) (string, bool, error) {
	var v string
	err := c.db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, k).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get-meta", err)
	}
	return v, true, nil
}

// PutMeta sets the metadata value for k.
func (c *Cache) PutMeta(ctx context.Context, k, v string) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, k, v)
	return unavailable("put-meta", err)
}

// GetMetaJSON unmarshals a JSON metadata value into out. ok is false when
// the key is unset.
func (c *Cache) GetMetaJSON(ctx context.Context, k string, out any) (bool, error) {
	v, ok, err := c.GetMeta(ctx, k)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return false, err
	}
	return true, nil
}

// PutMetaJSON stores v as JSON under k.
func (c *Cache) PutMetaJSON(ctx context.Context, k string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.PutMeta(ctx, k, string(raw))
}

// Tasks returns all mirrored tasks.
func (c *Cache) Tasks(ctx context.Context) ([]model.Task, error) {
	return readCollection[model.Task](ctx, c, CollectionTasks)
}

// PutTask mirrors one task.
func (c *Cache) PutTask(ctx context.Context, t model.Task) error {
	return c.Put(ctx, CollectionTasks, t.ID, "", t)
}

// DeleteTask removes one task from the mirror (its milestones are removed
// separately; the two deletes are sequential and not atomic).
func (c *Cache) DeleteTask(ctx context.Context, id string) error {
	return c.Delete(ctx, CollectionTasks, id)
}

// Task returns one mirrored task, if present.
func (c *Cache) Task(ctx context.Context, id string) (*model.Task, bool, error) {
	var js string
	err := c.db.QueryRowContext(ctx,
		`SELECT json FROM records WHERE collection = ? AND id = ?`, CollectionTasks, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("task", err)
	}
	var t model.Task
	if err := json.Unmarshal([]byte(js), &t); err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// Milestones returns all mirrored milestones across tasks.
func (c *Cache) Milestones(ctx context.Context) ([]model.Milestone, error) {
	return readCollection[model.Milestone](ctx, c, CollectionMilestones)
}

// MilestonesForTask returns the mirrored milestones of one task.
func (c *Cache) MilestonesForTask(ctx context.Context, taskID string) ([]model.Milestone, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT json FROM records WHERE collection = ? AND task_id = ?`, CollectionMilestones, taskID)
	if err != nil {
		return nil, unavailable("milestones-for-task", err)
	}
	defer rows.Close()

	var out []model.Milestone
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, unavailable("milestones-for-task", err)
		}
		var m model.Milestone
		if err := json.Unmarshal([]byte(js), &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("milestones-for-task", err)
	}
	model.SortMilestonesByCreation(out)
	return out, nil
}

// PutMilestone mirrors one milestone under its owning task.
func (c *Cache) PutMilestone(ctx context.Context, m model.Milestone) error {
	return c.Put(ctx, CollectionMilestones, m.ID, m.TaskID, m)
}

// DeleteMilestone removes one milestone from the mirror.
func (c *Cache) DeleteMilestone(ctx context.Context, id string) error {
	return c.Delete(ctx, CollectionMilestones, id)
}

// DeleteMilestonesForTask clears the milestone mirror of one task, used
// after a task delete (the server cascades; the mirror follows).
func (c *Cache) DeleteMilestonesForTask(ctx context.Context, taskID string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND task_id = ?`, CollectionMilestones, taskID)
	return unavailable("delete-milestones-for-task", err)
}

func readCollection[T any](ctx context.Context, c *Cache, name string) ([]T, error) {
	raws, err := c.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, r := range raws {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
