package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tasklist-cli/tasklist/internal/types"
)

// InsertSubTask attaches a sub-task to a pending or failed parent.
//
// Returns types.ErrNotFound if the parent does not exist and
// types.ErrInvalidState if the parent is being uploaded.
func (db *DB) InsertSubTask(parentID int64, description string) (int64, error) {
	return db.InsertSubTaskContext(context.Background(), parentID, description)
}

// InsertSubTaskContext attaches a sub-task with context support.
func (db *DB) InsertSubTaskContext(ctx context.Context, parentID int64, description string) (int64, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, fmt.Errorf("%w: sub-task description is required", types.ErrInvalidInput)
	}

	var id int64
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		parent, err := getTask(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if !parent.Status.Editable() {
			return fmt.Errorf("cannot add sub-task to task %d while %s: %w", parentID, parent.Status, types.ErrInvalidState)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO subtasks (parent_id, description, created_at) VALUES (?, ?, ?)",
			parentID, description, formatTime(db.now()))
		if err != nil {
			return storageErr("insert sub-task", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return storageErr("read inserted sub-task id", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListSubTasks returns the sub-tasks of a parent in creation order.
// Returns types.ErrNotFound if the parent does not exist.
func (db *DB) ListSubTasks(parentID int64) ([]*types.SubTask, error) {
	return db.ListSubTasksContext(context.Background(), parentID)
}

// ListSubTasksContext lists sub-tasks with context support.
func (db *DB) ListSubTasksContext(ctx context.Context, parentID int64) ([]*types.SubTask, error) {
	if _, err := getTask(ctx, db.conn, parentID); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `
	SELECT id, parent_id, description, created_at
	FROM subtasks
	WHERE parent_id = ?
	ORDER BY created_at ASC, id ASC
	`, parentID)
	if err != nil {
		return nil, storageErr("list sub-tasks", err)
	}
	defer rows.Close()

	var subs []*types.SubTask
	for rows.Next() {
		var sub types.SubTask
		var createdAt string
		if err := rows.Scan(&sub.ID, &sub.ParentID, &sub.Description, &createdAt); err != nil {
			return nil, storageErr("scan sub-task", err)
		}
		sub.CreatedAt = parseTime(createdAt)
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate sub-tasks", err)
	}
	return subs, nil
}

// DeleteSubTask removes a single sub-task.
// Returns types.ErrNotFound if it does not exist.
func (db *DB) DeleteSubTask(id int64) error {
	return db.DeleteSubTaskContext(context.Background(), id)
}

// DeleteSubTaskContext removes a sub-task with context support.
func (db *DB) DeleteSubTaskContext(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return storageErr(fmt.Sprintf("delete sub-task %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("delete sub-task %d", id), err)
	}
	if n == 0 {
		return fmt.Errorf("sub-task %d: %w", id, types.ErrNotFound)
	}
	return nil
}

// SubTaskCounts returns the number of sub-tasks per parent id. Parents
// without sub-tasks are absent from the map.
func (db *DB) SubTaskCounts() (map[int64]int, error) {
	return db.SubTaskCountsContext(context.Background())
}

// SubTaskCountsContext counts sub-tasks with context support.
func (db *DB) SubTaskCountsContext(ctx context.Context) (map[int64]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT parent_id, COUNT(*) FROM subtasks GROUP BY parent_id")
	if err != nil {
		return nil, storageErr("count sub-tasks", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var parentID int64
		var n int
		if err := rows.Scan(&parentID, &n); err != nil {
			return nil, storageErr("scan sub-task count", err)
		}
		counts[parentID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate sub-task counts", err)
	}
	return counts, nil
}
