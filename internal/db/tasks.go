package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tasklist-cli/tasklist/internal/types"
)

const taskColumns = `id, description, due_date, priority, category, list_name,
	       status, sync_key, card_id, created_at, updated_at`

// InsertTask stores a new pending task and returns its id.
//
// The task gets status pending and created_at = now. The sync key of task is
// kept when set, otherwise a fresh one is generated. Only I/O failures are returned, wrapped as types.ErrStorage.
func (db *DB) InsertTask(task types.NewTask) (int64, error) {
	return db.InsertTaskContext(context.Background(), task)
}

// InsertTaskContext stores a new pending task with context support.
func (db *DB) InsertTaskContext(ctx context.Context, task types.NewTask) (int64, error) {
	if err := task.Validate(); err != nil {
		return 0, err
	}

	syncKey := task.SyncKey
	if syncKey == "" {
		syncKey = uuid.NewString()
	}

	now := formatTime(db.now())
	query := `
	INSERT INTO tasks (
		description, due_date, priority, category, list_name,
		status, sync_key, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := db.conn.ExecContext(ctx, query,
		strings.TrimSpace(task.Description),
		dateToNullString(task.DueDate),
		task.Priority,
		task.Category,
		task.ListName,
		types.StatusPending,
		syncKey,
		now,
		now,
	)
	if err != nil {
		return 0, storageErr("insert task", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("read inserted task id", err)
	}
	return id, nil
}

// SortField selects the ordering of ListTasks.
type SortField string

const (
	// SortCreated orders by creation time (the default).
	SortCreated SortField = ""
	// SortPriority orders by priority, lowest first.
	SortPriority SortField = "priority"
	// SortDueDate orders by due date, earliest first, undated last.
	SortDueDate SortField = "due_date"
)

// ListTasksFilter configures the ListTasks query. Filters are conjunctive.
type ListTasksFilter struct {
	// Category filters by exact category (empty = all categories)
	Category string
	// Priority filters by exact priority (0 = all priorities)
	Priority int
	// Statuses restricts the result to these statuses (empty = all)
	Statuses []types.Status
	// SortBy picks the ordering; ties are always broken by created_at, id
	SortBy SortField
}

// ListTasks retrieves tasks matching the given filter.
func (db *DB) ListTasks(filter ListTasksFilter) ([]*types.Task, error) {
	return db.ListTasksContext(context.Background(), filter)
}

// ListTasksContext retrieves tasks with context support.
func (db *DB) ListTasksContext(ctx context.Context, filter ListTasksFilter) ([]*types.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}

	if filter.Priority != 0 {
		conditions = append(conditions, "priority = ?")
		args = append(args, filter.Priority)
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch filter.SortBy {
	case SortCreated:
		query += " ORDER BY created_at ASC, id ASC"
	case SortPriority:
		query += " ORDER BY priority ASC, created_at ASC, id ASC"
	case SortDueDate:
		query += " ORDER BY due_date IS NULL, due_date ASC, created_at ASC, id ASC"
	default:
		return nil, fmt.Errorf("%w: unknown sort field %q", types.ErrInvalidInput, filter.SortBy)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// SearchTasks returns tasks whose description contains query, ignoring case,
// in creation order.
func (db *DB) SearchTasks(query string) ([]*types.Task, error) {
	return db.SearchTasksContext(context.Background(), query)
}

// SearchTasksContext searches task descriptions with context support.
func (db *DB) SearchTasksContext(ctx context.Context, query string) ([]*types.Task, error) {
	// SQLite's lower() folds ASCII only, so matching happens in Go.
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, storageErr("search tasks", err)
	}
	defer rows.Close()

	all, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []*types.Task
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Description), needle) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

// GetTask retrieves a single task by id.
// Returns types.ErrNotFound if the task does not exist.
func (db *DB) GetTask(id int64) (*types.Task, error) {
	return db.GetTaskContext(context.Background(), id)
}

// GetTaskContext retrieves a single task with context support.
func (db *DB) GetTaskContext(ctx context.Context, id int64) (*types.Task, error) {
	return getTask(ctx, db.conn, id)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getTask(ctx context.Context, q queryer, id int64) (*types.Task, error) {
	row := q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("task %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr(fmt.Sprintf("get task %d", id), err)
	}
	return task, nil
}

// UpdateTask applies update to a pending or failed task and returns the
// result.
//
// Returns types.ErrNotFound if the task does not exist and
// types.ErrInvalidState if it is uploading or uploaded.
func (db *DB) UpdateTask(id int64, update types.TaskUpdate) (*types.Task, error) {
	return db.UpdateTaskContext(context.Background(), id, update)
}

// UpdateTaskContext applies an update with context support.
func (db *DB) UpdateTaskContext(ctx context.Context, id int64, update types.TaskUpdate) (*types.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var fields []string
	var args []interface{}

	if update.Description != nil {
		fields = append(fields, "description = ?")
		args = append(args, strings.TrimSpace(*update.Description))
	}
	if update.DueDate != nil {
		fields = append(fields, "due_date = ?")
		args = append(args, dateToNullString(update.DueDate))
	}
	if update.ClearDue {
		fields = append(fields, "due_date = NULL")
	}
	if update.Priority != nil {
		fields = append(fields, "priority = ?")
		args = append(args, *update.Priority)
	}
	if update.Category != nil {
		fields = append(fields, "category = ?")
		args = append(args, *update.Category)
	}
	if update.ListName != nil {
		fields = append(fields, "list_name = ?")
		args = append(args, *update.ListName)
	}
	fields = append(fields, "updated_at = ?")
	args = append(args, formatTime(db.now()), id)

	var updated *types.Task
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if !current.Status.Editable() {
			return fmt.Errorf("cannot edit task %d while %s: %w", id, current.Status, types.ErrInvalidState)
		}

		query := "UPDATE tasks SET " + strings.Join(fields, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return storageErr(fmt.Sprintf("update task %d", id), err)
		}

		updated, err = getTask(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task and all of its sub-tasks in one transaction.
// Returns types.ErrNotFound if the task does not exist.
func (db *DB) DeleteTask(id int64) error {
	return db.DeleteTaskContext(context.Background(), id)
}

// DeleteTaskContext removes a task with context support.
func (db *DB) DeleteTaskContext(ctx context.Context, id int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		return deleteTask(ctx, tx, id)
	})
}

func deleteTask(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE parent_id = ?", id); err != nil {
		return storageErr(fmt.Sprintf("delete sub-tasks of task %d", id), err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return storageErr(fmt.Sprintf("delete task %d", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(fmt.Sprintf("delete task %d", id), err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, types.ErrNotFound)
	}
	return nil
}

// MarkStatus moves a task to status next.
//
// Only forward transitions are accepted (see types.Status.CanTransition);
// anything else returns types.ErrInvalidState and leaves the row untouched.
func (db *DB) MarkStatus(id int64, next types.Status) error {
	return db.MarkStatusContext(context.Background(), id, next)
}

// MarkStatusContext moves a task to a new status with context support.
func (db *DB) MarkStatusContext(ctx context.Context, id int64, next types.Status) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		return markStatus(ctx, tx, id, next, "", formatTime(db.now()))
	})
}

// MarkUploaded moves an uploading task to uploaded and records the card it
// became. The row stays until CompleteUpload removes it, so a crash in
// between is recoverable.
func (db *DB) MarkUploaded(id int64, cardID string) error {
	return db.MarkUploadedContext(context.Background(), id, cardID)
}

// MarkUploadedContext records a successful upload with context support.
func (db *DB) MarkUploadedContext(ctx context.Context, id int64, cardID string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		return markStatus(ctx, tx, id, types.StatusUploaded, cardID, formatTime(db.now()))
	})
}

func markStatus(ctx context.Context, tx *sql.Tx, id int64, next types.Status, cardID, now string) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", types.ErrInvalidInput, next)
	}

	current, err := getTask(ctx, tx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransition(next) {
		return fmt.Errorf("task %d cannot move from %s to %s: %w", id, current.Status, next, types.ErrInvalidState)
	}

	query := "UPDATE tasks SET status = ?, updated_at = ?"
	args := []interface{}{next, now}
	if cardID != "" {
		query += ", card_id = ?"
		args = append(args, cardID)
	}
	query += " WHERE id = ?"
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return storageErr(fmt.Sprintf("mark task %d %s", id, next), err)
	}
	return nil
}

// CompleteUpload deletes an uploaded task together with its sub-tasks.
// Returns types.ErrInvalidState for any task that is not uploaded.
func (db *DB) CompleteUpload(id int64) error {
	return db.CompleteUploadContext(context.Background(), id)
}

// CompleteUploadContext deletes an uploaded task with context support.
func (db *DB) CompleteUploadContext(ctx context.Context, id int64) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Status != types.StatusUploaded {
			return fmt.Errorf("task %d is %s, not uploaded: %w", id, current.Status, types.ErrInvalidState)
		}
		return deleteTask(ctx, tx, id)
	})
}

// CountTasks returns the number of tasks in any of the given statuses, or
// all tasks when none are given.
func (db *DB) CountTasks(statuses ...types.Status) (int, error) {
	return db.CountTasksContext(context.Background(), statuses...)
}

// CountTasksContext counts tasks with context support.
func (db *DB) CountTasksContext(ctx context.Context, statuses ...types.Status) (int, error) {
	query := "SELECT COUNT(*) FROM tasks"
	var args []interface{}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, s)
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	var count int
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, storageErr("count tasks", err)
	}
	return count, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*types.Task, error) {
	var task types.Task
	var status, createdAt, updatedAt string
	var dueDate, cardID sql.NullString

	err := row.Scan(
		&task.ID,
		&task.Description,
		&dueDate,
		&task.Priority,
		&task.Category,
		&task.ListName,
		&status,
		&task.SyncKey,
		&cardID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = types.Status(status)
	task.DueDate = nullStringToDate(dueDate)
	task.CardID = cardID.String
	task.CreatedAt = parseTime(createdAt)
	task.UpdatedAt = parseTime(updatedAt)
	return &task, nil
}

// scanTasks is a helper function to scan multiple tasks from query results.
func scanTasks(rows *sql.Rows) ([]*types.Task, error) {
	var tasks []*types.Task

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storageErr("scan task", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tasks", err)
	}

	return tasks, nil
}
