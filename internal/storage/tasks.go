package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

const taskColumns = "id, title, description, reminder_at, recurrence, importance, is_completed, created_at, updated_at"

// CreateTask inserts a new task, assigning ID/CreatedAt/UpdatedAt.
func (s *Store) CreateTask(ctx context.Context, t *task.Task) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	var recurrence any
	if t.IsRecurring() {
		recurrence = string(t.Recurrence)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(title, description, reminder_at, recurrence, importance, is_completed, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		t.Title, t.Description, encodeTime(t.ReminderAt), recurrence, string(t.Importance), t.Completed,
		encodeTime(now), encodeTime(now),
	)
	if err != nil {
		return &StorageError{Op: "create task", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &StorageError{Op: "create task", Err: err}
	}
	t.ID = id
	return nil
}

// GetTask returns the task or (nil, nil) when no such row exists.
func (s *Store) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTaskRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get task", Err: err}
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context) ([]task.Task, error) {
	return s.queryTasks(ctx, "list tasks", `SELECT `+taskColumns+` FROM tasks ORDER BY reminder_at`)
}

func (s *Store) ListByCompleted(ctx context.Context, completed bool) ([]task.Task, error) {
	return s.queryTasks(ctx, "list by completed",
		`SELECT `+taskColumns+` FROM tasks WHERE is_completed = ? ORDER BY reminder_at`, completed)
}

func (s *Store) ListByImportance(ctx context.Context, level task.Importance) ([]task.Task, error) {
	return s.queryTasks(ctx, "list by importance",
		`SELECT `+taskColumns+` FROM tasks WHERE importance = ? ORDER BY reminder_at`, string(level))
}

// ListByDate returns tasks whose reminder falls on the given calendar day.
// Rows with malformed stored timestamps are skipped, not raised.
func (s *Store) ListByDate(ctx context.Context, date time.Time) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY reminder_at`)
	if err != nil {
		return nil, &StorageError{Op: "list by date", Err: err}
	}
	defer rows.Close()

	wantY, wantM, wantD := date.Date()
	var out []task.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			s.log.Debug("skipping row with malformed timestamp", logx.Err(err))
			continue
		}
		y, m, d := t.ReminderAt.Date()
		if y == wantY && m == wantM && d == wantD {
			out = append(out, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list by date", Err: err}
	}
	return out, nil
}

// ListDue returns incomplete tasks with reminder_at <= now (boundary inclusive).
// No order is guaranteed.
func (s *Store) ListDue(ctx context.Context, now time.Time) ([]task.Task, error) {
	return s.queryTasks(ctx, "list due",
		`SELECT `+taskColumns+` FROM tasks WHERE is_completed = 0 AND reminder_at <= ?`, encodeTime(now))
}

func (s *Store) ListOverdue(ctx context.Context, now time.Time) ([]task.Task, error) {
	return s.queryTasks(ctx, "list overdue",
		`SELECT `+taskColumns+` FROM tasks WHERE is_completed = 0 AND reminder_at < ? ORDER BY reminder_at`, encodeTime(now))
}

// ListUpcoming returns incomplete tasks due within the horizon, soonest first.
func (s *Store) ListUpcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]task.Task, error) {
	return s.queryTasks(ctx, "list upcoming",
		`SELECT `+taskColumns+` FROM tasks WHERE is_completed = 0 AND reminder_at > ? AND reminder_at <= ? ORDER BY reminder_at`,
		encodeTime(now), encodeTime(now.Add(horizon)))
}

func (s *Store) ListHighPriority(ctx context.Context) ([]task.Task, error) {
	return s.queryTasks(ctx, "list high priority",
		`SELECT `+taskColumns+` FROM tasks WHERE is_completed = 0 AND importance IN ('high','urgent') ORDER BY reminder_at`)
}

// DeleteTask removes a task. Returns whether a row was deleted.
func (s *Store) DeleteTask(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, &StorageError{Op: "delete task", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "delete task", Err: err}
	}
	return n > 0, nil
}

// MarkProcessed records the outcome of a delivered reminder. Non-recurring
// tasks complete; recurring tasks roll reminder_at forward and stay active.
// Returns false when the task no longer exists; that is not an error.
func (s *Store) MarkProcessed(ctx context.Context, t task.Task, now time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if t.IsRecurring() {
		next, nerr := task.NextOccurrence(t.ReminderAt, t.Recurrence)
		if nerr != nil {
			return false, nerr
		}
		res, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET reminder_at = ?, updated_at = ? WHERE id = ?`,
			encodeTime(next), encodeTime(now), t.ID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE tasks SET is_completed = 1, updated_at = ? WHERE id = ?`,
			encodeTime(now), t.ID)
	}
	if err != nil {
		return false, &StorageError{Op: "mark processed", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StorageError{Op: "mark processed", Err: err}
	}
	return n > 0, nil
}

func (s *Store) queryTasks(ctx context.Context, op, query string, args ...any) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, &StorageError{Op: op, Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(r rowScanner) (task.Task, error) {
	var (
		t          task.Task
		reminderAt string
		recurrence sql.NullString
		importance string
		createdAt  string
		updatedAt  string
	)
	if err := r.Scan(&t.ID, &t.Title, &t.Description, &reminderAt, &recurrence, &importance, &t.Completed, &createdAt, &updatedAt); err != nil {
		return task.Task{}, err
	}

	var err error
	if t.ReminderAt, err = decodeTime(reminderAt); err != nil {
		return task.Task{}, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return task.Task{}, err
	}
	if t.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return task.Task{}, err
	}

	t.Recurrence = task.RecurrenceNone
	if recurrence.Valid && recurrence.String != "" {
		t.Recurrence = task.Recurrence(recurrence.String)
	}
	t.Importance = task.Importance(importance)
	return t, nil
}
