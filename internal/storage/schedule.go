package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// NotificationSchedule is the singleton digest configuration. Application
// logic maintains at most one live row.
type NotificationSchedule struct {
	ID              int64
	IntervalMinutes int
	Enabled         bool
	LastSentAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetSchedule atomically replaces the schedule singleton.
func (s *Store) SetSchedule(ctx context.Context, intervalMinutes int, enabled bool) (*NotificationSchedule, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StorageError{Op: "set schedule", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notification_schedules`); err != nil {
		return nil, &StorageError{Op: "set schedule", Err: err}
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO notification_schedules(interval_minutes, is_enabled, last_sent_at, created_at, updated_at)
		 VALUES(?,?,NULL,?,?)`,
		intervalMinutes, enabled, encodeTime(now), encodeTime(now))
	if err != nil {
		return nil, &StorageError{Op: "set schedule", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &StorageError{Op: "set schedule", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Op: "set schedule", Err: err}
	}

	return &NotificationSchedule{
		ID:              id,
		IntervalMinutes: intervalMinutes,
		Enabled:         enabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetSchedule returns the live schedule row or (nil, nil) when none is set.
func (s *Store) GetSchedule(ctx context.Context) (*NotificationSchedule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, interval_minutes, is_enabled, last_sent_at, created_at, updated_at
		 FROM notification_schedules ORDER BY id DESC LIMIT 1`)

	var (
		ns         NotificationSchedule
		lastSentAt sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(&ns.ID, &ns.IntervalMinutes, &ns.Enabled, &lastSentAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get schedule", Err: err}
	}

	if ns.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, &StorageError{Op: "get schedule", Err: err}
	}
	if ns.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, &StorageError{Op: "get schedule", Err: err}
	}
	if lastSentAt.Valid && lastSentAt.String != "" {
		t, err := decodeTime(lastSentAt.String)
		if err != nil {
			return nil, &StorageError{Op: "get schedule", Err: err}
		}
		ns.LastSentAt = &t
	}
	return &ns, nil
}

// UpdateLastSent records a successful digest delivery.
func (s *Store) UpdateLastSent(ctx context.Context, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notification_schedules SET last_sent_at = ?, updated_at = ?`,
		encodeTime(sentAt), encodeTime(sentAt))
	if err != nil {
		return &StorageError{Op: "update last sent", Err: err}
	}
	return nil
}
