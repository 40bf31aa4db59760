package storage

import (
	"context"
	"testing"
	"time"

	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: ":memory:"}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, tk task.Task) task.Task {
	t.Helper()
	if tk.Importance == "" {
		tk.Importance = task.ImportanceMedium
	}
	if tk.Recurrence == "" {
		tk.Recurrence = task.RecurrenceNone
	}
	if err := s.CreateTask(context.Background(), &tk); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return tk
}

func TestCreateAndGetTask(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	created := mustCreate(t, s, task.Task{
		Title:       "water plants",
		Description: "the ones on the balcony",
		ReminderAt:  due,
		Importance:  task.ImportanceHigh,
	})
	if created.ID == 0 {
		t.Fatal("expected assigned ID")
	}

	got, err := s.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil {
		t.Fatal("task not found")
	}
	if got.Title != "water plants" || !got.ReminderAt.Equal(due) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Recurrence != task.RecurrenceNone {
		t.Fatalf("Recurrence = %q, want none", got.Recurrence)
	}
	if got.Completed {
		t.Fatal("new task must not be completed")
	}
}

func TestGetTaskMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	got, err := s.GetTask(context.Background(), 9999)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing task, got %+v", got)
	}
}

func TestListDueBoundary(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)
	atNow := mustCreate(t, s, task.Task{Title: "exactly now", ReminderAt: now})
	mustCreate(t, s, task.Task{Title: "one second later", ReminderAt: now.Add(time.Second)})
	past := mustCreate(t, s, task.Task{Title: "yesterday", ReminderAt: now.AddDate(0, 0, -1)})

	due, err := s.ListDue(ctx, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	ids := map[int64]bool{}
	for _, d := range due {
		ids[d.ID] = true
	}
	if len(due) != 2 || !ids[atNow.ID] || !ids[past.ID] {
		t.Fatalf("ListDue returned %d tasks %v, want boundary-inclusive pair", len(due), ids)
	}
}

func TestListDueExcludesCompleted(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	done := mustCreate(t, s, task.Task{Title: "done", ReminderAt: now.Add(-time.Hour)})
	if _, err := s.MarkProcessed(ctx, done, now); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	due, err := s.ListDue(ctx, now)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("completed task still listed as due: %+v", due)
	}
}

func TestMarkProcessedNonRecurring(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	tk := mustCreate(t, s, task.Task{Title: "one shot", ReminderAt: due})

	ok, err := s.MarkProcessed(ctx, tk, due.Add(time.Minute))
	if err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if !ok {
		t.Fatal("expected a row to be affected")
	}

	got, err := s.GetTask(ctx, tk.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if !got.Completed {
		t.Fatal("non-recurring task must complete")
	}
	if !got.ReminderAt.Equal(due) {
		t.Fatalf("reminder_at changed on completion: %v", got.ReminderAt)
	}
}

func TestMarkProcessedRecurring(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	tk := mustCreate(t, s, task.Task{Title: "standup", ReminderAt: due, Recurrence: task.RecurrenceWeekly})

	ok, err := s.MarkProcessed(ctx, tk, due.Add(time.Minute))
	if err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if !ok {
		t.Fatal("expected a row to be affected")
	}

	got, err := s.GetTask(ctx, tk.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Completed {
		t.Fatal("recurring task must never complete")
	}
	want := due.AddDate(0, 0, 7)
	if !got.ReminderAt.Equal(want) {
		t.Fatalf("reminder_at = %v, want %v", got.ReminderAt, want)
	}
}

func TestMarkProcessedMissingTask(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ok, err := s.MarkProcessed(context.Background(), task.Task{ID: 424242, Recurrence: task.RecurrenceNone}, time.Now())
	if err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if ok {
		t.Fatal("expected false for vanished task")
	}
}

func TestListFilters(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.Local)

	urgent := mustCreate(t, s, task.Task{Title: "urgent", ReminderAt: now.Add(2 * time.Hour), Importance: task.ImportanceUrgent})
	mustCreate(t, s, task.Task{Title: "later", ReminderAt: now.AddDate(0, 0, 3), Importance: task.ImportanceLow})
	overdue := mustCreate(t, s, task.Task{Title: "overdue", ReminderAt: now.Add(-3 * time.Hour), Importance: task.ImportanceHigh})

	high, err := s.ListHighPriority(ctx)
	if err != nil {
		t.Fatalf("list high priority: %v", err)
	}
	if len(high) != 2 {
		t.Fatalf("high priority count = %d, want 2", len(high))
	}

	byImp, err := s.ListByImportance(ctx, task.ImportanceUrgent)
	if err != nil {
		t.Fatalf("list by importance: %v", err)
	}
	if len(byImp) != 1 || byImp[0].ID != urgent.ID {
		t.Fatalf("ListByImportance(urgent) = %+v", byImp)
	}

	od, err := s.ListOverdue(ctx, now)
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(od) != 1 || od[0].ID != overdue.ID {
		t.Fatalf("ListOverdue = %+v", od)
	}

	up, err := s.ListUpcoming(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(up) != 1 || up[0].ID != urgent.ID {
		t.Fatalf("ListUpcoming = %+v", up)
	}

	byDate, err := s.ListByDate(ctx, now)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("ListByDate count = %d, want 2", len(byDate))
	}
}

func TestListByDateSkipsMalformedRows(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.Local)

	mustCreate(t, s, task.Task{Title: "good", ReminderAt: now})
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(title, description, reminder_at, importance, is_completed, created_at, updated_at)
		 VALUES('corrupt','','not-a-timestamp','medium',0,?,?)`,
		encodeTime(now), encodeTime(now)); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	got, err := s.ListByDate(ctx, now)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(got) != 1 || got[0].Title != "good" {
		t.Fatalf("ListByDate = %+v, want only the well-formed row", got)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	tk := mustCreate(t, s, task.Task{Title: "gone soon", ReminderAt: time.Now()})
	ok, err := s.DeleteTask(ctx, tk.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to affect a row")
	}
	ok, err = s.DeleteTask(ctx, tk.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Fatal("second delete should affect nothing")
	}
}

func TestScheduleSingleton(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if ns, err := s.GetSchedule(ctx); err != nil || ns != nil {
		t.Fatalf("GetSchedule on empty store = %+v, %v", ns, err)
	}

	first, err := s.SetSchedule(ctx, 30, true)
	if err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	if first.LastSentAt != nil {
		t.Fatal("fresh schedule must have no last_sent_at")
	}

	if _, err := s.SetSchedule(ctx, 120, false); err != nil {
		t.Fatalf("replace schedule: %v", err)
	}

	got, err := s.GetSchedule(ctx)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if got.IntervalMinutes != 120 || got.Enabled {
		t.Fatalf("schedule not replaced: %+v", got)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM notification_schedules`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("schedule rows = %d, want singleton", count)
	}

	sentAt := time.Date(2025, 6, 10, 9, 0, 0, 0, time.Local)
	if err := s.UpdateLastSent(ctx, sentAt); err != nil {
		t.Fatalf("update last sent: %v", err)
	}
	got, err = s.GetSchedule(ctx)
	if err != nil {
		t.Fatalf("get schedule: %v", err)
	}
	if got.LastSentAt == nil || !got.LastSentAt.Equal(sentAt) {
		t.Fatalf("last_sent_at = %v, want %v", got.LastSentAt, sentAt)
	}
}
