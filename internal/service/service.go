// Package service is the command surface of the reminder engine. Every
// method validates its input before touching the store and reports results
// in human-readable form.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/notify"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

// reminderLayout is the accepted input format for reminder timestamps,
// interpreted in server-local time.
const reminderLayout = "2006-01-02 15:04"

const dateLayout = "2006-01-02"

// ErrNotFound marks lookups for tasks that do not exist.
var ErrNotFound = errors.New("task not found")

// Summarizer is the optional natural-language summary collaborator.
type Summarizer interface {
	Summarize(ctx context.Context, statsBlock string) (string, error)
}

type TaskService struct {
	store *storage.Store
	disp  *notify.Dispatcher
	// summarizer is resolved once at construction; nil means summaries fall
	// back to the plain stats block.
	summarizer Summarizer
	log        logx.Logger
	now        func() time.Time
}

func New(store *storage.Store, disp *notify.Dispatcher, summarizer Summarizer, log logx.Logger) *TaskService {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &TaskService{
		store:      store,
		disp:       disp,
		summarizer: summarizer,
		log:        log,
		now:        time.Now,
	}
}

// AddInput carries the raw user-supplied fields of a new task.
type AddInput struct {
	Title       string
	Description string
	ReminderAt  string // "2006-01-02 15:04", server-local
	Importance  string
	Recurrence  string
}

// Add validates the input and creates the task. An empty title is derived
// from the description.
func (s *TaskService) Add(ctx context.Context, in AddInput) (*task.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = task.DeriveTitle(in.Description)
	}

	when, err := time.ParseInLocation(reminderLayout, strings.TrimSpace(in.ReminderAt), time.Local)
	if err != nil {
		return nil, &task.ValidationError{Field: "reminder_at", Reason: fmt.Sprintf("must match %q", reminderLayout)}
	}
	importance, err := task.ParseImportance(in.Importance)
	if err != nil {
		return nil, err
	}
	recurrence, err := task.ParseRecurrence(in.Recurrence)
	if err != nil {
		return nil, err
	}

	t := task.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ReminderAt:  when,
		Importance:  importance,
		Recurrence:  recurrence,
	}
	if err := s.store.CreateTask(ctx, &t); err != nil {
		return nil, err
	}
	s.log.Info("task created",
		logx.Int64("task_id", t.ID),
		logx.String("importance", string(t.Importance)),
		logx.String("recurrence", string(t.Recurrence)))
	return &t, nil
}

// ListFilter narrows List output. At most one dimension applies, checked in
// order: date, importance, status. The zero value lists everything.
type ListFilter struct {
	Status     string // "", "active", "completed", "overdue" or "upcoming"
	Importance string
	Date       string // "2006-01-02"
}

// upcomingHorizon bounds the "upcoming" status filter.
const upcomingHorizon = 24 * time.Hour

func (s *TaskService) List(ctx context.Context, f ListFilter) ([]task.Task, error) {
	switch {
	case f.Date != "":
		day, err := time.ParseInLocation(dateLayout, f.Date, time.Local)
		if err != nil {
			return nil, &task.ValidationError{Field: "date", Reason: fmt.Sprintf("must match %q", dateLayout)}
		}
		return s.store.ListByDate(ctx, day)
	case f.Importance != "":
		level, err := task.ParseImportance(f.Importance)
		if err != nil {
			return nil, err
		}
		return s.store.ListByImportance(ctx, level)
	case f.Status == "active":
		return s.store.ListByCompleted(ctx, false)
	case f.Status == "completed":
		return s.store.ListByCompleted(ctx, true)
	case f.Status == "overdue":
		return s.store.ListOverdue(ctx, s.now())
	case f.Status == "upcoming":
		return s.store.ListUpcoming(ctx, s.now(), upcomingHorizon)
	case f.Status == "":
		return s.store.ListTasks(ctx)
	default:
		return nil, &task.ValidationError{Field: "status", Reason: "must be empty, active, completed, overdue or upcoming"}
	}
}

func (s *TaskService) Get(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return t, nil
}

// Complete marks a task done. Recurring tasks roll forward instead and are
// reported as rescheduled.
func (s *TaskService) Complete(ctx context.Context, id int64) (string, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	ok, err := s.store.MarkProcessed(ctx, *t, s.now())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if t.IsRecurring() {
		next, err := task.NextOccurrence(t.ReminderAt, t.Recurrence)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🔁 %q rescheduled for %s", t.Title, next.Format(reminderLayout)), nil
	}
	return fmt.Sprintf("✅ %q completed", t.Title), nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.DeleteTask(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	s.log.Info("task deleted", logx.Int64("task_id", id))
	return nil
}

// Summarize renders the current stats block, appending a conversational
// summary when a summarizer is configured. Summarizer failure degrades to
// the plain block.
func (s *TaskService) Summarize(ctx context.Context) (string, error) {
	stats, err := scheduler.CollectDigestStats(ctx, s.store, s.now())
	if err != nil {
		return "", err
	}
	block := notify.FormatDigest(stats)
	if s.summarizer == nil {
		return block, nil
	}
	text, err := s.summarizer.Summarize(ctx, block)
	if err != nil {
		s.log.Warn("summary generation failed", logx.Err(err))
		return block, nil
	}
	return block + "\n\n💬 " + text, nil
}

// SetSchedule configures the digest singleton.
func (s *TaskService) SetSchedule(ctx context.Context, intervalMinutes int, enabled bool) (*storage.NotificationSchedule, error) {
	if intervalMinutes < 1 {
		return nil, &task.ValidationError{Field: "interval_minutes", Reason: "must be at least 1"}
	}
	return s.store.SetSchedule(ctx, intervalMinutes, enabled)
}

func (s *TaskService) GetSchedule(ctx context.Context) (*storage.NotificationSchedule, error) {
	return s.store.GetSchedule(ctx)
}

// SendTestDigest dispatches a digest immediately. Unlike the scheduler's
// periodic pass, delivery problems surface to the caller.
func (s *TaskService) SendTestDigest(ctx context.Context) (string, error) {
	stats, err := scheduler.CollectDigestStats(ctx, s.store, s.now())
	if err != nil {
		return "", err
	}
	res, err := s.disp.SendDigest(ctx, stats)
	if err != nil {
		return "", err
	}
	if !res.Delivered() {
		return "", fmt.Errorf("digest not delivered: %s", res.Summary())
	}
	return res.Summary(), nil
}
