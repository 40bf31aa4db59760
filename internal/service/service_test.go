package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"remindbot/internal/notify"
	"remindbot/internal/storage"
	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

type okChannel struct {
	sent []string
	err  error
}

func (c *okChannel) Name() string  { return "telegram" }
func (c *okChannel) Enabled() bool { return true }
func (c *okChannel) Send(_ context.Context, subject, body string) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, subject+"\n"+body)
	return nil
}

type fakeSummarizer struct {
	text string
	err  error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func newTestService(t *testing.T, ch *okChannel, sum Summarizer) *TaskService {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: ":memory:"}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if ch == nil {
		ch = &okChannel{}
	}
	return New(st, notify.NewDispatcher(logx.Nop(), ch), sum, logx.Nop())
}

func TestAddParsesAndStores(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)

	got, err := svc.Add(context.Background(), AddInput{
		Title:      "Dentist",
		ReminderAt: "2025-07-01 15:30",
		Importance: "high",
		Recurrence: "weekly",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID == 0 {
		t.Fatal("task ID not assigned")
	}
	want := time.Date(2025, 7, 1, 15, 30, 0, 0, time.Local)
	if !got.ReminderAt.Equal(want) {
		t.Fatalf("reminder = %v, want %v", got.ReminderAt, want)
	}
	if got.Importance != task.ImportanceHigh || got.Recurrence != task.RecurrenceWeekly {
		t.Fatalf("enums = %s/%s", got.Importance, got.Recurrence)
	}
}

func TestAddDerivesTitleFromDescription(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)

	got, err := svc.Add(context.Background(), AddInput{
		Description: "pick up the dry cleaning before the shop closes tonight",
		ReminderAt:  "2025-07-01 18:00",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.Title != "pick up the dry cleaning before the" {
		t.Fatalf("derived title = %q", got.Title)
	}
	if got.Importance != task.ImportanceMedium {
		t.Fatalf("default importance = %s", got.Importance)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)

	tests := []struct {
		name string
		in   AddInput
	}{
		{name: "bad timestamp", in: AddInput{Title: "x", ReminderAt: "tomorrow"}},
		{name: "bad importance", in: AddInput{Title: "x", ReminderAt: "2025-07-01 10:00", Importance: "asap"}},
		{name: "bad recurrence", in: AddInput{Title: "x", ReminderAt: "2025-07-01 10:00", Recurrence: "fortnightly"}},
	}
	for _, tt := range tests {
		_, err := svc.Add(context.Background(), tt.in)
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: err = %v, want ValidationError", tt.name, err)
		}
	}
}

func TestListFilters(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	add := func(title, at, importance string) {
		t.Helper()
		if _, err := svc.Add(ctx, AddInput{Title: title, ReminderAt: at, Importance: importance}); err != nil {
			t.Fatalf("add %s: %v", title, err)
		}
	}
	add("a", "2025-07-01 09:00", "low")
	add("b", "2025-07-01 17:00", "urgent")
	add("c", "2025-07-02 09:00", "urgent")

	all, err := svc.List(ctx, ListFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("all = %d, %v", len(all), err)
	}
	urgent, err := svc.List(ctx, ListFilter{Importance: "urgent"})
	if err != nil || len(urgent) != 2 {
		t.Fatalf("urgent = %d, %v", len(urgent), err)
	}
	day, err := svc.List(ctx, ListFilter{Date: "2025-07-01"})
	if err != nil || len(day) != 2 {
		t.Fatalf("by date = %d, %v", len(day), err)
	}
	if _, err := svc.List(ctx, ListFilter{Status: "done"}); err == nil {
		t.Fatal("unknown status must be rejected")
	}
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.Local) }
	overdue, err := svc.List(ctx, ListFilter{Status: "overdue"})
	if err != nil || len(overdue) != 1 || overdue[0].Title != "a" {
		t.Fatalf("overdue = %v, %v", overdue, err)
	}
	upcoming, err := svc.List(ctx, ListFilter{Status: "upcoming"})
	if err != nil || len(upcoming) != 2 {
		t.Fatalf("upcoming = %d, %v", len(upcoming), err)
	}
	if _, err := svc.List(ctx, ListFilter{Date: "July 1st"}); err == nil {
		t.Fatal("bad date must be rejected")
	}
}

func TestCompleteRecurringReportsReschedule(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	tk, err := svc.Add(ctx, AddInput{Title: "standup", ReminderAt: "2025-07-01 09:00", Recurrence: "daily"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	msg, err := svc.Complete(ctx, tk.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(msg, "rescheduled") || !strings.Contains(msg, "2025-07-02 09:00") {
		t.Fatalf("message = %q", msg)
	}
	got, err := svc.Get(ctx, tk.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Completed {
		t.Fatal("recurring task must stay active")
	}
}

func TestCompleteAndDeleteMissing(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.Complete(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("complete missing: %v", err)
	}
	if err := svc.Delete(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete missing: %v", err)
	}
	if _, err := svc.Get(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
}

func TestSummarizeDegradesWithoutSummarizer(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)

	out, err := svc.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(out, "Total: 0") {
		t.Fatalf("stats block missing:\n%s", out)
	}
}

func TestSummarizeAppendsModelText(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, &fakeSummarizer{text: "All caught up, nice work."})

	out, err := svc.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !strings.Contains(out, "All caught up, nice work.") {
		t.Fatalf("model text missing:\n%s", out)
	}
}

func TestSummarizeSwallowsSummarizerError(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, &fakeSummarizer{err: errors.New("quota exceeded")})

	out, err := svc.Summarize(context.Background())
	if err != nil {
		t.Fatalf("summarizer failure must degrade, not error: %v", err)
	}
	if !strings.Contains(out, "Total: 0") {
		t.Fatalf("stats block missing:\n%s", out)
	}
}

func TestSetScheduleValidation(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	if _, err := svc.SetSchedule(ctx, 0, true); err == nil {
		t.Fatal("interval 0 must be rejected")
	}
	sched, err := svc.SetSchedule(ctx, 30, true)
	if err != nil {
		t.Fatalf("set schedule: %v", err)
	}
	if sched.IntervalMinutes != 30 || !sched.Enabled {
		t.Fatalf("schedule = %+v", sched)
	}
}

func TestSendTestDigestSurfacesFailure(t *testing.T) {
	t.Parallel()
	ch := &okChannel{err: errors.New("smtp down")}
	svc := newTestService(t, ch, nil)

	if _, err := svc.SendTestDigest(context.Background()); err == nil {
		t.Fatal("undelivered test digest must error")
	}

	ch.err = nil
	summary, err := svc.SendTestDigest(context.Background())
	if err != nil {
		t.Fatalf("send test digest: %v", err)
	}
	if !strings.Contains(summary, "telegram") {
		t.Fatalf("summary = %q", summary)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sends = %d", len(ch.sent))
	}
}
