// Package scheduler runs the background tick loop: a digest pass and a
// due-task pass every minute. Delivery is at-least-once; a task is only
// marked processed after a confirmed dispatch, so a crash between dispatch
// and mark can repeat a reminder but never lose one.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/notify"
	"remindbot/internal/storage"
	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

const (
	tickSpec        = "@every 60s"
	upcomingHorizon = 24 * time.Hour
)

// Enricher composes the notification body for a due task.
type Enricher interface {
	Enrich(ctx context.Context, t task.Task) string
}

type Scheduler struct {
	store  *storage.Store
	disp   *notify.Dispatcher
	enrich Enricher
	log    logx.Logger

	// now is swapped in tests.
	now func() time.Time

	mu      sync.Mutex
	c       *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func New(store *storage.Store, disp *notify.Dispatcher, enrich Enricher, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		store:  store,
		disp:   disp,
		enrich: enrich,
		log:    log,
		now:    time.Now,
	}
}

// Start transitions stopped -> running. Calling Start on a running scheduler
// logs a warning and no-ops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("scheduler already running, start ignored")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.log})))
	if _, err := c.AddFunc(tickSpec, func() { s.Tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("register tick job: %w", err)
	}
	c.Start()

	s.c = c
	s.cancel = cancel
	s.running = true
	s.log.Info("scheduler started", logx.String("interval", tickSpec))
	return nil
}

// Stop cancels the loop and waits for an in-flight tick to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.c.Stop().Done()
	s.c = nil
	s.cancel = nil
	s.running = false
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick runs one scheduler pass. Panics are recovered here so a bad tick
// never kills the loop.
func (s *Scheduler) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked", logx.Any("panic", r))
		}
	}()

	now := s.now()
	s.digestPass(ctx, now)
	s.duePass(ctx, now)
}

// digestPass sends the periodic digest when one is configured and due.
// lastSentAt is only advanced after a confirmed delivery, so a failed digest
// retries on the next qualifying tick.
func (s *Scheduler) digestPass(ctx context.Context, now time.Time) {
	sched, err := s.store.GetSchedule(ctx)
	if err != nil {
		s.log.Warn("digest schedule read failed", logx.Err(err))
		return
	}
	if sched == nil || !sched.Enabled || sched.IntervalMinutes <= 0 {
		return
	}
	if sched.LastSentAt != nil && now.Sub(*sched.LastSentAt) < time.Duration(sched.IntervalMinutes)*time.Minute {
		return
	}

	stats, err := CollectDigestStats(ctx, s.store, now)
	if err != nil {
		s.log.Warn("digest stats collection failed", logx.Err(err))
		return
	}
	res, err := s.disp.SendDigest(ctx, stats)
	if err != nil {
		s.log.Warn("digest dispatch failed", logx.Err(err))
		return
	}
	if !res.Delivered() {
		s.log.Warn("digest not delivered on any channel", logx.String("outcomes", res.Summary()))
		return
	}
	if err := s.store.UpdateLastSent(ctx, now); err != nil {
		s.log.Warn("digest last-sent update failed", logx.Err(err))
	}
}

// duePass delivers every due reminder. Tasks are processed independently so
// one failure never blocks the rest of the batch.
func (s *Scheduler) duePass(ctx context.Context, now time.Time) {
	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		s.log.Warn("due task query failed", logx.Err(err))
		return
	}
	for _, t := range due {
		s.processDue(ctx, t, now)
	}
}

func (s *Scheduler) processDue(ctx context.Context, t task.Task, now time.Time) {
	body := s.enrich.Enrich(ctx, t)
	res, err := s.disp.Send(ctx, "Reminder: "+t.Title, body)
	if err != nil {
		s.log.Warn("reminder dispatch failed",
			logx.Int64("task_id", t.ID), logx.Err(err))
		return
	}
	if !res.Delivered() {
		s.log.Warn("reminder not delivered, leaving task for retry",
			logx.Int64("task_id", t.ID), logx.String("outcomes", res.Summary()))
		// Best-effort notice; if every channel is down it fails too.
		notice := fmt.Sprintf("Reminder %q could not be delivered: %s", t.Title, res.Summary())
		_, _ = s.disp.Send(ctx, "Delivery problem", notice)
		return
	}

	ok, err := s.store.MarkProcessed(ctx, t, now)
	if err != nil {
		s.log.Warn("mark processed failed", logx.Int64("task_id", t.ID), logx.Err(err))
		return
	}
	if !ok {
		s.log.Debug("task vanished before processing", logx.Int64("task_id", t.ID))
		return
	}
	if t.IsRecurring() {
		s.log.Info("recurring reminder delivered and rescheduled",
			logx.Int64("task_id", t.ID), logx.String("recurrence", string(t.Recurrence)))
	} else {
		s.log.Info("reminder delivered, task completed", logx.Int64("task_id", t.ID))
	}
}

// CollectDigestStats aggregates the digest snapshot from the store.
func CollectDigestStats(ctx context.Context, st *storage.Store, now time.Time) (notify.DigestStats, error) {
	all, err := st.ListTasks(ctx)
	if err != nil {
		return notify.DigestStats{}, err
	}
	active := 0
	for _, t := range all {
		if !t.Completed {
			active++
		}
	}
	overdue, err := st.ListOverdue(ctx, now)
	if err != nil {
		return notify.DigestStats{}, err
	}
	high, err := st.ListHighPriority(ctx)
	if err != nil {
		return notify.DigestStats{}, err
	}
	upcoming, err := st.ListUpcoming(ctx, now, upcomingHorizon)
	if err != nil {
		return notify.DigestStats{}, err
	}
	return notify.DigestStats{
		GeneratedAt:  now,
		Total:        len(all),
		Active:       active,
		Completed:    len(all) - active,
		Overdue:      len(overdue),
		HighPriority: high,
		Upcoming:     upcoming,
	}, nil
}

// cronLogger adapts logx to cron's logging interface.
type cronLogger struct {
	log logx.Logger
}

func (l cronLogger) Info(msg string, _ ...any) {
	l.log.Debug(msg)
}

func (l cronLogger) Error(err error, msg string, _ ...any) {
	l.log.Warn(msg, logx.Err(err))
}
