package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"remindbot/internal/task"
)

// DigestStats is the aggregate snapshot a digest renders. Callers fill it
// from store queries; the dispatcher only formats.
type DigestStats struct {
	GeneratedAt  time.Time
	Total        int
	Active       int
	Completed    int
	Overdue      int
	HighPriority []task.Task
	Upcoming     []task.Task // due within the next 24h
}

// FormatDigest renders the fixed digest template.
func FormatDigest(s DigestStats) string {
	at := s.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Task digest — %s\n", at.Format("Mon, 02 Jan 2006 15:04"))
	fmt.Fprintf(&b, "Total: %d · Active: %d · Completed: %d · Overdue: %d\n", s.Total, s.Active, s.Completed, s.Overdue)

	if len(s.HighPriority) > 0 {
		b.WriteString("\n❗ High priority:\n")
		for _, t := range s.HighPriority {
			fmt.Fprintf(&b, "  • [%s] %s — due %s\n", t.Importance, t.Title, t.ReminderAt.Format("02 Jan 15:04"))
		}
	}

	if len(s.Upcoming) > 0 {
		upcoming := append([]task.Task(nil), s.Upcoming...)
		sort.Slice(upcoming, func(i, j int) bool {
			return upcoming[i].ReminderAt.Before(upcoming[j].ReminderAt)
		})
		b.WriteString("\n⏳ Upcoming in the next 24h:\n")
		for _, t := range upcoming {
			fmt.Fprintf(&b, "  • %s — due %s\n", t.Title, t.ReminderAt.Format("02 Jan 15:04"))
		}
	}

	if s.Active == 0 {
		b.WriteString("\n🎉 All clear — no active tasks!\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
