package task

import (
	"fmt"
	"strings"
	"time"
)

// Importance ranks how urgently a task should be surfaced.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
	ImportanceUrgent Importance = "urgent"
)

// Recurrence describes how a task's reminder advances instead of completing.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Task is a single reminder item.
//
// Invariant: a task with Recurrence != none is never observed with
// Completed == true; processing advances ReminderAt instead.
type Task struct {
	ID          int64
	Title       string
	Description string
	ReminderAt  time.Time
	Recurrence  Recurrence
	Importance  Importance
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRecurring reports whether processing rolls the reminder forward.
func (t Task) IsRecurring() bool {
	return t.Recurrence != RecurrenceNone && t.Recurrence != ""
}

// HighPriority reports whether the task belongs in the digest's
// high-priority section.
func (t Task) HighPriority() bool {
	return t.Importance == ImportanceHigh || t.Importance == ImportanceUrgent
}

func ParseImportance(s string) (Importance, error) {
	switch Importance(strings.ToLower(strings.TrimSpace(s))) {
	case ImportanceLow:
		return ImportanceLow, nil
	case ImportanceMedium, "":
		return ImportanceMedium, nil
	case ImportanceHigh:
		return ImportanceHigh, nil
	case ImportanceUrgent:
		return ImportanceUrgent, nil
	default:
		return "", &ValidationError{Field: "importance", Reason: fmt.Sprintf("unknown value %q (want low|medium|high|urgent)", s)}
	}
}

func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(strings.ToLower(strings.TrimSpace(s))) {
	case RecurrenceNone, "":
		return RecurrenceNone, nil
	case RecurrenceDaily:
		return RecurrenceDaily, nil
	case RecurrenceWeekly:
		return RecurrenceWeekly, nil
	case RecurrenceMonthly:
		return RecurrenceMonthly, nil
	default:
		return "", &ValidationError{Field: "recurrence", Reason: fmt.Sprintf("unknown value %q (want none|daily|weekly|monthly)", s)}
	}
}

const (
	titleMaxRunes  = 50
	titleWordCount = 7
)

// DeriveTitle builds a short label from a description when no explicit title
// was supplied: the first few words, truncated with an ellipsis.
func DeriveTitle(description string) string {
	words := strings.Fields(description)
	if len(words) == 0 {
		return "Untitled task"
	}
	if len(words) > titleWordCount {
		words = words[:titleWordCount]
	}
	title := strings.Join(words, " ")
	rs := []rune(title)
	if len(rs) > titleMaxRunes {
		title = string(rs[:titleMaxRunes-3]) + "..."
	}
	return title
}
