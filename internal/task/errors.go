package task

import "fmt"

// ValidationError reports malformed caller input (enum values, timestamps,
// out-of-range intervals). It is surfaced immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
