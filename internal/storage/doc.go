// Package storage persists tasks and the digest notification schedule in an
// embedded SQLite database.
//
// The store owns the durable representation exclusively; callers receive
// copies from queries and mutate through store operations only. Timestamps
// and enums cross the storage edge through a single codec boundary.
package storage
