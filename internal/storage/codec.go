package storage

import "time"

// timeLayout is the single canonical serialization of timestamps at the
// storage edge. Server-local, no embedded zone; lexicographic order matches
// chronological order, so SQL comparisons on the text column are sound.
const timeLayout = "2006-01-02 15:04:05"

func encodeTime(t time.Time) string {
	return t.Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.Local)
}
