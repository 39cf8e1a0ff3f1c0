// Package store implements the capability stores (contacts, calendar,
// reminders, tasks, memory) against the shared SQLite handle.
//
// Conventions shared by every store:
//   - record ids are generated uuids, never caller-supplied
//   - timestamps and dates are ISO-8601 strings; callers only ever compare
//     or prefix-slice them
//   - expected failures (missing record, validation) come back as error
//     returns; the dispatch layer converts them to error-shaped results
package store

import "time"

const (
	isoLayout  = "2006-01-02T15:04:05"
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// isoNow returns the current local time as an ISO-8601 string.
// Local-naive on purpose: the whole schema compares these lexicographically.
func isoNow() string {
	return time.Now().Format(isoLayout)
}
