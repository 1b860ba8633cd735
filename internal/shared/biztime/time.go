// Package biztime centralizes time handling. All storage and comparison use
// UTC; anything user-facing converts at the edge.
package biztime

import (
	"time"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ToUTC converts a time (any timezone) to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
