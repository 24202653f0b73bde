// Package biztime centralises wall-clock access. All timestamps are stored
// and compared in UTC with millisecond precision.
package biztime

import "time"

// Clock returns the current time. Components take a Clock so tests can pin it.
type Clock func() time.Time

// NowUTC returns the current time in UTC truncated to milliseconds.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// ToMillis converts t to unix milliseconds for storage.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts stored unix milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
