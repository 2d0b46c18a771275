// ABOUTME: Pure time formatting helpers for the chat UI
// ABOUTME: Clock-time strings, relative-age strings, and lenient timestamp parsing

package timefmt

import (
	"fmt"
	"time"
)

// Coerce parses a stored timestamp leniently. Empty or unparseable values
// yield the fallback instead of an error, so a damaged timestamp never
// poisons a whole restore.
func Coerce(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return fallback
}

// Clock formats a timestamp as a 12-hour clock time, e.g. "3:04 PM".
func Clock(t time.Time) string {
	return t.Format("3:04 PM")
}

// DistanceToNow renders how long ago t was, coarsely: "just now",
// "5m ago", "3h ago", "2d ago".
func DistanceToNow(t time.Time) string {
	return distance(t, time.Now())
}

func distance(t, now time.Time) string {
	minutes := int(now.Sub(t).Minutes())
	if minutes < 1 {
		return "just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}

	return fmt.Sprintf("%dd ago", hours/24)
}
