package util

import (
	"fmt"
	"math"
	"time"
)

const (
	DateTimeFormat = "2006-01-02 15:04:05"
	ISO8601Format  = "2006-01-02T15:04:05Z"
)

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

func TimeToISO8601Str(t time.Time) string {
	return t.UTC().Format(ISO8601Format)
}

// TimePtrToISO8601Str returns "" for nil.
func TimePtrToISO8601Str(t *time.Time) string {
	if t == nil {
		return ""
	}
	return TimeToISO8601Str(*t)
}

func ParseISO8601(s string) (time.Time, error) {
	return time.Parse(ISO8601Format, s)
}

// CeilMinutes rounds d up to whole minutes. Non-positive durations yield 0.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// FormatCountdown renders d as "2 hours 5 minutes", rounding up to the minute.
func FormatCountdown(d time.Duration) string {
	mins := CeilMinutes(d)
	if mins == 0 {
		return "less than a minute"
	}

	days, rem := mins/(24*60), mins%(24*60)
	hours, minutes := rem/60, rem%60

	out := ""
	if days > 0 {
		out = plural(days, "day")
	}
	if hours > 0 {
		out = join(out, plural(hours, "hour"))
	}
	if minutes > 0 {
		out = join(out, plural(minutes, "minute"))
	}
	return out
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
