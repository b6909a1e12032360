package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCeilMinutes(t *testing.T) {
	assert.Equal(t, 0, CeilMinutes(-time.Minute))
	assert.Equal(t, 0, CeilMinutes(0))
	assert.Equal(t, 1, CeilMinutes(time.Second))
	assert.Equal(t, 10, CeilMinutes(10*time.Minute))
	assert.Equal(t, 11, CeilMinutes(10*time.Minute+time.Second))
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "less than a minute"},
		{30 * time.Second, "1 minute"},
		{14 * time.Minute, "14 minutes"},
		{time.Hour, "1 hour"},
		{2*time.Hour + 5*time.Minute, "2 hours 5 minutes"},
		{25 * time.Hour, "1 day 1 hour"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCountdown(tt.in))
		})
	}
}

func TestTimePtrToISO8601Str(t *testing.T) {
	assert.Equal(t, "", TimePtrToISO8601Str(nil))

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01T10:00:00Z", TimePtrToISO8601Str(&ts))
}
