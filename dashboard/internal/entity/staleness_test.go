package entity

import (
	"testing"
	"time"
)

func TestIsStaleAt(t *testing.T) {
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 5 * time.Minute
	at := func(d time.Duration) *time.Time {
		ts := now.Add(d)
		return &ts
	}

	tests := []struct {
		name        string
		lastFetched *time.Time
		maxAge      time.Duration
		want        bool
	}{
		{"never fetched", nil, maxAge, true},
		{"never fetched with huge max age", nil, 24 * time.Hour, true},
		{"just past max age", at(-maxAge - time.Millisecond), maxAge, true},
		{"just inside max age", at(-maxAge + time.Millisecond), maxAge, false},
		{"exactly max age", at(-maxAge), maxAge, false},
		{"fresh", at(0), maxAge, false},
		{"default max age applies", at(-4 * time.Minute), 0, false},
		{"default max age expired", at(-6 * time.Minute), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStaleAt(now, tt.lastFetched, tt.maxAge); got != tt.want {
				t.Errorf("IsStaleAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStaleUsesWallClock(t *testing.T) {
	recent := time.Now().Add(-time.Second)
	if IsStale(&recent, time.Minute) {
		t.Error("fetch one second ago should not be stale")
	}
	old := time.Now().Add(-2 * time.Minute)
	if !IsStale(&old, time.Minute) {
		t.Error("fetch two minutes ago should be stale with a one minute max age")
	}
}
