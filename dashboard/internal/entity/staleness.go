package entity

import (
	"time"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/config"
)

// IsStale reports whether a collection fetched at lastFetched must be
// refetched. A nil lastFetched (never fetched) is always stale. A
// non-positive maxAge means config.DefaultMaxAge.
func IsStale(lastFetched *time.Time, maxAge time.Duration) bool {
	return IsStaleAt(time.Now(), lastFetched, maxAge)
}

// IsStaleAt is IsStale evaluated at now.
func IsStaleAt(now time.Time, lastFetched *time.Time, maxAge time.Duration) bool {
	if lastFetched == nil {
		return true
	}
	if maxAge <= 0 {
		maxAge = config.DefaultMaxAge
	}
	return now.Sub(*lastFetched) > maxAge
}
