package filter

import (
	"net/url"
	"strings"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// FromQuery derives a State from URL query parameters.
//
// Only recognized keys are read; anything else in the query is ignored. The
// status value is case-insensitive and must be online or offline, it is
// stored as the display label ("Online"/"Offline"). Any other status value
// is dropped, leaving status unconstrained.
//
// Callers re-derive the state from the URL after every navigation and never
// merge it with a previous state: the URL is the source of truth.
func FromQuery(q url.Values) State {
	st := make(State)
	for _, key := range Keys {
		v := q.Get(string(key))
		if v == "" {
			continue
		}
		if key == KeyStatus {
			label, ok := normalizeStatus(v)
			if !ok {
				continue
			}
			v = label
		}
		st[key] = v
	}
	return st
}

func normalizeStatus(v string) (string, bool) {
	switch strings.ToLower(v) {
	case "online":
		return types.StatusOnline, true
	case "offline":
		return types.StatusOffline, true
	}
	return "", false
}

// Query encodes the recognized, non-empty entries of s as query parameters.
func (s State) Query() url.Values {
	q := make(url.Values)
	for _, key := range Keys {
		if v := s[key]; v != "" {
			q.Set(string(key), v)
		}
	}
	return q
}

// WithFilter returns a copy of q with key set to value, or removed when
// value is empty. All other parameters are preserved untouched.
func WithFilter(q url.Values, key Key, value string) url.Values {
	next := make(url.Values, len(q)+1)
	for k, vs := range q {
		next[k] = append([]string(nil), vs...)
	}
	if value == "" {
		next.Del(string(key))
	} else {
		next.Set(string(key), value)
	}
	return next
}

// Target builds a navigation target from a path and a query.
func Target(path string, q url.Values) string {
	encoded := q.Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}
