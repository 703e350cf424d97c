// Package filter narrows enriched device rows by a set of equality
// constraints and keeps that constraint set in sync with a URL query string.
//
// A State holds at most one value per key. Keys combine with AND semantics.
// Keys outside the known set are carried but never constrain anything.
package filter

import (
	"strings"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// Key names a filterable field of an enriched device.
type Key string

const (
	KeyType     Key = "type"
	KeyStatus   Key = "status"
	KeyLocation Key = "location"
	KeyWorker   Key = "worker"
	KeyProtocol Key = "protocol"
)

// Keys lists the recognized filter keys in display order.
var Keys = []Key{KeyType, KeyStatus, KeyLocation, KeyWorker, KeyProtocol}

// Known reports whether k is a recognized filter key.
func (k Key) Known() bool {
	switch k {
	case KeyType, KeyStatus, KeyLocation, KeyWorker, KeyProtocol:
		return true
	}
	return false
}

// State maps filter keys to the single value each is constrained to.
// A missing key or an empty value means no constraint.
type State map[Key]string

// Set returns a copy of s with key set to value. An empty value removes the
// key. The receiver is not modified.
func (s State) Set(key Key, value string) State {
	next := make(State, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	if value == "" {
		delete(next, key)
	} else {
		next[key] = value
	}
	return next
}

// Active returns the number of recognized keys with a non-empty value.
func (s State) Active() int {
	n := 0
	for k, v := range s {
		if v != "" && k.Known() {
			n++
		}
	}
	return n
}

// Apply returns the rows that satisfy every active constraint of st, in
// input order. The result is never nil.
func Apply(rows []types.EnrichedDevice, st State) []types.EnrichedDevice {
	out := make([]types.EnrichedDevice, 0, len(rows))
	for i := range rows {
		if Matches(&rows[i], st) {
			out = append(out, rows[i])
		}
	}
	return out
}

// Matches reports whether row satisfies every active constraint of st.
func Matches(row *types.EnrichedDevice, st State) bool {
	for key, want := range st {
		if want == "" || !key.Known() {
			continue
		}
		got, ok := fieldValue(row, key)
		if !ok || !equal(key, got, want) {
			return false
		}
	}
	return true
}

// fieldValue returns the value of the field key targets. ok is false when
// the row has no value for it (unresolved location or worker).
func fieldValue(row *types.EnrichedDevice, key Key) (string, bool) {
	switch key {
	case KeyType:
		return row.DeviceTypeName, true
	case KeyStatus:
		return types.StatusLabel(row.Status), true
	case KeyLocation:
		if row.LocationName == nil {
			return "", false
		}
		return *row.LocationName, true
	case KeyWorker:
		if row.WorkerHostname == nil {
			return "", false
		}
		return *row.WorkerHostname, true
	case KeyProtocol:
		return string(row.Protocol.Normalize()), true
	}
	return "", false
}

func equal(key Key, got, want string) bool {
	switch key {
	case KeyStatus:
		return strings.EqualFold(got, want)
	case KeyProtocol:
		return got == strings.ToUpper(want)
	}
	return got == want
}
