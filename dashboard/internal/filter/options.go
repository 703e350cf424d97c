package filter

import (
	"sort"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// Options holds the selectable values per filter key.
type Options map[Key][]string

// DeriveOptions returns, for every filter key, the sorted distinct values
// present in rows. Callers pass the unfiltered rows so the options reflect
// the live data rather than the current selection. Unresolved locations and
// workers contribute no option.
func DeriveOptions(rows []types.EnrichedDevice) Options {
	sets := make(map[Key]map[string]struct{}, len(Keys))
	for _, k := range Keys {
		sets[k] = make(map[string]struct{})
	}

	for i := range rows {
		for _, k := range Keys {
			v, ok := fieldValue(&rows[i], k)
			if !ok || v == "" {
				continue
			}
			sets[k][v] = struct{}{}
		}
	}

	opts := make(Options, len(Keys))
	for k, set := range sets {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		opts[k] = values
	}
	return opts
}
