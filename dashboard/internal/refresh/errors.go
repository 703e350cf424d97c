package refresh

import (
	"errors"
	"fmt"

	"github.com/pilot-net/nms-dashboard/dashboard/internal/entity"
)

// ErrUnknownKind is returned for a collection kind the refresher cannot fetch.
var ErrUnknownKind = errors.New("unknown collection kind")

func errUnknownKind(kind entity.Kind) error {
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// ParseKind validates a kind name coming from a request.
func ParseKind(s string) (entity.Kind, error) {
	for _, k := range entity.Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errUnknownKind(entity.Kind(s))
}
