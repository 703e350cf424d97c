package nms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// ErrSchema is matched (errors.Is) by every response-shape failure.
var ErrSchema = errors.New("response does not match schema")

// SchemaError describes why a response body was rejected.
type SchemaError struct {
	Kind   string // devices, device_types, locations, workers
	Index  int    // record index, -1 when the envelope itself is wrong
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", e.Kind, e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrSchema) true for every SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// DecodeDevices validates a device list response. The body may be a bare
// array, {"devices": [...], "meta": {...}} or {"records": [...], "meta": {...}}.
func DecodeDevices(body []byte) ([]types.Device, error) {
	return decodeList[types.Device](body, "devices", "devices")
}

// DecodeDeviceTypes validates a device type list response
// ({"count": n, "device_types": [...]} or a bare array).
func DecodeDeviceTypes(body []byte) ([]types.DeviceType, error) {
	return decodeList[types.DeviceType](body, "device_types", "device_types")
}

// DecodeLocations validates a location list response (usually a bare array).
func DecodeLocations(body []byte) ([]types.Location, error) {
	return decodeList[types.Location](body, "locations", "locations")
}

// DecodeWorkers validates a worker list response
// ({"workers": [...], "page": 1, ...} or a bare array).
func DecodeWorkers(body []byte) ([]types.Worker, error) {
	return decodeList[types.Worker](body, "workers", "workers")
}

// envelopeKeys are tried in order after the kind specific key.
var envelopeKeys = []string{"records", "data"}

func decodeList[T any, PT interface {
	*T
	Validate() error
}](body []byte, kind string, key string) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &SchemaError{Kind: kind, Index: -1, Reason: "empty body"}
	}

	raw := json.RawMessage(body)
	if body[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, &SchemaError{Kind: kind, Index: -1, Reason: err.Error()}
		}
		var ok bool
		for _, k := range append([]string{key}, envelopeKeys...) {
			if raw, ok = envelope[k]; ok {
				break
			}
		}
		if !ok {
			return nil, &SchemaError{Kind: kind, Index: -1, Reason: fmt.Sprintf("missing %q list", key)}
		}
	}

	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &SchemaError{Kind: kind, Index: -1, Reason: err.Error()}
	}

	for i := range items {
		if err := PT(&items[i]).Validate(); err != nil {
			return nil, &SchemaError{Kind: kind, Index: i, Reason: err.Error()}
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
