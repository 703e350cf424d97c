package types

import (
	"encoding/json"
	"testing"
)

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(true); got != "Online" {
		t.Errorf("StatusLabel(true) = %q, want Online", got)
	}
	if got := StatusLabel(false); got != "Offline" {
		t.Errorf("StatusLabel(false) = %q, want Offline", got)
	}
}

func TestProtocolNormalize(t *testing.T) {
	tests := []struct {
		in    Protocol
		want  Protocol
		valid bool
	}{
		{"icmp", ProtocolICMP, true},
		{" Snmp ", ProtocolSNMP, true},
		{"GPRS", ProtocolGPRS, true},
		{"http", "HTTP", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
			if got := tt.in.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestDeviceValidate(t *testing.T) {
	tests := []struct {
		name    string
		device  Device
		wantErr bool
	}{
		{"valid", Device{ID: 1, IP: "10.0.0.1", Port: 161, Protocol: ProtocolSNMP}, false},
		{"lowercase protocol", Device{ID: 1, Protocol: "icmp"}, false},
		{"zero id", Device{ID: 0}, true},
		{"bad ip", Device{ID: 1, IP: "not-an-ip"}, true},
		{"port out of range", Device{ID: 1, Port: 70000}, true},
		{"unknown protocol", Device{ID: 1, Protocol: "TELNET"}, true},
		{"negative failures", Device{ID: 1, ConsecutiveFailures: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.device.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLocationValidate(t *testing.T) {
	ok := Location{ID: 5, Name: "Gate A", Lat: 31.9, Lng: 35.2}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid location, got %v", err)
	}

	bad := Location{ID: 5, Lat: 91}
	if err := bad.Validate(); err == nil {
		t.Error("expected latitude error")
	}
}

func TestWorkerValidate(t *testing.T) {
	if err := (&Worker{}).Validate(); err == nil {
		t.Error("expected error for missing id")
	}
	if err := (&Worker{ID: "w1"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAttributesJSON(t *testing.T) {
	input := `{"site":"north","floor":3,"poe":true,"note":null,"ports":[1,2]}`

	var attrs Attributes
	if err := json.Unmarshal([]byte(input), &attrs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	checks := map[string]struct {
		kind Kind
		str  string
	}{
		"site":  {KindString, "north"},
		"floor": {KindNumber, "3"},
		"poe":   {KindBool, "true"},
		"note":  {KindNull, ""},
		"ports": {KindRaw, "[1,2]"},
	}
	for key, want := range checks {
		v, ok := attrs[key]
		if !ok {
			t.Errorf("missing key %q", key)
			continue
		}
		if v.Kind() != want.kind {
			t.Errorf("%s: kind = %v, want %v", key, v.Kind(), want.kind)
		}
		if v.String() != want.str {
			t.Errorf("%s: String() = %q, want %q", key, v.String(), want.str)
		}
	}

	out, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if back["floor"] != float64(3) || back["poe"] != true || back["note"] != nil {
		t.Errorf("unexpected re-encoded attributes: %s", out)
	}
}

func TestEnrichedDeviceFallbacks(t *testing.T) {
	d := EnrichedDevice{Device: Device{ID: 1, Status: true}, DeviceTypeName: UnknownDeviceType}
	if d.LocationOrNA() != "N/A" || d.WorkerOrNA() != "N/A" {
		t.Errorf("expected N/A fallbacks, got %q %q", d.LocationOrNA(), d.WorkerOrNA())
	}
	if d.StatusLabel() != StatusOnline {
		t.Errorf("StatusLabel() = %q", d.StatusLabel())
	}
}
