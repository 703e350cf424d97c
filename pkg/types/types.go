// Package types defines the read-model shared by the dashboard fetchers, the
// entity store and the view pipeline.
//
// # Design Principles
//
// 1. Snapshots: records are immutable once fetched; a refresh replaces the whole collection
// 2. Serialization: all types are JSON-serializable for the NMS API and for the snapshot cache
// 3. Validation: types include Validate() methods enforcing the structural schema of a record
package types

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// =============================================================================
// DEVICE
// =============================================================================

// Device is a monitored endpoint as reported by the NMS.
//
// DeviceTypeID, LocationID and WorkerID are foreign keys into the other
// collections. They are resolved by the enrichment step, never here.
type Device struct {
	ID       int      `json:"id"`
	IP       string   `json:"ip"`
	Port     int      `json:"port"`
	Hostname string   `json:"hostname"`
	Display  string   `json:"display"`
	IMEI     string   `json:"imei,omitempty"`
	Protocol Protocol `json:"protocol"`

	// Disabled devices are still listed but not probed by their worker.
	Disabled bool `json:"disabled"`

	// Status is the aggregate reachability verdict of the last checks.
	Status       bool   `json:"status"`
	StatusReason string `json:"status_reason,omitempty"`

	// Timing
	CheckInterval       float64    `json:"check_interval"`
	Timeout             float64    `json:"timeout"`
	LastPing            *time.Time `json:"last_ping,omitempty"`
	LastPingTimeTaken   float64    `json:"last_ping_time_taken"`
	ConsecutiveFailures int        `json:"consecutive_failures"`

	// Foreign keys
	DeviceTypeID int    `json:"device_type_id"`
	LocationID   int    `json:"location_id"`
	WorkerID     string `json:"worker_id"`

	// SNMP settings, empty for other protocols
	SNMPCommunity string `json:"snmp_community,omitempty"`
	SNMPUsername  string `json:"snmp_username,omitempty"`
	SNMPVersion   string `json:"snmp_version,omitempty"`

	Attributes Attributes `json:"attributes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Protocol is the probing method a worker uses for a device.
type Protocol string

const (
	ProtocolICMP Protocol = "ICMP"
	ProtocolSNMP Protocol = "SNMP"
	ProtocolGPRS Protocol = "GPRS"
)

// Normalize returns the protocol upper-cased, the form used for comparisons.
func (p Protocol) Normalize() Protocol {
	return Protocol(strings.ToUpper(strings.TrimSpace(string(p))))
}

// Valid reports whether p (in any case) is one of the known protocols.
func (p Protocol) Valid() bool {
	switch p.Normalize() {
	case ProtocolICMP, ProtocolSNMP, ProtocolGPRS:
		return true
	}
	return false
}

// Device status labels. These are the only two status values the dashboard
// exposes; see StatusLabel.
const (
	StatusOnline  = "Online"
	StatusOffline = "Offline"
)

// StatusLabel maps the boolean aggregate status to its display label.
// Filter, export, reports and summary all go through this function so the
// dashboard has a single status taxonomy.
func StatusLabel(status bool) string {
	if status {
		return StatusOnline
	}
	return StatusOffline
}

// Validate checks that the device has required fields and valid values.
func (d *Device) Validate() error {
	if d.ID <= 0 {
		return fmt.Errorf("device id must be positive, got %d", d.ID)
	}
	if d.IP != "" && net.ParseIP(d.IP) == nil {
		return fmt.Errorf("device %d: invalid IP address: %s", d.ID, d.IP)
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("device %d: port out of range: %d", d.ID, d.Port)
	}
	if d.Protocol != "" && !d.Protocol.Valid() {
		return fmt.Errorf("device %d: unknown protocol %q", d.ID, d.Protocol)
	}
	if d.ConsecutiveFailures < 0 {
		return fmt.Errorf("device %d: consecutive_failures must not be negative", d.ID)
	}
	if d.LastPingTimeTaken < 0 {
		return fmt.Errorf("device %d: last_ping_time_taken must not be negative", d.ID)
	}
	return nil
}

// =============================================================================
// DEVICE TYPE
// =============================================================================

// DeviceType classifies devices (camera, router, meter...).
type DeviceType struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the device type has required fields.
func (t *DeviceType) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("device type id must be positive, got %d", t.ID)
	}
	if t.Name == "" {
		return fmt.Errorf("device type %d: name is required", t.ID)
	}
	return nil
}

// =============================================================================
// LOCATION
// =============================================================================

// Location is a site where devices are installed.
type Location struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Status         string  `json:"status,omitempty"`
	StatusReason   string  `json:"status_reason,omitempty"`
	LocationTypeID int     `json:"location_type_id"`
	Project        string  `json:"project"`
	Area           string  `json:"area"`

	// WorkerID is set when the whole site is served by a single worker.
	WorkerID *string `json:"worker_id,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Validate checks that the location has required fields and sane coordinates.
func (l *Location) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("location id must be positive, got %d", l.ID)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("location %d: latitude out of range: %v", l.ID, l.Lat)
	}
	if l.Lng < -180 || l.Lng > 180 {
		return fmt.Errorf("location %d: longitude out of range: %v", l.ID, l.Lng)
	}
	return nil
}

// =============================================================================
// ENRICHED DEVICE
// =============================================================================

// UnknownDeviceType is the device type name used when DeviceTypeID has no
// match in the current device type collection.
const UnknownDeviceType = "Unknown"

// NotAvailable is how consumers render an unresolved location or worker.
const NotAvailable = "N/A"

// EnrichedDevice is a Device with its foreign keys resolved to display fields.
// It is derived, never persisted.
//
// LocationName and WorkerHostname are nil when the reference is dangling.
type EnrichedDevice struct {
	Device

	DeviceTypeName string  `json:"device_type_name"`
	LocationName   *string `json:"location_name,omitempty"`
	WorkerHostname *string `json:"worker_hostname,omitempty"`
}

// StatusLabel returns the display label of the device status.
func (d *EnrichedDevice) StatusLabel() string {
	return StatusLabel(d.Status)
}

// LocationOrNA returns the location name or "N/A".
func (d *EnrichedDevice) LocationOrNA() string {
	if d.LocationName == nil {
		return NotAvailable
	}
	return *d.LocationName
}

// WorkerOrNA returns the worker hostname or "N/A".
func (d *EnrichedDevice) WorkerOrNA() string {
	if d.WorkerHostname == nil {
		return NotAvailable
	}
	return *d.WorkerHostname
}
