package types

import (
	"fmt"
	"time"
)

// Worker is a probing agent that serves a set of devices.
type Worker struct {
	ID        string `json:"id"`
	Hostname  string `json:"hostname"`
	IPAddress string `json:"ip_address"`
	Version   string `json:"version"`

	// Capabilities is nil when the worker never reported any.
	Capabilities []string `json:"capabilities"`

	Status         WorkerStatus   `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	ApprovedBy     string         `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	MaxDevices     int            `json:"max_devices"`

	Metadata Attributes `json:"metadata,omitempty"`

	LastSeen     *time.Time `json:"last_seen,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// WorkerStatus is the liveness state the NMS reports for a worker.
type WorkerStatus string

const (
	WorkerStatusActive  WorkerStatus = "active"
	WorkerStatusOffline WorkerStatus = "offline"
)

// ApprovalStatus tracks whether an operator admitted the worker.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// Validate checks that the worker has required fields.
func (w *Worker) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("worker id is required")
	}
	if w.MaxDevices < 0 {
		return fmt.Errorf("worker %s: max_devices must not be negative", w.ID)
	}
	return nil
}
