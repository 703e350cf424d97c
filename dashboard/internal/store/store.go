// Package store reads the NMS collections directly from its PostgreSQL
// database. It is an alternative to the REST client for deployments that sit
// next to the NMS database and is strictly read-only.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pilot-net/nms-dashboard/pkg/types"
)

// Store provides database operations.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromURL creates a new store by connecting to the given database URL.
func NewStoreFromURL(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping tests database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// PoolStats returns connection pool statistics.
func (s *Store) PoolStats() types.PoolStats {
	stat := s.pool.Stat()
	return types.PoolStats{
		TotalConnections:    stat.TotalConns(),
		IdleConnections:     stat.IdleConns(),
		AcquiredConnections: stat.AcquiredConns(),
		MaxConnections:      stat.MaxConns(),
	}
}

// =============================================================================
// DEVICES
// =============================================================================

// FetchDevices returns all devices ordered by id.
func (s *Store) FetchDevices(ctx context.Context) ([]types.Device, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(ip::text, ''), COALESCE(port, 0), COALESCE(hostname, ''), COALESCE(display, ''),
			COALESCE(imei, ''), COALESCE(protocol, ''), disabled, status, COALESCE(status_reason, ''),
			check_interval, timeout, last_ping, COALESCE(last_ping_time_taken, 0), consecutive_failures,
			COALESCE(device_type_id, 0), COALESCE(location_id, 0), COALESCE(worker_id::text, ''),
			COALESCE(snmp_community, ''), COALESCE(snmp_username, ''), COALESCE(snmp_version, ''),
			attributes, created_at, updated_at
		FROM devices
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	devices := []types.Device{}
	for rows.Next() {
		var d types.Device
		var protocol string
		var attrsJSON []byte
		if err := rows.Scan(
			&d.ID, &d.IP, &d.Port, &d.Hostname, &d.Display,
			&d.IMEI, &protocol, &d.Disabled, &d.Status, &d.StatusReason,
			&d.CheckInterval, &d.Timeout, &d.LastPing, &d.LastPingTimeTaken, &d.ConsecutiveFailures,
			&d.DeviceTypeID, &d.LocationID, &d.WorkerID,
			&d.SNMPCommunity, &d.SNMPUsername, &d.SNMPVersion,
			&attrsJSON, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		d.Protocol = types.Protocol(protocol)
		if d.Attributes, err = decodeAttributes(attrsJSON); err != nil {
			return nil, fmt.Errorf("device %d attributes: %w", d.ID, err)
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// =============================================================================
// DEVICE TYPES
// =============================================================================

// FetchDeviceTypes returns all device types ordered by id.
func (s *Store) FetchDeviceTypes(ctx context.Context) ([]types.DeviceType, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at, updated_at
		FROM device_types
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying device types: %w", err)
	}
	defer rows.Close()

	deviceTypes := []types.DeviceType{}
	for rows.Next() {
		var t types.DeviceType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning device type: %w", err)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		deviceTypes = append(deviceTypes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device types: %w", err)
	}
	return deviceTypes, nil
}

// =============================================================================
// LOCATIONS
// =============================================================================

// FetchLocations returns all locations ordered by id.
func (s *Store) FetchLocations(ctx context.Context) ([]types.Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, lat, lng, COALESCE(status, ''), COALESCE(status_reason, ''),
			COALESCE(location_type_id, 0), COALESCE(project, ''), COALESCE(area, ''),
			worker_id::text, created_at, updated_at
		FROM locations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	locations := []types.Location{}
	for rows.Next() {
		var l types.Location
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Lat, &l.Lng, &l.Status, &l.StatusReason,
			&l.LocationTypeID, &l.Project, &l.Area,
			&l.WorkerID, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		if err := l.Validate(); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locations: %w", err)
	}
	return locations, nil
}

// =============================================================================
// WORKERS
// =============================================================================

// FetchWorkers returns all workers ordered by hostname.
func (s *Store) FetchWorkers(ctx context.Context) ([]types.Worker, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, hostname, COALESCE(ip_address::text, ''), COALESCE(version, ''), capabilities,
			status, approval_status, COALESCE(approved_by, ''), approved_at, max_devices, metadata,
			last_seen, registered_at, created_at, updated_at
		FROM workers
		ORDER BY hostname
	`)
	if err != nil {
		return nil, fmt.Errorf("querying workers: %w", err)
	}
	defer rows.Close()

	workers := []types.Worker{}
	for rows.Next() {
		var w types.Worker
		var status, approval string
		var metaJSON []byte
		if err := rows.Scan(
			&w.ID, &w.Hostname, &w.IPAddress, &w.Version, &w.Capabilities,
			&status, &approval, &w.ApprovedBy, &w.ApprovedAt, &w.MaxDevices, &metaJSON,
			&w.LastSeen, &w.RegisteredAt, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning worker: %w", err)
		}
		w.Status = types.WorkerStatus(status)
		w.ApprovalStatus = types.ApprovalStatus(approval)
		if w.Metadata, err = decodeAttributes(metaJSON); err != nil {
			return nil, fmt.Errorf("worker %s metadata: %w", w.ID, err)
		}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workers: %w", err)
	}
	return workers, nil
}

// CountDevices returns the number of device rows. Used as a cheap liveness
// probe of the schema at startup.
func (s *Store) CountDevices(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices`).Scan(&n)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return n, err
}

// decodeAttributes decodes a jsonb column. SQL NULL yields nil.
func decodeAttributes(raw []byte) (types.Attributes, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var attrs types.Attributes
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
