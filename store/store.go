// Package store defines the persistence interface for the device
// lifecycle manager: device inventory, the warm-init cycle journal,
// and the operation log. Implementations live in subpackages.
package store

import (
	"context"
	"io"
	"time"

	switchd "github.com/frobware/go-switchd"
)

// DeviceRecord is one row of the device inventory. Lifecycle state is
// not stored here; it is derived from the cycle journal.
type DeviceRecord struct {
	Device         switchd.DeviceID
	Family         string
	ProfileSummary string
	AddedAt        time.Time
}

// OpEntry is one row of the operation log: a mutating operation, which
// device it touched, and how it ended.
type OpEntry struct {
	Seq     int64            `json:"seq"`
	Time    time.Time        `json:"time"`
	Op      string           `json:"op"`
	Device  switchd.DeviceID `json:"device"`
	Detail  string           `json:"detail,omitempty"`
	Outcome string           `json:"outcome"`
}

// DeviceWriter writes device inventory rows.
type DeviceWriter interface {
	// SaveDevice inserts or replaces the inventory row for a device.
	SaveDevice(ctx context.Context, rec DeviceRecord) error
	DeleteDevice(ctx context.Context, dev switchd.DeviceID) error
}

// DeviceReader reads device inventory rows.
// GetDevice returns switchd.ErrNotFound if the device has no row.
type DeviceReader interface {
	GetDevice(ctx context.Context, dev switchd.DeviceID) (DeviceRecord, error)
	ListDevices(ctx context.Context) ([]DeviceRecord, error)
}

// DeviceStore combines device inventory operations.
type DeviceStore interface {
	DeviceWriter
	DeviceReader
}

// CycleWriter writes warm-init journal rows.
type CycleWriter interface {
	// OpenCycle records the start of a warm-init cycle. The cycle id
	// must be unique; the caller mints it.
	OpenCycle(ctx context.Context, cycle switchd.WarmInitCycle) error

	// CloseCycle stamps the end time on a cycle.
	// Returns switchd.ErrNotFound if no such cycle exists.
	CloseCycle(ctx context.Context, cycleID string, endedAt time.Time) error

	// AbortOpenCycle marks the open cycle for a device aborted, if
	// one exists. Aborting with no open cycle is not an error.
	AbortOpenCycle(ctx context.Context, dev switchd.DeviceID) error

	// MarkCycleFault sets the fault marker on a cycle.
	// Returns switchd.ErrNotFound if no such cycle exists.
	MarkCycleFault(ctx context.Context, cycleID string, fault bool) error
}

// CycleReader reads warm-init journal rows.
type CycleReader interface {
	// GetOpenCycle returns the open cycle for a device, or
	// switchd.ErrNotFound if none is open.
	GetOpenCycle(ctx context.Context, dev switchd.DeviceID) (switchd.WarmInitCycle, error)

	// ListCycles returns a device's cycles, most recent first.
	ListCycles(ctx context.Context, dev switchd.DeviceID) ([]switchd.WarmInitCycle, error)

	// ListOpenCycles returns every open cycle across all devices.
	ListOpenCycles(ctx context.Context) ([]switchd.WarmInitCycle, error)
}

// CycleStore combines warm-init journal operations.
type CycleStore interface {
	CycleWriter
	CycleReader
}

// OpLog appends and reads the operation log.
type OpLog interface {
	AppendOp(ctx context.Context, entry OpEntry) error
	// ListOps returns the most recent entries, newest first, capped
	// at limit (all entries when limit <= 0).
	ListOps(ctx context.Context, limit int) ([]OpEntry, error)
}

// Transactional provides atomic execution of store operations.
// The callback receives a Store that participates in the transaction.
// If the callback returns nil, the transaction commits; otherwise it
// rolls back.
type Transactional interface {
	RunInTransaction(ctx context.Context, fn func(Store) error) error
}

// Store combines inventory, journal, and oplog persistence.
type Store interface {
	io.Closer
	DeviceStore
	CycleStore
	OpLog
	Transactional
}
