package manager

import (
	"fmt"

	switchd "github.com/frobware/go-switchd"
)

// ErrWarmInitInProgress reports a warm-init begin for a device whose
// journal already has an open cycle. Callers can retry after ending
// the open cycle, or enable allow_reentrant_warm_init to have the
// manager abort the stale cycle instead.
type ErrWarmInitInProgress struct {
	Device  switchd.DeviceID
	CycleID string
}

func (e ErrWarmInitInProgress) Error() string {
	return fmt.Sprintf("warm init already in progress for device %d (cycle %s)", e.Device, e.CycleID)
}

// ErrDeviceNotAdded reports a query for a device the inventory has no
// row for. It matches switchd.ErrNotFound under errors.Is.
type ErrDeviceNotAdded struct {
	Device switchd.DeviceID
}

func (e ErrDeviceNotAdded) Error() string {
	return fmt.Sprintf("device %d not added", e.Device)
}

// Is reports ErrDeviceNotAdded as a member of the ErrNotFound class.
func (e ErrDeviceNotAdded) Is(target error) bool {
	return target == switchd.ErrNotFound
}
