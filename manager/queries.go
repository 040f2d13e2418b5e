package manager

import (
	"context"
	"errors"
	"fmt"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/store"
)

// DeviceStatus is the full single-device view: inventory info plus the
// open warm-init cycle when one exists.
type DeviceStatus struct {
	Info      switchd.DeviceInfo     `json:"info"`
	OpenCycle *switchd.WarmInitCycle `json:"open_cycle,omitempty"`
}

// ListDevices returns the inventory view of every added device,
// ordered by device id. Lifecycle state is derived from the journal;
// the warm-init error flag is a live platform query where supported.
//
// Pattern: FETCH -> COMPUTE
func (m *Manager) ListDevices(ctx context.Context) ([]switchd.DeviceInfo, error) {
	// FETCH
	records, err := m.store.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	open, err := m.store.ListOpenCycles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open cycles: %w", err)
	}

	// COMPUTE, then overlay the live flag.
	infos := joinDeviceInfo(records, open)
	for i := range infos {
		infos[i].WarmInitErrored = m.warmInitErrored(ctx, infos[i].Device)
	}
	return infos, nil
}

// joinDeviceInfo is a pure function that derives per-device lifecycle
// state from inventory rows and open journal cycles.
func joinDeviceInfo(records []store.DeviceRecord, open []switchd.WarmInitCycle) []switchd.DeviceInfo {
	openByDevice := make(map[switchd.DeviceID]bool, len(open))
	for _, c := range open {
		openByDevice[c.Device] = true
	}
	infos := make([]switchd.DeviceInfo, 0, len(records))
	for _, rec := range records {
		infos = append(infos, infoFromRecord(rec, openByDevice[rec.Device]))
	}
	return infos
}

// infoFromRecord is a pure function that builds the inventory view of
// one device.
func infoFromRecord(rec store.DeviceRecord, inCycle bool) switchd.DeviceInfo {
	state := switchd.DeviceStateAdded
	if inCycle {
		state = switchd.DeviceStateWarmInit
	}
	return switchd.DeviceInfo{
		Device:         rec.Device,
		Family:         rec.Family,
		ProfileSummary: rec.ProfileSummary,
		State:          state,
		AddedAt:        rec.AddedAt,
	}
}

// DeviceGet returns the single-device view. Returns ErrDeviceNotAdded
// if the device has no inventory row.
func (m *Manager) DeviceGet(ctx context.Context, dev switchd.DeviceID) (DeviceStatus, error) {
	rec, err := m.store.GetDevice(ctx, dev)
	if errors.Is(err, switchd.ErrNotFound) {
		return DeviceStatus{}, ErrDeviceNotAdded{Device: dev}
	}
	if err != nil {
		return DeviceStatus{}, err
	}

	var status DeviceStatus
	open, err := m.store.GetOpenCycle(ctx, dev)
	switch {
	case err == nil:
		status.OpenCycle = &open
	case errors.Is(err, switchd.ErrNotFound):
	default:
		return DeviceStatus{}, fmt.Errorf("fetch open cycle for device %d: %w", dev, err)
	}
	status.Info = infoFromRecord(rec, status.OpenCycle != nil)
	status.Info.WarmInitErrored = m.warmInitErrored(ctx, dev)
	return status, nil
}

// warmInitErrored queries the platform's error flag, returning nil
// when the platform does not support the query.
func (m *Manager) warmInitErrored(ctx context.Context, dev switchd.DeviceID) *bool {
	state, err := m.registry.WarmInitError(ctx, dev)
	if err != nil {
		if !errors.Is(err, switchd.ErrUnsupported) {
			m.logger.WarnContext(ctx, "warm init error query failed", "device", dev, "error", err)
		}
		return nil
	}
	return &state
}

// History returns the warm-init journal for a device, most recent
// cycle first.
func (m *Manager) History(ctx context.Context, dev switchd.DeviceID) ([]switchd.WarmInitCycle, error) {
	return m.store.ListCycles(ctx, dev)
}

// OpLog returns the most recent operation log entries, newest first,
// capped at limit (all entries when limit <= 0).
func (m *Manager) OpLog(ctx context.Context, limit int) ([]store.OpEntry, error) {
	return m.store.ListOps(ctx, limit)
}
