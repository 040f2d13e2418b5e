// Package manager provides high-level orchestration of device
// lifecycle operations using the fetch/compute/execute pattern.
//
// # Dispatch Model
//
// The platform owns live device state; the manager layers durable
// records on top of the dispatch:
//
//  1. Dispatch the operation to the platform through the registry
//  2. On success: persist the inventory or journal row together with
//     its operation log entry in a single transaction
//  3. On failure: persist nothing beyond the operation log entry
//  4. Doctor reports any divergence left behind by crashes
//
// Rows therefore exist only for operations the platform accepted, and
// the journal and operation log cannot disagree about a write that
// committed.
//
// # Warm-Init Ordering
//
// The registry forwards warm-init begin and end without ordering
// checks; pairing them is the caller's obligation. The manager is the
// optional hardening layer on top: a begin while the journal holds an
// open cycle for the device fails with ErrWarmInitInProgress, unless
// allow_reentrant_warm_init is set, in which case the stale cycle is
// aborted in the same transaction that opens the new one. An end
// without an open cycle is still dispatched; the journal records
// nothing and the operation log notes the orphan.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/metrics"
	"github.com/frobware/go-switchd/pal"
	"github.com/frobware/go-switchd/store"
)

// Manager orchestrates device lifecycle operations: registry dispatch,
// the device inventory, the warm-init journal, and the operation log.
type Manager struct {
	dirs            config.RuntimeDirs
	store           store.Store
	registry        *pal.Registry
	allowReentrant  bool
	staleCycleAfter time.Duration
	logger          *slog.Logger

	// mu guards platform, a mirror of the last registration used by
	// Doctor to probe optional interfaces outside the dispatch path.
	mu       sync.Mutex
	platform any
}

// New creates a new Manager.
func New(dirs config.RuntimeDirs, st store.Store, registry *pal.Registry, cfg config.ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dirs:            dirs,
		store:           st,
		registry:        registry,
		allowReentrant:  cfg.AllowReentrantWarmInit,
		staleCycleAfter: time.Duration(cfg.StaleCycleAfter),
		logger:          logger.With("component", "manager"),
	}
}

// Dirs returns the runtime directories configuration.
func (m *Manager) Dirs() config.RuntimeDirs {
	return m.dirs
}

// RegisterPlatform installs platform as the active implementation in
// the registry and mirrors it for coherency checks. A second
// registration replaces the first in full.
func (m *Manager) RegisterPlatform(platform any) error {
	if err := m.registry.Register(platform); err != nil {
		return err
	}
	m.mu.Lock()
	m.platform = platform
	m.mu.Unlock()
	m.logger.Info("platform registered", "capabilities", m.registry.Capabilities())
	return nil
}

// Capabilities lists the operations the registered platform supports.
func (m *Manager) Capabilities() []string {
	return m.registry.Capabilities()
}

// DeviceAdd adds dev using the supplied profile and records it in the
// inventory. The profile is borrowed for the duration of the call; the
// inventory keeps only its summary.
//
// Registry failure persists nothing. A store failure after a
// successful platform add cannot be rolled back (the platform has no
// inverse operation), so the error reports the divergence and Doctor
// will flag it.
//
// Pattern: EXECUTE -> COMPUTE -> PERSIST
func (m *Manager) DeviceAdd(ctx context.Context, dev switchd.DeviceID, profile *switchd.DeviceProfile) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpDeviceAdd, outcomeFor(err), time.Since(start))
	}()

	detail := ""
	if profile != nil {
		detail = profile.Summary()
	}

	// EXECUTE: the registry validates the request and dispatches.
	if err = m.registry.DeviceAdd(ctx, dev, profile); err != nil {
		m.appendOp(ctx, pal.OpDeviceAdd, dev, detail, err)
		return err
	}

	// COMPUTE: build the inventory row while the borrowed profile is
	// still valid.
	rec := deviceRecord(dev, profile, start)

	// PERSIST: inventory row and log entry in one transaction.
	err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.SaveDevice(ctx, rec); err != nil {
			return err
		}
		return tx.AppendOp(ctx, store.OpEntry{
			Time:    time.Now(),
			Op:      pal.OpDeviceAdd,
			Device:  dev,
			Detail:  detail,
			Outcome: "ok",
		})
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "device added but inventory write failed",
			"device", dev, "error", err)
		return fmt.Errorf("device %d added but inventory write failed: %w", dev, err)
	}

	m.refreshGauges(ctx)
	m.logger.InfoContext(ctx, "device added",
		"device", dev, "family", rec.Family, "profile", rec.ProfileSummary)
	return nil
}

// deviceRecord is a pure function that builds the inventory row from
// the borrowed profile.
func deviceRecord(dev switchd.DeviceID, profile *switchd.DeviceProfile, addedAt time.Time) store.DeviceRecord {
	return store.DeviceRecord{
		Device:         dev,
		Family:         profile.Family,
		ProfileSummary: profile.Summary(),
		AddedAt:        addedAt,
	}
}

// WarmInitBegin starts a warm-init cycle for dev and returns the
// minted cycle id.
//
// If the journal already holds an open cycle for dev the begin fails
// with ErrWarmInitInProgress, unless the manager was configured to
// allow reentrant begins, in which case the stale cycle is aborted in
// the same transaction that opens the new one. The stale cycle stays
// untouched until the platform accepts the new begin.
//
// Pattern: FETCH -> EXECUTE -> COMPUTE -> PERSIST
func (m *Manager) WarmInitBegin(ctx context.Context, dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool) (cycleID string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpWarmInitBegin, outcomeFor(err), time.Since(start))
	}()

	detail := fmt.Sprintf("mode=%s serdes=%s agents=%t", mode, serdesUpgrade, upgradeAgents)

	// FETCH: the journal's open cycle decides whether this begin
	// conflicts.
	var stale *switchd.WarmInitCycle
	open, ferr := m.store.GetOpenCycle(ctx, dev)
	switch {
	case ferr == nil:
		if !m.allowReentrant {
			err = ErrWarmInitInProgress{Device: dev, CycleID: open.CycleID}
			m.appendOp(ctx, pal.OpWarmInitBegin, dev, detail, err)
			return "", err
		}
		stale = &open
	case errors.Is(ferr, switchd.ErrNotFound):
		// No open cycle; the normal case.
	default:
		return "", fmt.Errorf("fetch open cycle for device %d: %w", dev, ferr)
	}

	// EXECUTE: the registry validates the request and dispatches.
	if err = m.registry.WarmInitBegin(ctx, dev, mode, serdesUpgrade, upgradeAgents); err != nil {
		m.appendOp(ctx, pal.OpWarmInitBegin, dev, detail, err)
		return "", err
	}

	// COMPUTE
	cycle := newCycle(dev, mode, serdesUpgrade, upgradeAgents, start)

	// PERSIST: stale-cycle abort, journal row, and log entry commit
	// together, so the journal never holds two open cycles for the
	// device.
	err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
		if stale != nil {
			if err := tx.AbortOpenCycle(ctx, dev); err != nil {
				return fmt.Errorf("abort stale cycle %s: %w", stale.CycleID, err)
			}
		}
		if err := tx.OpenCycle(ctx, cycle); err != nil {
			return err
		}
		return tx.AppendOp(ctx, store.OpEntry{
			Time:    time.Now(),
			Op:      pal.OpWarmInitBegin,
			Device:  dev,
			Detail:  fmt.Sprintf("cycle=%s %s", cycle.CycleID, detail),
			Outcome: "ok",
		})
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "warm init begun but journal write failed",
			"device", dev, "error", err)
		return "", fmt.Errorf("warm init begun for device %d but journal write failed: %w", dev, err)
	}

	if stale != nil {
		m.logger.WarnContext(ctx, "reentrant warm init begin aborted stale cycle",
			"device", dev, "staleCycle", stale.CycleID, "staleMode", stale.Mode)
		metrics.RecordWarmInitCycle(stale.Mode.String(), "aborted")
	}
	m.refreshGauges(ctx)
	m.logger.InfoContext(ctx, "warm init begun",
		"device", dev, "cycle", cycle.CycleID, "mode", mode,
		"serdesUpgrade", serdesUpgrade, "upgradeAgents", upgradeAgents)
	return cycle.CycleID, nil
}

// newCycle is a pure function that builds the journal row for a
// freshly begun warm-init cycle.
func newCycle(dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool, begunAt time.Time) switchd.WarmInitCycle {
	return switchd.WarmInitCycle{
		CycleID:       uuid.NewString(),
		Device:        dev,
		Mode:          mode,
		SerdesUpgrade: serdesUpgrade,
		UpgradeAgents: upgradeAgents,
		BegunAt:       begunAt,
	}
}

// WarmInitEnd completes the warm-init cycle for dev and closes the
// journal row. The end is dispatched whether or not the journal holds
// an open cycle; an unmatched end is the platform's to accept or
// reject, and the manager only diagnoses it.
//
// Pattern: FETCH -> EXECUTE -> PERSIST
func (m *Manager) WarmInitEnd(ctx context.Context, dev switchd.DeviceID) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpWarmInitEnd, outcomeFor(err), time.Since(start))
	}()

	// FETCH
	var open *switchd.WarmInitCycle
	cycle, ferr := m.store.GetOpenCycle(ctx, dev)
	switch {
	case ferr == nil:
		open = &cycle
	case errors.Is(ferr, switchd.ErrNotFound):
		m.logger.WarnContext(ctx, "warm init end without open cycle in journal", "device", dev)
	default:
		return fmt.Errorf("fetch open cycle for device %d: %w", dev, ferr)
	}

	// EXECUTE
	if err = m.registry.WarmInitEnd(ctx, dev); err != nil {
		m.appendOp(ctx, pal.OpWarmInitEnd, dev, "", err)
		return err
	}

	// PERSIST
	if open == nil {
		m.appendOp(ctx, pal.OpWarmInitEnd, dev, "no open cycle", nil)
		return nil
	}

	endedAt := time.Now()
	err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.CloseCycle(ctx, open.CycleID, endedAt); err != nil {
			return err
		}
		return tx.AppendOp(ctx, store.OpEntry{
			Time:    endedAt,
			Op:      pal.OpWarmInitEnd,
			Device:  dev,
			Detail:  fmt.Sprintf("cycle=%s mode=%s", open.CycleID, open.Mode),
			Outcome: "ok",
		})
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "warm init ended but journal write failed",
			"device", dev, "cycle", open.CycleID, "error", err)
		return fmt.Errorf("warm init ended for device %d but journal write failed: %w", dev, err)
	}

	metrics.RecordWarmInitCycle(open.Mode.String(), "completed")
	m.refreshGauges(ctx)
	m.logger.InfoContext(ctx, "warm init complete",
		"device", dev, "cycle", open.CycleID, "mode", open.Mode,
		"duration_ms", endedAt.Sub(open.BegunAt).Milliseconds())
	return nil
}

// ResetConfig applies the platform reset configuration to dev. Any
// open warm-init cycle in the journal is marked aborted; the reset
// supersedes it.
//
// Pattern: FETCH -> EXECUTE -> PERSIST
func (m *Manager) ResetConfig(ctx context.Context, dev switchd.DeviceID) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpResetConfig, outcomeFor(err), time.Since(start))
	}()

	// FETCH
	var open *switchd.WarmInitCycle
	cycle, ferr := m.store.GetOpenCycle(ctx, dev)
	switch {
	case ferr == nil:
		open = &cycle
	case errors.Is(ferr, switchd.ErrNotFound):
	default:
		return fmt.Errorf("fetch open cycle for device %d: %w", dev, ferr)
	}

	// EXECUTE
	if err = m.registry.ResetConfig(ctx, dev); err != nil {
		m.appendOp(ctx, pal.OpResetConfig, dev, "", err)
		return err
	}

	// PERSIST
	if open == nil {
		m.appendOp(ctx, pal.OpResetConfig, dev, "", nil)
		m.logger.InfoContext(ctx, "reset config applied", "device", dev)
		return nil
	}

	err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.AbortOpenCycle(ctx, dev); err != nil {
			return err
		}
		return tx.AppendOp(ctx, store.OpEntry{
			Time:    time.Now(),
			Op:      pal.OpResetConfig,
			Device:  dev,
			Detail:  fmt.Sprintf("aborted cycle=%s", open.CycleID),
			Outcome: "ok",
		})
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "reset config applied but journal write failed",
			"device", dev, "error", err)
		return fmt.Errorf("reset config applied to device %d but journal write failed: %w", dev, err)
	}

	metrics.RecordWarmInitCycle(open.Mode.String(), "aborted")
	m.refreshGauges(ctx)
	m.logger.InfoContext(ctx, "reset config applied",
		"device", dev, "abortedCycle", open.CycleID)
	return nil
}

// SetWarmInitError records the warm-init error state for dev on the
// platform and mirrors it onto the open journal cycle when one exists.
// The platform flag is never cleared by any lifecycle operation, only
// by an explicit call with state false. Mirroring never masks the
// registry result.
//
// Pattern: EXECUTE -> PERSIST
func (m *Manager) SetWarmInitError(ctx context.Context, dev switchd.DeviceID, state bool) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpWarmInitErrorSet, outcomeFor(err), time.Since(start))
	}()

	detail := fmt.Sprintf("state=%t", state)

	// EXECUTE
	if err = m.registry.SetWarmInitError(ctx, dev, state); err != nil {
		m.appendOp(ctx, pal.OpWarmInitErrorSet, dev, detail, err)
		return err
	}

	// PERSIST: the fault marker mirrors the flag onto the open cycle.
	open, ferr := m.store.GetOpenCycle(ctx, dev)
	switch {
	case ferr == nil:
		err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
			if err := tx.MarkCycleFault(ctx, open.CycleID, state); err != nil {
				return err
			}
			return tx.AppendOp(ctx, store.OpEntry{
				Time:    time.Now(),
				Op:      pal.OpWarmInitErrorSet,
				Device:  dev,
				Detail:  fmt.Sprintf("cycle=%s %s", open.CycleID, detail),
				Outcome: "ok",
			})
		})
		if err != nil {
			m.logger.ErrorContext(ctx, "warm init error set but journal write failed",
				"device", dev, "cycle", open.CycleID, "error", err)
			return fmt.Errorf("warm init error set for device %d but journal write failed: %w", dev, err)
		}
	case errors.Is(ferr, switchd.ErrNotFound):
		m.appendOp(ctx, pal.OpWarmInitErrorSet, dev, detail, nil)
	default:
		return fmt.Errorf("warm init error set for device %d but journal lookup failed: %w", dev, ferr)
	}

	m.logger.InfoContext(ctx, "warm init error flag set", "device", dev, "state", state)
	return nil
}

// WarmInitError reports the platform's warm-init error flag for dev.
func (m *Manager) WarmInitError(ctx context.Context, dev switchd.DeviceID) (state bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpWarmInitErrorGet, outcomeFor(err), time.Since(start))
	}()
	return m.registry.WarmInitError(ctx, dev)
}

// PlatformType reports whether dev is a software model.
func (m *Manager) PlatformType(ctx context.Context, dev switchd.DeviceID) (isSWModel bool, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpPlatformType, outcomeFor(err), time.Since(start))
	}()
	return m.registry.PlatformType(ctx, dev)
}

// CPUIfNetdevName resolves the control-plane network interface name
// for dev.
func (m *Manager) CPUIfNetdevName(ctx context.Context, dev switchd.DeviceID) (name string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpCPUIfNetdevName, outcomeFor(err), time.Since(start))
	}()
	return m.registry.CPUIfNetdevName(ctx, dev)
}

// CPUIf10GNetdevName resolves the instance-th 10G CPU interface on the
// given PCI bus/device for dev.
func (m *Manager) CPUIf10GNetdevName(ctx context.Context, dev switchd.DeviceID, pciBusDev string, instance int) (name string, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordLifecycleOp(pal.OpCPUIf10GNetdevName, outcomeFor(err), time.Since(start))
	}()
	return m.registry.CPUIf10GNetdevName(ctx, dev, pciBusDev, instance)
}

// appendOp writes a standalone operation log entry, outside any
// transaction. Used for failed operations and for successes that have
// no paired journal write. Append errors are logged and swallowed so
// they cannot mask the operation's own outcome.
func (m *Manager) appendOp(ctx context.Context, op string, dev switchd.DeviceID, detail string, opErr error) {
	entry := store.OpEntry{
		Time:    time.Now(),
		Op:      op,
		Device:  dev,
		Detail:  detail,
		Outcome: outcomeFor(opErr),
	}
	if err := m.store.AppendOp(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "operation log append failed",
			"op", op, "device", dev, "error", err)
	}
}

// refreshGauges recomputes the devices-added and open-cycle gauges
// from the store. Failures are logged and swallowed; the gauges catch
// up on the next mutation.
func (m *Manager) refreshGauges(ctx context.Context) {
	devices, err := m.store.ListDevices(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "gauge refresh: list devices", "error", err)
		return
	}
	open, err := m.store.ListOpenCycles(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "gauge refresh: list open cycles", "error", err)
		return
	}
	metrics.SetDevicesAdded(len(devices))
	metrics.SetOpenWarmInitCycles(len(open))
}

// outcomeFor maps an operation error to the low-cardinality label
// recorded in metrics and the operation log.
func outcomeFor(err error) string {
	var conflict ErrWarmInitInProgress
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, switchd.ErrInvalidArgument):
		return "invalid-argument"
	case errors.Is(err, switchd.ErrUnsupported):
		return "unsupported"
	case errors.Is(err, switchd.ErrNotFound):
		return "not-found"
	case errors.As(err, &conflict):
		return "conflict"
	default:
		return "error"
	}
}
