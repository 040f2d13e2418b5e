package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	switchd "github.com/frobware/go-switchd"
)

// Severity indicates the severity of a doctor finding.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable label for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Finding describes a single coherency check result.
type Finding struct {
	Severity    Severity
	Category    string
	Description string
}

// DoctorReport contains the results of a coherency check.
type DoctorReport struct {
	Findings []Finding
}

// HasErrors returns true if any finding has error severity.
func (r DoctorReport) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if any finding has warning severity.
func (r DoctorReport) HasWarnings() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// DeviceLister is the optional platform interface Doctor uses to
// cross-check the inventory against live platform state. It is not
// part of the lifecycle capability set and is never dispatched through
// the registry.
type DeviceLister interface {
	Devices(ctx context.Context) []switchd.DeviceID
}

// Doctor performs a read-only coherency check across the inventory,
// the warm-init journal, the platform, and the runtime files.
func (m *Manager) Doctor(ctx context.Context) (DoctorReport, error) {
	var report DoctorReport

	// Phase 1: Gather state.

	records, err := m.store.ListDevices(ctx)
	if err != nil {
		return report, fmt.Errorf("list devices: %w", err)
	}

	openCycles, err := m.store.ListOpenCycles(ctx)
	if err != nil {
		return report, fmt.Errorf("list open cycles: %w", err)
	}

	inventory := make(map[switchd.DeviceID]bool, len(records))
	for _, rec := range records {
		inventory[rec.Device] = true
	}

	openByDevice := make(map[switchd.DeviceID][]switchd.WarmInitCycle)
	for _, c := range openCycles {
		openByDevice[c.Device] = append(openByDevice[c.Device], c)
	}

	m.mu.Lock()
	platform := m.platform
	m.mu.Unlock()

	// Phase 2: Store vs platform.

	if lister, ok := platform.(DeviceLister); ok {
		live := make(map[switchd.DeviceID]bool)
		for _, dev := range lister.Devices(ctx) {
			live[dev] = true
		}
		for _, rec := range records {
			if !live[rec.Device] {
				report.Findings = append(report.Findings, Finding{
					Severity:    SeverityError,
					Category:    "store-vs-platform",
					Description: fmt.Sprintf("Device %d in inventory not reported by platform", rec.Device),
				})
			}
		}
		for dev := range live {
			if !inventory[dev] {
				report.Findings = append(report.Findings, Finding{
					Severity:    SeverityWarning,
					Category:    "store-vs-platform",
					Description: fmt.Sprintf("Device %d reported by platform has no inventory row", dev),
				})
			}
		}
	}

	// Phase 3: Journal sanity.

	now := time.Now()
	for dev, cycles := range openByDevice {
		if len(cycles) > 1 {
			report.Findings = append(report.Findings, Finding{
				Severity:    SeverityError,
				Category:    "journal",
				Description: fmt.Sprintf("Device %d has %d open warm-init cycles", dev, len(cycles)),
			})
		}
		for _, c := range cycles {
			if !inventory[dev] {
				// Begin before the first add is legal; the device may
				// still be mid-provisioning.
				report.Findings = append(report.Findings, Finding{
					Severity:    SeverityWarning,
					Category:    "journal",
					Description: fmt.Sprintf("Open cycle %s for device %d with no inventory row", c.CycleID, dev),
				})
			}
			if c.Fault {
				report.Findings = append(report.Findings, Finding{
					Severity:    SeverityWarning,
					Category:    "journal",
					Description: fmt.Sprintf("Open cycle %s for device %d has the fault marker set", c.CycleID, dev),
				})
			}
			if m.staleCycleAfter > 0 {
				if age := now.Sub(c.BegunAt); age > m.staleCycleAfter {
					report.Findings = append(report.Findings, Finding{
						Severity:    SeverityWarning,
						Category:    "journal",
						Description: fmt.Sprintf("Open cycle %s for device %d begun %s ago (threshold %s)", c.CycleID, dev, age.Round(time.Second), m.staleCycleAfter),
					})
				}
			}
		}
	}

	// Phase 4: Error flag vs journal. Skipped entirely when the
	// platform does not support the query.

	for _, rec := range records {
		state, err := m.registry.WarmInitError(ctx, rec.Device)
		if err != nil {
			if errors.Is(err, switchd.ErrUnsupported) {
				break
			}
			m.logger.Warn("doctor: warm init error query failed", "device", rec.Device, "error", err)
			continue
		}
		faulted := false
		for _, c := range openByDevice[rec.Device] {
			if c.Fault {
				faulted = true
			}
		}
		switch {
		case state && !faulted:
			report.Findings = append(report.Findings, Finding{
				Severity:    SeverityWarning,
				Category:    "flag-vs-journal",
				Description: fmt.Sprintf("Device %d has the warm-init error flag set with no faulted open cycle", rec.Device),
			})
		case !state && faulted:
			report.Findings = append(report.Findings, Finding{
				Severity:    SeverityWarning,
				Category:    "flag-vs-journal",
				Description: fmt.Sprintf("Device %d has a faulted open cycle but the platform flag is clear", rec.Device),
			})
		}
	}

	// Phase 5: Runtime files.

	if _, err := os.Stat(m.dirs.Base()); os.IsNotExist(err) {
		report.Findings = append(report.Findings, Finding{
			Severity:    SeverityWarning,
			Category:    "runtime",
			Description: fmt.Sprintf("Runtime directory missing: %s", m.dirs.Base()),
		})
	}
	if _, err := os.Stat(m.dirs.DBPath()); os.IsNotExist(err) {
		report.Findings = append(report.Findings, Finding{
			Severity:    SeverityWarning,
			Category:    "runtime",
			Description: fmt.Sprintf("Database file missing: %s", m.dirs.DBPath()),
		})
	}
	if fi, err := os.Stat(m.dirs.SocketPath()); err == nil {
		if fi.Mode()&os.ModeSocket == 0 {
			report.Findings = append(report.Findings, Finding{
				Severity:    SeverityError,
				Category:    "runtime",
				Description: fmt.Sprintf("Socket path exists but is not a socket: %s", m.dirs.SocketPath()),
			})
		}
	}

	return report, nil
}
