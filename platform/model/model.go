// Package model implements the full platform capability set against a
// software model of the ASIC. Device state lives in memory and the
// CPU control-plane interfaces resolve against the host's network
// sysfs tree, so the whole lifecycle can be exercised without
// hardware.
package model

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/pal"
)

// DefaultSysfsRoot is where network interfaces are enumerated.
const DefaultSysfsRoot = "/sys/class/net"

// DefaultCPUPortPrefix names the kernel netdev the ASIC's CPU port is
// exposed through; device N appears as <prefix>N.
const DefaultCPUPortPrefix = "bf_pci"

var knownFamilies = map[string]struct{}{
	"tofino":  {},
	"tofino2": {},
	"tofino3": {},
}

// Model is a software-model platform. It satisfies pal.Platform.
type Model struct {
	logger        *slog.Logger
	sysfsRoot     string
	cpuPortPrefix string

	mu      sync.Mutex
	devices map[switchd.DeviceID]*deviceState
	// flags holds the warm-init error flag per device. A device id
	// that was never set reads false. Mutated only through
	// SetWarmInitError; no lifecycle operation touches it.
	flags map[switchd.DeviceID]bool
}

var _ pal.Platform = (*Model)(nil)

type deviceState struct {
	family         string
	portCount      int
	programCount   int
	serdesFirmware string
	// warmInit is non-nil while a cycle is open for the device.
	warmInit *openCycle
}

type openCycle struct {
	mode          switchd.WarmInitMode
	serdesUpgrade switchd.SerdesUpgradeMode
	upgradeAgents bool
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger.With("component", "platform")
	}
}

// WithSysfsRoot overrides the directory network interfaces are
// resolved from. Tests point this at a fixture tree.
func WithSysfsRoot(root string) Option {
	return func(m *Model) {
		m.sysfsRoot = root
	}
}

// WithCPUPortPrefix overrides the CPU-port netdev name prefix.
func WithCPUPortPrefix(prefix string) Option {
	return func(m *Model) {
		m.cpuPortPrefix = prefix
	}
}

// New creates a software-model platform.
func New(opts ...Option) *Model {
	m := &Model{
		logger:        slog.Default(),
		sysfsRoot:     DefaultSysfsRoot,
		cpuPortPrefix: DefaultCPUPortPrefix,
		devices:       make(map[switchd.DeviceID]*deviceState),
		flags:         make(map[switchd.DeviceID]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WarmInitBegin opens a warm-init cycle for dev. The model tolerates a
// begin while a cycle is already open: the new cycle replaces it, with
// a warning, leaving strictness to the management layer.
func (m *Model) WarmInitBegin(ctx context.Context, dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.devices[dev]
	if state == nil {
		// Warm init may begin before the first device add; the add
		// then happens inside the cycle.
		state = &deviceState{}
		m.devices[dev] = state
	}
	if state.warmInit != nil {
		m.logger.WarnContext(ctx, "warm init begin with cycle already open; replacing",
			"device", dev, "previousMode", state.warmInit.mode)
	}
	state.warmInit = &openCycle{
		mode:          mode,
		serdesUpgrade: serdesUpgrade,
		upgradeAgents: upgradeAgents,
	}
	return nil
}

// DeviceAdd brings dev into service. The profile is borrowed: the
// model copies the fields it needs and drops the reference before
// returning.
func (m *Model) DeviceAdd(ctx context.Context, dev switchd.DeviceID, profile *switchd.DeviceProfile) error {
	if _, ok := knownFamilies[profile.Family]; !ok {
		return fmt.Errorf("model: unsupported asic family %q", profile.Family)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.devices[dev]
	if state == nil {
		state = &deviceState{}
		m.devices[dev] = state
	} else if state.family != "" && state.warmInit == nil {
		return fmt.Errorf("model: device %d already added", dev)
	}
	state.family = profile.Family
	state.portCount = len(profile.Ports)
	state.programCount = len(profile.Programs)
	state.serdesFirmware = profile.SerdesFirmwarePath
	m.logger.InfoContext(ctx, "device added", "device", dev, "family", state.family,
		"ports", state.portCount, "programs", state.programCount)
	return nil
}

// WarmInitEnd closes the open cycle for dev. Without an open cycle the
// call fails; pairing begin with end is the caller's obligation and
// the model has nothing to complete.
func (m *Model) WarmInitEnd(ctx context.Context, dev switchd.DeviceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.devices[dev]
	if state == nil || state.warmInit == nil {
		return fmt.Errorf("model: no warm init in progress for device %d", dev)
	}
	m.logger.InfoContext(ctx, "warm init complete", "device", dev, "mode", state.warmInit.mode)
	state.warmInit = nil
	return nil
}

// CPUIfNetdevName resolves the CPU control-plane interface for dev:
// the netdev named <prefix><dev> under the sysfs root.
func (m *Model) CPUIfNetdevName(ctx context.Context, dev switchd.DeviceID) (string, error) {
	name := m.cpuPortPrefix + dev.String()
	if _, err := os.Stat(filepath.Join(m.sysfsRoot, name)); err != nil {
		return "", fmt.Errorf("cpu interface %s for device %d: %w", name, dev, switchd.ErrNotFound)
	}
	return name, nil
}

// CPUIf10GNetdevName resolves the instance-th interface (sorted by
// name) whose backing device sits at the given PCI bus/device
// address, following each netdev's device symlink.
func (m *Model) CPUIf10GNetdevName(ctx context.Context, dev switchd.DeviceID, pciBusDev string, instance int) (string, error) {
	entries, err := os.ReadDir(m.sysfsRoot)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", m.sysfsRoot, err)
	}
	var matches []string
	for _, entry := range entries {
		target, err := os.Readlink(filepath.Join(m.sysfsRoot, entry.Name(), "device"))
		if err != nil {
			continue
		}
		if strings.HasSuffix(target, pciBusDev) {
			matches = append(matches, entry.Name())
		}
	}
	sort.Strings(matches)
	if instance < 0 || instance >= len(matches) {
		return "", fmt.Errorf("cpu 10g interface on %s instance %d for device %d: %w",
			pciBusDev, instance, dev, switchd.ErrNotFound)
	}
	return matches[instance], nil
}

// PlatformType reports that this platform is a software model.
func (m *Model) PlatformType(ctx context.Context, dev switchd.DeviceID) (bool, error) {
	return true, nil
}

// ResetConfig restores the device's platform configuration. Any open
// warm-init cycle is abandoned. The warm-init error flag is not
// touched; it changes only through SetWarmInitError.
func (m *Model) ResetConfig(ctx context.Context, dev switchd.DeviceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.devices[dev]
	if state == nil {
		return fmt.Errorf("model: device %d not added", dev)
	}
	if state.warmInit != nil {
		m.logger.WarnContext(ctx, "reset config abandoning open warm init cycle", "device", dev)
		state.warmInit = nil
	}
	m.logger.InfoContext(ctx, "reset config applied", "device", dev)
	return nil
}

// SetWarmInitError records the warm-init error flag for dev.
func (m *Model) SetWarmInitError(ctx context.Context, dev switchd.DeviceID, state bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[dev] = state
	return nil
}

// WarmInitError reports the warm-init error flag for dev. A device
// that has never had the flag set reads false.
func (m *Model) WarmInitError(ctx context.Context, dev switchd.DeviceID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[dev], nil
}

// Devices lists the device ids the model currently knows, sorted.
// Used by coherency checks; not part of the lifecycle capability set.
func (m *Model) Devices(ctx context.Context) []switchd.DeviceID {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]switchd.DeviceID, 0, len(m.devices))
	for dev, state := range m.devices {
		if state.family == "" {
			continue // warm-init placeholder, never added
		}
		ids = append(ids, dev)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// WarmInitOpen reports whether a warm-init cycle is open for dev.
func (m *Model) WarmInitOpen(dev switchd.DeviceID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.devices[dev]
	return state != nil && state.warmInit != nil
}
