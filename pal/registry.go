package pal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	switchd "github.com/frobware/go-switchd"
)

// Operation names used in errors, logs, and capability listings.
const (
	OpWarmInitBegin      = "warm-init-begin"
	OpDeviceAdd          = "device-add"
	OpWarmInitEnd        = "warm-init-end"
	OpCPUIfNetdevName    = "cpuif-netdev-name"
	OpCPUIf10GNetdevName = "cpuif-10g-netdev-name"
	OpPlatformType       = "platform-type"
	OpResetConfig        = "reset-config"
	OpWarmInitErrorSet   = "warm-init-error-set"
	OpWarmInitErrorGet   = "warm-init-error-get"
)

// Registry holds at most one registered platform and dispatches
// lifecycle operations to it. It is constructed explicitly and
// injected into whatever owns the device lifecycle; there is no
// process-wide instance.
//
// The registry itself keeps no per-device state: it validates the
// device id, checks that the platform implements the operation, and
// forwards the call. Platform errors are relayed unchanged. Ordering
// of warm-init begin/end per device is the caller's obligation; the
// registry does not track or enforce it.
type Registry struct {
	logger *slog.Logger

	// mu guards the registration slot and is held for the duration
	// of every dispatch, so a concurrent Register cannot swap the
	// platform out from under an in-flight call.
	mu       sync.Mutex
	platform any
}

// NewRegistry creates an empty registry. Every operation fails with
// switchd.ErrUnsupported until a platform is registered.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger.With("component", "pal")}
}

// Register installs platform as the active implementation. A second
// registration replaces the first in full: the new value's capability
// set is what subsequent dispatches see, with nothing carried over
// from the previous registration. A nil platform is rejected with
// switchd.ErrInvalidArgument.
func (r *Registry) Register(platform any) error {
	if platform == nil {
		return fmt.Errorf("register: nil platform: %w", switchd.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.platform != nil {
		r.logger.Debug("replacing registered platform", "capabilities", capabilities(platform))
	} else {
		r.logger.Debug("platform registered", "capabilities", capabilities(platform))
	}
	r.platform = platform
	return nil
}

// Registered reports whether a platform is currently registered.
func (r *Registry) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.platform != nil
}

// Capabilities lists the operations the registered platform supports,
// in dispatch-table order. Empty when nothing is registered.
func (r *Registry) Capabilities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return capabilities(r.platform)
}

func capabilities(platform any) []string {
	if platform == nil {
		return nil
	}
	var caps []string
	if _, ok := platform.(WarmInitBeginner); ok {
		caps = append(caps, OpWarmInitBegin)
	}
	if _, ok := platform.(DeviceAdder); ok {
		caps = append(caps, OpDeviceAdd)
	}
	if _, ok := platform.(WarmInitEnder); ok {
		caps = append(caps, OpWarmInitEnd)
	}
	if _, ok := platform.(CPUIfNetdevNamer); ok {
		caps = append(caps, OpCPUIfNetdevName)
	}
	if _, ok := platform.(CPUIf10GNetdevNamer); ok {
		caps = append(caps, OpCPUIf10GNetdevName)
	}
	if _, ok := platform.(PlatformTyper); ok {
		caps = append(caps, OpPlatformType)
	}
	if _, ok := platform.(ResetConfigurer); ok {
		caps = append(caps, OpResetConfig)
	}
	if _, ok := platform.(WarmInitErrorSetter); ok {
		caps = append(caps, OpWarmInitErrorSet)
	}
	if _, ok := platform.(WarmInitErrorGetter); ok {
		caps = append(caps, OpWarmInitErrorGet)
	}
	return caps
}

// unsupported builds the failure for a missing capability. Called with
// r.mu held.
func (r *Registry) unsupported(op string) error {
	if r.platform == nil {
		return fmt.Errorf("%s: no platform registered: %w", op, switchd.ErrUnsupported)
	}
	return fmt.Errorf("%s: not implemented by registered platform: %w", op, switchd.ErrUnsupported)
}

// WarmInitBegin starts a warm-init cycle on dev. The registry performs
// no ordering checks: a begin with a cycle already open is forwarded
// as-is, and the outcome is the platform's to define.
func (r *Registry) WarmInitBegin(ctx context.Context, dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool) error {
	if !dev.Valid() {
		return switchd.ErrInvalidDevice{Device: dev}
	}
	if !mode.Valid() {
		return fmt.Errorf("%s: unknown warm-init mode %q: %w", OpWarmInitBegin, mode, switchd.ErrInvalidArgument)
	}
	if !serdesUpgrade.Valid() {
		return fmt.Errorf("%s: unknown serdes upgrade mode %q: %w", OpWarmInitBegin, serdesUpgrade, switchd.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(WarmInitBeginner)
	if !ok {
		return r.unsupported(OpWarmInitBegin)
	}
	r.logger.DebugContext(ctx, "warm init begin",
		"device", dev, "mode", mode, "serdesUpgrade", serdesUpgrade, "upgradeAgents", upgradeAgents)
	return impl.WarmInitBegin(ctx, dev, mode, serdesUpgrade, upgradeAgents)
}

// DeviceAdd adds dev using the supplied profile. The profile is
// borrowed: it is valid for the duration of the call only and is not
// retained by the registry or passed anywhere beyond the dispatch.
func (r *Registry) DeviceAdd(ctx context.Context, dev switchd.DeviceID, profile *switchd.DeviceProfile) error {
	if !dev.Valid() {
		return switchd.ErrInvalidDevice{Device: dev}
	}
	if profile == nil {
		return fmt.Errorf("%s: nil profile: %w", OpDeviceAdd, switchd.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(DeviceAdder)
	if !ok {
		return r.unsupported(OpDeviceAdd)
	}
	r.logger.DebugContext(ctx, "device add", "device", dev, "profile", profile.Summary())
	return impl.DeviceAdd(ctx, dev, profile)
}

// WarmInitEnd completes the warm-init cycle for dev. The registry does
// not verify that a matching begin occurred; that pairing is the
// caller's obligation.
func (r *Registry) WarmInitEnd(ctx context.Context, dev switchd.DeviceID) error {
	if !dev.Valid() {
		return switchd.ErrInvalidDevice{Device: dev}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(WarmInitEnder)
	if !ok {
		return r.unsupported(OpWarmInitEnd)
	}
	r.logger.DebugContext(ctx, "warm init end", "device", dev)
	return impl.WarmInitEnd(ctx, dev)
}

// ResetConfig applies the platform reset configuration to dev.
func (r *Registry) ResetConfig(ctx context.Context, dev switchd.DeviceID) error {
	if !dev.Valid() {
		return switchd.ErrInvalidDevice{Device: dev}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(ResetConfigurer)
	if !ok {
		return r.unsupported(OpResetConfig)
	}
	r.logger.DebugContext(ctx, "reset config", "device", dev)
	return impl.ResetConfig(ctx, dev)
}

// PlatformType reports whether dev is a software model. Callers must
// check the error before using the result.
func (r *Registry) PlatformType(ctx context.Context, dev switchd.DeviceID) (bool, error) {
	if !dev.Valid() {
		return false, switchd.ErrInvalidDevice{Device: dev}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(PlatformTyper)
	if !ok {
		return false, r.unsupported(OpPlatformType)
	}
	return impl.PlatformType(ctx, dev)
}

// SetWarmInitError records the warm-init error state for dev. The
// registry does not persist the flag; the registered platform owns it.
func (r *Registry) SetWarmInitError(ctx context.Context, dev switchd.DeviceID, state bool) error {
	if !dev.Valid() {
		return switchd.ErrInvalidDevice{Device: dev}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(WarmInitErrorSetter)
	if !ok {
		return r.unsupported(OpWarmInitErrorSet)
	}
	r.logger.DebugContext(ctx, "set warm init error", "device", dev, "state", state)
	return impl.SetWarmInitError(ctx, dev, state)
}

// WarmInitError reports the warm-init error state for dev. On failure
// the returned state is meaningless; callers must check the error
// first.
func (r *Registry) WarmInitError(ctx context.Context, dev switchd.DeviceID) (bool, error) {
	if !dev.Valid() {
		return false, switchd.ErrInvalidDevice{Device: dev}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(WarmInitErrorGetter)
	if !ok {
		return false, r.unsupported(OpWarmInitErrorGet)
	}
	return impl.WarmInitError(ctx, dev)
}

// CPUIfNetdevName resolves the control-plane network interface name
// for dev. Returns switchd.ErrNotFound (from the platform) when no
// interface can be resolved.
func (r *Registry) CPUIfNetdevName(ctx context.Context, dev switchd.DeviceID) (string, error) {
	if !dev.Valid() {
		return "", switchd.ErrInvalidDevice{Device: dev}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(CPUIfNetdevNamer)
	if !ok {
		return "", r.unsupported(OpCPUIfNetdevName)
	}
	return impl.CPUIfNetdevName(ctx, dev)
}

// CPUIf10GNetdevName resolves the name of the 10G CPU interface
// instance on the given PCI bus/device for dev.
func (r *Registry) CPUIf10GNetdevName(ctx context.Context, dev switchd.DeviceID, pciBusDev string, instance int) (string, error) {
	if !dev.Valid() {
		return "", switchd.ErrInvalidDevice{Device: dev}
	}
	if pciBusDev == "" {
		return "", fmt.Errorf("%s: empty pci bus/device: %w", OpCPUIf10GNetdevName, switchd.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	impl, ok := r.platform.(CPUIf10GNetdevNamer)
	if !ok {
		return "", r.unsupported(OpCPUIf10GNetdevName)
	}
	return impl.CPUIf10GNetdevName(ctx, dev, pciBusDev, instance)
}
