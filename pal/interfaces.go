// Package pal is the platform abstraction layer for device lifecycle
// control. It decouples the platform-independent driver-management
// core from platform-specific implementations of device bring-up,
// warm initialization, and reset, without linking the two directly.
//
// A platform registers a single value implementing any subset of the
// capability interfaces below. The Registry validates arguments,
// checks that the capability is present, and dispatches; operations
// the registered platform does not implement fail with
// switchd.ErrUnsupported.
package pal

import (
	"context"

	switchd "github.com/frobware/go-switchd"
)

// WarmInitBeginner starts a warm-init cycle on a device. The mode
// selects how re-initialization proceeds; upgradeAgents requests that
// dependent software agents be torn down as part of the cycle.
type WarmInitBeginner interface {
	WarmInitBegin(ctx context.Context, dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool) error
}

// DeviceAdder brings a device into service. The profile is borrowed
// for the duration of the call: implementations copy what they need
// and must not retain the pointer.
type DeviceAdder interface {
	DeviceAdd(ctx context.Context, dev switchd.DeviceID, profile *switchd.DeviceProfile) error
}

// WarmInitEnder completes the warm-init cycle previously started for
// the same device. Pairing begin with end is the caller's obligation;
// implementations may assume a cycle is in progress.
type WarmInitEnder interface {
	WarmInitEnd(ctx context.Context, dev switchd.DeviceID) error
}

// CPUIfNetdevNamer resolves the name of the network interface on the
// device's CPU control-plane path.
type CPUIfNetdevNamer interface {
	CPUIfNetdevName(ctx context.Context, dev switchd.DeviceID) (string, error)
}

// CPUIf10GNetdevNamer resolves the name of a specific 10G CPU
// interface instance, identified by PCI bus/device string and an
// instance index.
type CPUIf10GNetdevNamer interface {
	CPUIf10GNetdevName(ctx context.Context, dev switchd.DeviceID, pciBusDev string, instance int) (string, error)
}

// PlatformTyper reports whether the device is a software model rather
// than real hardware.
type PlatformTyper interface {
	PlatformType(ctx context.Context, dev switchd.DeviceID) (isSWModel bool, err error)
}

// ResetConfigurer applies the platform's reset configuration to a
// device.
type ResetConfigurer interface {
	ResetConfig(ctx context.Context, dev switchd.DeviceID) error
}

// WarmInitErrorSetter records the warm-init error state for a device.
// The platform owns the flag; it defaults to false for a device that
// has never had it set.
type WarmInitErrorSetter interface {
	SetWarmInitError(ctx context.Context, dev switchd.DeviceID, state bool) error
}

// WarmInitErrorGetter reports the warm-init error state for a device.
type WarmInitErrorGetter interface {
	WarmInitError(ctx context.Context, dev switchd.DeviceID) (bool, error)
}

// Platform combines every lifecycle capability. Full platform
// implementations satisfy all of them; partial platforms implement
// only the subset the hardware (or model) supports and register the
// same way.
type Platform interface {
	WarmInitBeginner
	DeviceAdder
	WarmInitEnder
	CPUIfNetdevNamer
	CPUIf10GNetdevNamer
	PlatformTyper
	ResetConfigurer
	WarmInitErrorSetter
	WarmInitErrorGetter
}
