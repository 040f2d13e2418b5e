package switchd

// WarmInitMode selects how device re-initialization proceeds. It is
// supplied by the caller at the start of a warm-init cycle and is
// immutable for that cycle.
type WarmInitMode string

const (
	// InitModeCold is a full cold start; no state is preserved.
	InitModeCold WarmInitMode = "cold"
	// InitModeFastReconfig re-initializes the device while
	// preserving forwarding state where the platform supports it.
	InitModeFastReconfig WarmInitMode = "fast-reconfig"
	// InitModeHitless transitions the device without traffic loss.
	InitModeHitless WarmInitMode = "hitless"
)

// ParseWarmInitMode parses a string into a WarmInitMode.
// Returns the mode and true if valid, or empty string and false if invalid.
func ParseWarmInitMode(s string) (WarmInitMode, bool) {
	switch s {
	case "cold":
		return InitModeCold, true
	case "fast-reconfig":
		return InitModeFastReconfig, true
	case "hitless":
		return InitModeHitless, true
	default:
		return "", false
	}
}

// Valid returns true if this is a known warm-init mode.
func (m WarmInitMode) Valid() bool {
	switch m {
	case InitModeCold, InitModeFastReconfig, InitModeHitless:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode.
func (m WarmInitMode) String() string { return string(m) }

// SerdesUpgradeMode indicates whether serializer/deserializer firmware
// must be upgraded during a warm-init cycle. Orthogonal to WarmInitMode.
type SerdesUpgradeMode string

const (
	// SerdesUpgradeNone performs no serdes firmware upgrade.
	SerdesUpgradeNone SerdesUpgradeMode = "none"
	// SerdesUpgradeForced upgrades serdes firmware immediately,
	// reconfiguring ports as part of the cycle.
	SerdesUpgradeForced SerdesUpgradeMode = "forced-port-reconfig"
	// SerdesUpgradeDeferred upgrades serdes firmware lazily, on the
	// next per-port reconfiguration after the cycle completes.
	SerdesUpgradeDeferred SerdesUpgradeMode = "deferred-port-reconfig"
)

// ParseSerdesUpgradeMode parses a string into a SerdesUpgradeMode.
// Returns the mode and true if valid, or empty string and false if invalid.
func ParseSerdesUpgradeMode(s string) (SerdesUpgradeMode, bool) {
	switch s {
	case "none":
		return SerdesUpgradeNone, true
	case "forced-port-reconfig":
		return SerdesUpgradeForced, true
	case "deferred-port-reconfig":
		return SerdesUpgradeDeferred, true
	default:
		return "", false
	}
}

// Valid returns true if this is a known serdes upgrade mode.
func (m SerdesUpgradeMode) Valid() bool {
	switch m {
	case SerdesUpgradeNone, SerdesUpgradeForced, SerdesUpgradeDeferred:
		return true
	default:
		return false
	}
}

// String returns the string representation of the mode.
func (m SerdesUpgradeMode) String() string { return string(m) }
