package cli

import (
	"fmt"
	"os"
	"strings"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/config"
)

// Device wraps a device identifier for argument parsing.
type Device struct {
	Value switchd.DeviceID
}

// ParseDevice parses a device identifier, enforcing the valid range.
func ParseDevice(s string) (Device, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Device{}, fmt.Errorf("device ID cannot be empty")
	}
	dev, err := switchd.ParseDeviceID(s)
	if err != nil {
		return Device{}, err
	}
	if !dev.Valid() {
		return Device{}, fmt.Errorf("device id %d out of range [0, %d)", dev, switchd.MaxDevices)
	}
	return Device{Value: dev}, nil
}

// Mode wraps a warm-init mode for argument parsing.
type Mode struct {
	Value switchd.WarmInitMode
}

// ParseMode parses a warm-init mode name.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Mode{}, fmt.Errorf("warm-init mode cannot be empty")
	}
	mode, ok := switchd.ParseWarmInitMode(s)
	if !ok {
		return Mode{}, fmt.Errorf("unknown warm-init mode %q: valid modes are cold, fast-reconfig, hitless", s)
	}
	return Mode{Value: mode}, nil
}

// SerdesMode wraps a serdes upgrade mode for argument parsing.
type SerdesMode struct {
	Value switchd.SerdesUpgradeMode
}

// ParseSerdesMode parses a serdes upgrade mode name.
func ParseSerdesMode(s string) (SerdesMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SerdesMode{}, fmt.Errorf("serdes upgrade mode cannot be empty")
	}
	mode, ok := switchd.ParseSerdesUpgradeMode(s)
	if !ok {
		return SerdesMode{}, fmt.Errorf("unknown serdes upgrade mode %q: valid modes are none, forced-port-reconfig, deferred-port-reconfig", s)
	}
	return SerdesMode{Value: mode}, nil
}

// ProfileArg wraps a resolved device profile path. Bare names resolve
// through the SDE profiles directory; paths are used verbatim.
type ProfileArg struct {
	Path string
}

// ParseProfileArg resolves a profile argument and validates that the
// file exists.
func ParseProfileArg(s string) (ProfileArg, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ProfileArg{}, fmt.Errorf("profile cannot be empty")
	}

	path, err := config.SDEEnvFromProcess().ResolveProfile(s)
	if err != nil {
		return ProfileArg{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ProfileArg{}, fmt.Errorf("profile %q does not exist", path)
		}
		return ProfileArg{}, fmt.Errorf("cannot access profile %q: %w", path, err)
	}
	if info.IsDir() {
		return ProfileArg{}, fmt.Errorf("profile %q is a directory, not a file", path)
	}

	return ProfileArg{Path: path}, nil
}

// RuntimeDir wraps the runtime state directory with tilde expansion.
type RuntimeDir struct {
	Path string
}

// ParseRuntimeDir parses a runtime directory path with tilde expansion.
func ParseRuntimeDir(s string) (RuntimeDir, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RuntimeDir{}, fmt.Errorf("runtime directory cannot be empty")
	}

	if strings.HasPrefix(s, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return RuntimeDir{}, fmt.Errorf("cannot expand ~: %w", err)
		}
		s = home + s[1:]
	}

	return RuntimeDir{Path: s}, nil
}
