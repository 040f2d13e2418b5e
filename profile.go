package switchd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceProfile describes the ports, packet programs, and resources to
// apply when a device is added. The profile is owned by the caller and
// borrowed for the duration of the DeviceAdd call only: neither the
// registry nor the platform implementation may retain a reference to
// it after the call returns. Implementations that need any of its
// contents copy the fields they use.
type DeviceProfile struct {
	// Family names the ASIC family the profile targets, e.g.
	// "tofino" or "tofino2".
	Family string `yaml:"family" json:"family"`

	// Description is free-form operator text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// SerdesFirmwarePath points at the serdes firmware image to use
	// when a warm-init cycle requests a serdes upgrade. Optional.
	SerdesFirmwarePath string `yaml:"sds-fw-path,omitempty" json:"sds_fw_path,omitempty"`

	// Programs lists the packet programs to instantiate on the
	// device. The contents are opaque to the lifecycle layer.
	Programs []ProgramConfig `yaml:"programs,omitempty" json:"programs,omitempty"`

	// Ports provisions front-panel ports.
	Ports []PortConfig `yaml:"ports,omitempty" json:"ports,omitempty"`
}

// ProgramConfig names one packet program and its artifact locations.
// The lifecycle layer passes these through without interpretation.
type ProgramConfig struct {
	Name     string `yaml:"name" json:"name"`
	Pipeline string `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
}

// PortConfig provisions a single front-panel port.
type PortConfig struct {
	Name  string `yaml:"name" json:"name"`
	Lanes []uint `yaml:"lanes,omitempty" json:"lanes,omitempty"`
	Speed string `yaml:"speed,omitempty" json:"speed,omitempty"`
	Count uint   `yaml:"count,omitempty" json:"count,omitempty"`
}

// Validate checks the profile for structural problems before it is
// handed to a platform. It does not verify that referenced paths exist;
// that is the platform's concern.
func (p *DeviceProfile) Validate() error {
	if p.Family == "" {
		return fmt.Errorf("profile: family is required")
	}
	seen := make(map[string]struct{}, len(p.Ports))
	for i, port := range p.Ports {
		if port.Name == "" {
			return fmt.Errorf("profile: port %d: name is required", i)
		}
		if _, dup := seen[port.Name]; dup {
			return fmt.Errorf("profile: duplicate port %q", port.Name)
		}
		seen[port.Name] = struct{}{}
	}
	for i, prog := range p.Programs {
		if prog.Name == "" {
			return fmt.Errorf("profile: program %d: name is required", i)
		}
	}
	return nil
}

// Summary returns a one-line description suitable for inventory
// listings and logs.
func (p *DeviceProfile) Summary() string {
	return fmt.Sprintf("%s: %d program(s), %d port(s)", p.Family, len(p.Programs), len(p.Ports))
}

// LoadDeviceProfile reads and validates a YAML profile file.
func LoadDeviceProfile(path string) (*DeviceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var profile DeviceProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &profile, nil
}
