// Package switchd defines the core types for managing the lifecycle
// of programmable switch ASIC devices: device identifiers, warm-init
// modes, device profiles, and the status taxonomy shared by every
// layer of the stack.
package switchd

import (
	"fmt"
	"strconv"
)

// MaxDevices bounds the device identifier space. Valid identifiers
// lie in [0, MaxDevices).
const MaxDevices = 8

// DeviceID identifies one physical or virtual ASIC instance. It is
// stable for the lifetime of the device and is not reused while the
// device is live.
type DeviceID int32

// Valid returns true if the identifier lies in [0, MaxDevices).
func (d DeviceID) Valid() bool {
	return d >= 0 && d < MaxDevices
}

// String returns the decimal form of the identifier.
func (d DeviceID) String() string {
	return strconv.Itoa(int(d))
}

// ParseDeviceID parses a decimal string into a DeviceID. It does not
// range-check the result; callers validate with Valid.
func ParseDeviceID(s string) (DeviceID, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid device id %q", s)
	}
	return DeviceID(v), nil
}
