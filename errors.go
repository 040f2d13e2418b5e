package switchd

import (
	"errors"
	"fmt"
)

// Status classes shared by every layer. Operations return these (or
// errors wrapping them) so callers can branch with errors.Is without
// caring which layer produced the failure. Platform-internal failures
// are relayed as-is and match none of them.
var (
	// ErrInvalidArgument covers malformed requests: a device id
	// outside [0, MaxDevices), a nil profile, a nil registration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported is returned when no platform is registered, or
	// the registered platform does not implement the requested
	// operation.
	ErrUnsupported = errors.New("operation not supported")

	// ErrNotFound is returned when the platform cannot resolve a
	// requested name or resource, and by the store when a record
	// does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrInvalidDevice is returned when a device identifier lies outside
// [0, MaxDevices). It matches ErrInvalidArgument under errors.Is.
type ErrInvalidDevice struct {
	Device DeviceID
}

func (e ErrInvalidDevice) Error() string {
	return fmt.Sprintf("invalid device id %d: must be in [0, %d)", e.Device, MaxDevices)
}

// Is reports ErrInvalidDevice as a member of the ErrInvalidArgument class.
func (e ErrInvalidDevice) Is(target error) bool {
	return target == ErrInvalidArgument
}
