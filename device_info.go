package switchd

import "time"

// DeviceState describes where a device sits in its lifecycle as
// recorded by the management layer.
type DeviceState string

const (
	// DeviceStateAdded means the device has been added and is not
	// inside a warm-init cycle.
	DeviceStateAdded DeviceState = "added"
	// DeviceStateWarmInit means a warm-init cycle is open for the
	// device (begin seen, end not yet seen).
	DeviceStateWarmInit DeviceState = "warm-init"
)

// DeviceInfo is the inventory view of a device. Most listing and
// status operations need only these fields.
type DeviceInfo struct {
	Device         DeviceID    `json:"device"`
	Family         string      `json:"family"`
	ProfileSummary string      `json:"profile_summary,omitempty"`
	State          DeviceState `json:"state"`
	AddedAt        time.Time   `json:"added_at"`

	// WarmInitErrored mirrors the platform's warm-init error flag at
	// the time of the query. Nil when the platform does not support
	// the query.
	WarmInitErrored *bool `json:"warm_init_errored,omitempty"`
}

// WarmInitCycle is one journal entry for a warm-init cycle: opened by
// begin, closed by end, or marked aborted by a reset.
type WarmInitCycle struct {
	CycleID       string            `json:"cycle_id"`
	Device        DeviceID          `json:"device"`
	Mode          WarmInitMode      `json:"mode"`
	SerdesUpgrade SerdesUpgradeMode `json:"serdes_upgrade"`
	UpgradeAgents bool              `json:"upgrade_agents"`
	Fault         bool              `json:"fault"`
	BegunAt       time.Time         `json:"begun_at"`
	EndedAt       *time.Time        `json:"ended_at,omitempty"`
	Aborted       bool              `json:"aborted,omitempty"`
}

// Open reports whether the cycle has begun but not yet ended or aborted.
func (c WarmInitCycle) Open() bool {
	return c.EndedAt == nil && !c.Aborted
}
