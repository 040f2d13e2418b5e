// Package client provides a unified interface for device lifecycle
// management.
//
// Use Dial to connect to a running switchd daemon:
//
//	c, err := client.Dial(client.DefaultSocketPath())
//	c, err := client.Dial("localhost:7001")
//
// Use Open for embedded, daemonless management:
//
//	c, err := client.Open()
//	c, err := client.Open(client.WithRuntimeDir("/tmp/myswitchd"))
//
// Both return a Client that can be used identically.
package client

import (
	"context"
	"errors"
	"io"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/store"
)

// ErrConflict is returned when the daemon rejects an operation because
// it collides with in-flight state, such as beginning a warm-init
// cycle while one is already open. The error text carries the detail.
var ErrConflict = errors.New("conflict")

// Client provides a transport-agnostic interface for device lifecycle
// management. Commands use this interface and remain unaware of
// whether they are operating against an embedded manager or a remote
// daemon.
type Client interface {
	io.Closer

	// Lifecycle operations
	DeviceAdd(ctx context.Context, dev switchd.DeviceID, profile *switchd.DeviceProfile) error
	WarmInitBegin(ctx context.Context, dev switchd.DeviceID, mode switchd.WarmInitMode, serdesUpgrade switchd.SerdesUpgradeMode, upgradeAgents bool) (string, error)
	WarmInitEnd(ctx context.Context, dev switchd.DeviceID) error
	ResetConfig(ctx context.Context, dev switchd.DeviceID) error
	SetWarmInitError(ctx context.Context, dev switchd.DeviceID, state bool) error
	WarmInitError(ctx context.Context, dev switchd.DeviceID) (bool, error)

	// Platform queries
	PlatformType(ctx context.Context, dev switchd.DeviceID) (bool, error)
	CPUIfNetdevName(ctx context.Context, dev switchd.DeviceID) (string, error)
	CPUIf10GNetdevName(ctx context.Context, dev switchd.DeviceID, pciBusDev string, instance int) (string, error)

	// Inventory and journal reads
	ListDevices(ctx context.Context) ([]switchd.DeviceInfo, error)
	DeviceGet(ctx context.Context, dev switchd.DeviceID) (manager.DeviceStatus, error)
	History(ctx context.Context, dev switchd.DeviceID) ([]switchd.WarmInitCycle, error)
	OpLog(ctx context.Context, limit int) ([]store.OpEntry, error)
	Capabilities(ctx context.Context) ([]string, error)

	// Diagnostics
	Doctor(ctx context.Context) (manager.DoctorReport, error)
}
