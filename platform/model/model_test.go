package model_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/platform/model"
)

func testLogger() *slog.Logger {
	if os.Getenv("SWITCHD_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// addNetdev creates a fake netdev entry under root, optionally backed
// by a PCI device symlink the way sysfs lays interfaces out.
func addNetdev(t *testing.T, root, name, pciAddr string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if pciAddr != "" {
		target := "../../devices/pci0000:00/" + pciAddr
		require.NoError(t, os.Symlink(target, filepath.Join(dir, "device")))
	}
}

func newModel(t *testing.T, sysfs string) *model.Model {
	t.Helper()
	return model.New(
		model.WithLogger(testLogger()),
		model.WithSysfsRoot(sysfs),
	)
}

func tofinoProfile() *switchd.DeviceProfile {
	return &switchd.DeviceProfile{
		Family: "tofino2",
		Ports: []switchd.PortConfig{
			{Name: "xe0", Lanes: []uint{0, 1, 2, 3}, Speed: "100g"},
		},
		Programs: []switchd.ProgramConfig{{Name: "tna_exact_match"}},
	}
}

func TestDeviceAddValidatesFamily(t *testing.T) {
	m := newModel(t, t.TempDir())
	err := m.DeviceAdd(context.Background(), 0, &switchd.DeviceProfile{Family: "broadwell"})
	assert.ErrorContains(t, err, "unsupported asic family")
}

func TestDeviceAddTwiceFails(t *testing.T) {
	m := newModel(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, m.DeviceAdd(ctx, 0, tofinoProfile()))
	err := m.DeviceAdd(ctx, 0, tofinoProfile())
	assert.ErrorContains(t, err, "already added")
}

// Re-adding a device inside an open warm-init cycle is the normal
// fast-reconfig sequence: begin, add, end.
func TestDeviceReAddDuringWarmInit(t *testing.T) {
	m := newModel(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, m.DeviceAdd(ctx, 0, tofinoProfile()))
	require.NoError(t, m.WarmInitBegin(ctx, 0, switchd.InitModeFastReconfig, switchd.SerdesUpgradeNone, false))
	require.NoError(t, m.DeviceAdd(ctx, 0, tofinoProfile()))
	require.NoError(t, m.WarmInitEnd(ctx, 0))

	err := m.DeviceAdd(ctx, 0, tofinoProfile())
	assert.ErrorContains(t, err, "already added")
}

// Warm init may begin before the device is first added; the add then
// happens inside the cycle.
func TestWarmInitBeginBeforeFirstAdd(t *testing.T) {
	m := newModel(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, m.WarmInitBegin(ctx, 2, switchd.InitModeCold, switchd.SerdesUpgradeNone, false))
	assert.True(t, m.WarmInitOpen(2))
	require.NoError(t, m.DeviceAdd(ctx, 2, tofinoProfile()))
	require.NoError(t, m.WarmInitEnd(ctx, 2))
	assert.False(t, m.WarmInitOpen(2))
}

func TestWarmInitEndWithoutBegin(t *testing.T) {
	m := newModel(t, t.TempDir())
	err := m.WarmInitEnd(context.Background(), 0)
	assert.ErrorContains(t, err, "no warm init in progress")
}

func TestResetConfigAbandonsOpenCycle(t *testing.T) {
	m := newModel(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, m.DeviceAdd(ctx, 0, tofinoProfile()))
	require.NoError(t, m.WarmInitBegin(ctx, 0, switchd.InitModeHitless, switchd.SerdesUpgradeDeferred, true))
	require.NoError(t, m.ResetConfig(ctx, 0))

	assert.False(t, m.WarmInitOpen(0))
	err := m.WarmInitEnd(ctx, 0)
	assert.ErrorContains(t, err, "no warm init in progress")
}

func TestResetConfigUnknownDevice(t *testing.T) {
	m := newModel(t, t.TempDir())
	err := m.ResetConfig(context.Background(), 5)
	assert.ErrorContains(t, err, "not added")
}

// The error flag defaults to false, survives every lifecycle
// operation, and changes only through the explicit setter.
func TestWarmInitErrorFlag(t *testing.T) {
	m := newModel(t, t.TempDir())
	ctx := context.Background()

	state, err := m.WarmInitError(ctx, 0)
	require.NoError(t, err)
	assert.False(t, state)

	require.NoError(t, m.SetWarmInitError(ctx, 0, true))

	require.NoError(t, m.DeviceAdd(ctx, 0, tofinoProfile()))
	require.NoError(t, m.WarmInitBegin(ctx, 0, switchd.InitModeFastReconfig, switchd.SerdesUpgradeNone, false))
	require.NoError(t, m.WarmInitEnd(ctx, 0))
	require.NoError(t, m.ResetConfig(ctx, 0))

	state, err = m.WarmInitError(ctx, 0)
	require.NoError(t, err)
	assert.True(t, state, "lifecycle operations must not clear the flag")

	require.NoError(t, m.SetWarmInitError(ctx, 0, false))
	state, err = m.WarmInitError(ctx, 0)
	require.NoError(t, err)
	assert.False(t, state)
}

func TestCPUIfNetdevName(t *testing.T) {
	sysfs := t.TempDir()
	addNetdev(t, sysfs, "bf_pci0", "")
	m := newModel(t, sysfs)

	name, err := m.CPUIfNetdevName(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "bf_pci0", name)

	_, err = m.CPUIfNetdevName(context.Background(), 1)
	assert.ErrorIs(t, err, switchd.ErrNotFound)
}

func TestCPUIfNetdevNameCustomPrefix(t *testing.T) {
	sysfs := t.TempDir()
	addNetdev(t, sysfs, "asic3", "")
	m := model.New(
		model.WithLogger(testLogger()),
		model.WithSysfsRoot(sysfs),
		model.WithCPUPortPrefix("asic"),
	)

	name, err := m.CPUIfNetdevName(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "asic3", name)
}

func TestCPUIf10GNetdevName(t *testing.T) {
	sysfs := t.TempDir()
	addNetdev(t, sysfs, "enp5s0f0", "0000:05:00.0")
	addNetdev(t, sysfs, "enp5s0f1", "0000:05:00.0")
	addNetdev(t, sysfs, "eth0", "0000:03:00.0")
	addNetdev(t, sysfs, "lo", "")
	m := newModel(t, sysfs)
	ctx := context.Background()

	name, err := m.CPUIf10GNetdevName(ctx, 0, "0000:05:00.0", 0)
	require.NoError(t, err)
	assert.Equal(t, "enp5s0f0", name)

	name, err = m.CPUIf10GNetdevName(ctx, 0, "0000:05:00.0", 1)
	require.NoError(t, err)
	assert.Equal(t, "enp5s0f1", name)

	_, err = m.CPUIf10GNetdevName(ctx, 0, "0000:05:00.0", 2)
	assert.ErrorIs(t, err, switchd.ErrNotFound)

	_, err = m.CPUIf10GNetdevName(ctx, 0, "0000:09:00.0", 0)
	assert.ErrorIs(t, err, switchd.ErrNotFound)
}

func TestPlatformTypeReportsSoftwareModel(t *testing.T) {
	m := newModel(t, t.TempDir())
	isSWModel, err := m.PlatformType(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, isSWModel)
}

// Devices lists only devices that completed an add, not placeholders
// created by a warm-init begin that never added.
func TestDevicesListsAddedOnly(t *testing.T) {
	m := newModel(t, t.TempDir())
	ctx := context.Background()

	require.NoError(t, m.DeviceAdd(ctx, 1, tofinoProfile()))
	require.NoError(t, m.DeviceAdd(ctx, 0, tofinoProfile()))
	require.NoError(t, m.WarmInitBegin(ctx, 4, switchd.InitModeCold, switchd.SerdesUpgradeNone, false))

	assert.Equal(t, []switchd.DeviceID{0, 1}, m.Devices(ctx))
}
