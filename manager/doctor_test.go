package manager_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/store"
)

func findingsIn(report manager.DoctorReport, category string) []manager.Finding {
	var out []manager.Finding
	for _, f := range report.Findings {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

func TestDoctorCleanState(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.Manager.DeviceAdd(ctx, 0, testProfile()))
	_, err := f.Manager.WarmInitBegin(ctx, 0, switchd.InitModeFastReconfig, switchd.SerdesUpgradeNone, false)
	require.NoError(t, err)
	require.NoError(t, f.Manager.WarmInitEnd(ctx, 0))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	assert.False(t, report.HasErrors())
	assert.Empty(t, findingsIn(report, "store-vs-platform"))
	assert.Empty(t, findingsIn(report, "journal"))
	assert.Empty(t, findingsIn(report, "flag-vs-journal"))
}

func TestDoctorReportsStoreOnlyDevice(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	// Inventory row with no corresponding platform state, as left
	// behind by a crash between dispatch and persist.
	require.NoError(t, f.Store.SaveDevice(ctx, store.DeviceRecord{
		Device:  5,
		Family:  "tofino",
		AddedAt: time.Now(),
	}))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	findings := findingsIn(report, "store-vs-platform")
	require.Len(t, findings, 1)
	assert.Equal(t, manager.SeverityError, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "Device 5")
}

func TestDoctorReportsPlatformOnlyDevice(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	// Device added behind the manager's back.
	require.NoError(t, f.Platform.DeviceAdd(ctx, 1, testProfile()))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	findings := findingsIn(report, "store-vs-platform")
	require.Len(t, findings, 1)
	assert.Equal(t, manager.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "Device 1")
}

func TestDoctorReportsFaultedOpenCycle(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.Manager.DeviceAdd(ctx, 0, testProfile()))
	_, err := f.Manager.WarmInitBegin(ctx, 0, switchd.InitModeFastReconfig, switchd.SerdesUpgradeNone, false)
	require.NoError(t, err)
	require.NoError(t, f.Manager.SetWarmInitError(ctx, 0, true))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	findings := findingsIn(report, "journal")
	require.Len(t, findings, 1)
	assert.Equal(t, manager.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "fault marker")

	// Flag and journal agree, so no mismatch finding.
	assert.Empty(t, findingsIn(report, "flag-vs-journal"))
}

func TestDoctorReportsFlagMismatch(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.Manager.DeviceAdd(ctx, 0, testProfile()))
	// Flag set with no open cycle to carry the fault marker.
	require.NoError(t, f.Manager.SetWarmInitError(ctx, 0, true))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	findings := findingsIn(report, "flag-vs-journal")
	require.Len(t, findings, 1)
	assert.Equal(t, manager.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "no faulted open cycle")
}

func TestDoctorReportsStaleOpenCycle(t *testing.T) {
	f := newTestFixture(t, withManagerConfig(config.ManagerConfig{
		StaleCycleAfter: config.Duration(time.Minute),
	}))
	ctx := context.Background()

	require.NoError(t, f.Manager.DeviceAdd(ctx, 0, testProfile()))
	require.NoError(t, f.Store.OpenCycle(ctx, switchd.WarmInitCycle{
		CycleID:       "backdated",
		Device:        0,
		Mode:          switchd.InitModeFastReconfig,
		SerdesUpgrade: switchd.SerdesUpgradeNone,
		BegunAt:       time.Now().Add(-2 * time.Hour),
	}))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	findings := findingsIn(report, "journal")
	require.Len(t, findings, 1)
	assert.Equal(t, manager.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Description, "threshold 1m0s")
}

func TestDoctorReportsMultipleOpenCycles(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.Manager.DeviceAdd(ctx, 0, testProfile()))
	// The store does not enforce the single-open-cycle invariant;
	// seed a corrupt journal directly.
	for _, id := range []string{"cycle-a", "cycle-b"} {
		require.NoError(t, f.Store.OpenCycle(ctx, switchd.WarmInitCycle{
			CycleID:       id,
			Device:        0,
			Mode:          switchd.InitModeFastReconfig,
			SerdesUpgrade: switchd.SerdesUpgradeNone,
			BegunAt:       time.Now(),
		}))
	}

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)
	assert.True(t, report.HasErrors())

	var found bool
	for _, finding := range findingsIn(report, "journal") {
		if finding.Severity == manager.SeverityError {
			assert.Contains(t, finding.Description, "2 open warm-init cycles")
			found = true
		}
	}
	assert.True(t, found, "expected an error finding for the double-open journal")
}

func TestDoctorReportsNonSocketFile(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.Dirs.EnsureDirectories())
	require.NoError(t, os.WriteFile(f.Dirs.SocketPath(), []byte("not a socket"), 0o600))

	report, err := f.Manager.Doctor(ctx)
	require.NoError(t, err)

	var found bool
	for _, finding := range findingsIn(report, "runtime") {
		if finding.Severity == manager.SeverityError {
			assert.Contains(t, finding.Description, "not a socket")
			found = true
		}
	}
	assert.True(t, found, "expected an error finding for the non-socket file")
}
