package manager_test

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
	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/pal"
	"github.com/frobware/go-switchd/platform/model"
	"github.com/frobware/go-switchd/store"
	"github.com/frobware/go-switchd/store/sqlite"
)

// testLogger returns a logger for tests. By default it discards all
// output. Set SWITCHD_TEST_VERBOSE=1 to enable logging.
func testLogger() *slog.Logger {
	if os.Getenv("SWITCHD_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFixture provides access to all components for verification.
type testFixture struct {
	Manager  *manager.Manager
	Platform *model.Model
	Store    store.Store
	Dirs     config.RuntimeDirs
	t        *testing.T
}

type fixtureOption func(*config.ManagerConfig)

func withManagerConfig(cfg config.ManagerConfig) fixtureOption {
	return func(c *config.ManagerConfig) { *c = cfg }
}

// newTestFixture builds a manager over an in-memory store and the
// software-model platform, with netdev resolution pointed at a
// fixture sysfs tree holding bf_pci0.
func newTestFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()

	st, err := sqlite.NewInMemory(context.Background(), testLogger())
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { st.Close() })

	dirs, err := config.NewRuntimeDirs(t.TempDir())
	require.NoError(t, err, "failed to create runtime dirs")

	sysfs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sysfs, "bf_pci0"), 0o755))

	platform := model.New(
		model.WithLogger(testLogger()),
		model.WithSysfsRoot(sysfs),
	)

	var cfg config.ManagerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	mgr := manager.New(dirs, st, pal.NewRegistry(testLogger()), cfg, testLogger())
	require.NoError(t, mgr.RegisterPlatform(platform))

	return &testFixture{
		Manager:  mgr,
		Platform: platform,
		Store:    st,
		Dirs:     dirs,
		t:        t,
	}
}

// testProfile returns a valid tofino profile.
func testProfile() *switchd.DeviceProfile {
	return &switchd.DeviceProfile{
		Family: "tofino",
		Programs: []switchd.ProgramConfig{
			{Name: "switch", Pipeline: "pipe0"},
		},
		Ports: []switchd.PortConfig{
			{Name: "1/0", Speed: "100G"},
		},
	}
}

// OpenCycle fetches the open journal cycle for dev, failing the test
// if none exists.
func (f *testFixture) OpenCycle(dev switchd.DeviceID) switchd.WarmInitCycle {
	f.t.Helper()
	cycle, err := f.Store.GetOpenCycle(context.Background(), dev)
	require.NoError(f.t, err, "expected an open cycle for device %d", dev)
	return cycle
}

// AssertNoOpenCycle verifies the journal holds no open cycle for dev.
func (f *testFixture) AssertNoOpenCycle(dev switchd.DeviceID) {
	f.t.Helper()
	_, err := f.Store.GetOpenCycle(context.Background(), dev)
	assert.ErrorIs(f.t, err, switchd.ErrNotFound, "expected no open cycle for device %d", dev)
}

// AssertOpLogTail verifies the newest operation log entry.
func (f *testFixture) AssertOpLogTail(op, outcome string) {
	f.t.Helper()
	entries, err := f.Store.ListOps(context.Background(), 1)
	require.NoError(f.t, err, "failed to list operation log")
	require.NotEmpty(f.t, entries, "operation log is empty")
	assert.Equal(f.t, op, entries[0].Op, "operation log tail op mismatch")
	assert.Equal(f.t, outcome, entries[0].Outcome, "operation log tail outcome mismatch")
}
