package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/pal"
	"github.com/frobware/go-switchd/platform/model"
	"github.com/frobware/go-switchd/server"
	"github.com/frobware/go-switchd/store"
	"github.com/frobware/go-switchd/store/sqlite"
)

// testLogger returns a logger for tests. By default it discards all output.
// Set SWITCHD_TEST_VERBOSE=1 to enable logging.
func testLogger() *slog.Logger {
	if os.Getenv("SWITCHD_TEST_VERBOSE") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFixture provides the assembled API server plus direct access to
// the components behind it for verification.
type testFixture struct {
	API      *httptest.Server
	Server   *server.Server
	Manager  *manager.Manager
	Platform *model.Model
	Store    store.Store
	Dirs     config.RuntimeDirs
	t        *testing.T
}

// newTestFixture wires the software-model platform and a real
// in-memory SQLite store behind an httptest server.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	st, err := sqlite.NewInMemory(context.Background(), testLogger())
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { st.Close() })

	dirs, err := config.NewRuntimeDirs(t.TempDir())
	require.NoError(t, err)

	sysfs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(sysfs, "bf_pci0"), 0o755))
	platform := model.New(model.WithLogger(testLogger()), model.WithSysfsRoot(sysfs))

	registry := pal.NewRegistry(testLogger())
	mgr := manager.New(dirs, st, registry, config.ManagerConfig{}, testLogger())
	require.NoError(t, mgr.RegisterPlatform(platform))

	srv := server.New(dirs, mgr, testLogger())
	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)

	return &testFixture{
		API:      api,
		Server:   srv,
		Manager:  mgr,
		Platform: platform,
		Store:    st,
		Dirs:     dirs,
		t:        t,
	}
}

// testProfile returns a minimal valid profile.
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

// do issues a request against the API, JSON-encoding body when non-nil.
func (f *testFixture) do(method, path string, body any) *http.Response {
	f.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.API.URL+path, rd)
	require.NoError(f.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.API.Client().Do(req)
	require.NoError(f.t, err)
	return resp
}

// decodeBody decodes and closes a response body.
func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// AddDevice provisions dev with the standard test profile and asserts
// success.
func (f *testFixture) AddDevice(dev switchd.DeviceID) {
	f.t.Helper()
	resp := f.do(http.MethodPut, fmt.Sprintf("/v1/devices/%d", dev), testProfile())
	defer resp.Body.Close()
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
}

// BeginWarmInit starts a fast-reconfig cycle on dev and returns the
// cycle id.
func (f *testFixture) BeginWarmInit(dev switchd.DeviceID) string {
	f.t.Helper()
	resp := f.do(http.MethodPost, fmt.Sprintf("/v1/devices/%d/warm-init/begin", dev), map[string]any{
		"mode": "fast-reconfig",
	})
	require.Equal(f.t, http.StatusOK, resp.StatusCode)
	var out struct {
		CycleID string `json:"cycle_id"`
	}
	decodeBody(f.t, resp, &out)
	require.NotEmpty(f.t, out.CycleID)
	return out.CycleID
}
