package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/cmd/switchd/cli"
)

func TestParseDevice_ValidInputs(t *testing.T) {
	tests := []struct {
		input    string
		expected switchd.DeviceID
	}{
		{"0", 0},
		{"3", 3},
		{"7", 7},
		{"  5  ", 5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dev, err := cli.ParseDevice(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dev.Value)
		})
	}
}

func TestParseDevice_InvalidInputs(t *testing.T) {
	tests := []struct {
		input       string
		errContains string
	}{
		{"", "cannot be empty"},
		{"  ", "cannot be empty"},
		{"abc", "invalid device id"},
		{"0x2", "invalid device id"},
		{"8", "out of range"},
		{"-1", "out of range"},
		{"100", "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := cli.ParseDevice(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestParseMode_ValidInputs(t *testing.T) {
	tests := []struct {
		input    string
		expected switchd.WarmInitMode
	}{
		{"cold", switchd.InitModeCold},
		{"fast-reconfig", switchd.InitModeFastReconfig},
		{"hitless", switchd.InitModeHitless},
		{"  hitless  ", switchd.InitModeHitless},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := cli.ParseMode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode.Value)
		})
	}
}

func TestParseMode_InvalidInputs(t *testing.T) {
	tests := []struct {
		input       string
		errContains string
	}{
		{"", "cannot be empty"},
		{"lukewarm", "unknown warm-init mode"},
		{"COLD", "unknown warm-init mode"}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := cli.ParseMode(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestParseSerdesMode(t *testing.T) {
	mode, err := cli.ParseSerdesMode("forced-port-reconfig")
	require.NoError(t, err)
	assert.Equal(t, switchd.SerdesUpgradeForced, mode.Value)

	_, err = cli.ParseSerdesMode("sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown serdes upgrade mode")
}

func TestParseProfileArg_Path(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x1.yaml")
	require.NoError(t, os.WriteFile(path, []byte("family: tofino\n"), 0o644))

	p, err := cli.ParseProfileArg(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Path)
}

func TestParseProfileArg_SDEName(t *testing.T) {
	sde := t.TempDir()
	profiles := filepath.Join(sde, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0o755))
	path := filepath.Join(profiles, "x1_tofino.yaml")
	require.NoError(t, os.WriteFile(path, []byte("family: tofino\n"), 0o644))

	t.Setenv("SDE", sde)

	p, err := cli.ParseProfileArg("x1_tofino")
	require.NoError(t, err)
	assert.Equal(t, path, p.Path)
}

func TestParseProfileArg_InvalidInputs(t *testing.T) {
	t.Setenv("SDE", "")

	_, err := cli.ParseProfileArg("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	_, err = cli.ParseProfileArg("no_such_profile")
	require.Error(t, err)

	dir := t.TempDir()
	_, err = cli.ParseProfileArg(dir + string(os.PathSeparator))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestParseRuntimeDir(t *testing.T) {
	rd, err := cli.ParseRuntimeDir("/run/switchd")
	require.NoError(t, err)
	assert.Equal(t, "/run/switchd", rd.Path)

	_, err = cli.ParseRuntimeDir("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	rd, err = cli.ParseRuntimeDir("~/switchd-state")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "switchd-state"), rd.Path)
}
