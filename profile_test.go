package switchd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceProfileValidate(t *testing.T) {
	profile := DeviceProfile{
		Family: "tofino2",
		Ports: []PortConfig{
			{Name: "xe0", Lanes: []uint{0, 1, 2, 3}, Speed: "100g"},
			{Name: "xe1", Lanes: []uint{4, 5, 6, 7}, Speed: "100g"},
		},
		Programs: []ProgramConfig{{Name: "tna_exact_match"}},
	}
	require.NoError(t, profile.Validate())

	missing := DeviceProfile{}
	assert.ErrorContains(t, missing.Validate(), "family is required")

	dup := DeviceProfile{
		Family: "tofino",
		Ports:  []PortConfig{{Name: "xe0"}, {Name: "xe0"}},
	}
	assert.ErrorContains(t, dup.Validate(), "duplicate port")

	unnamed := DeviceProfile{
		Family:   "tofino",
		Programs: []ProgramConfig{{Pipeline: "pipe0"}},
	}
	assert.ErrorContains(t, unnamed.Validate(), "name is required")
}

func TestLoadDeviceProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "switch.yaml")
	data := `family: tofino2
description: lab switch
programs:
  - name: tna_exact_match
    pipeline: pipe0
ports:
  - name: xe0
    lanes: [0, 1, 2, 3]
    speed: 100g
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	profile, err := LoadDeviceProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "tofino2", profile.Family)
	require.Len(t, profile.Ports, 1)
	assert.Equal(t, []uint{0, 1, 2, 3}, profile.Ports[0].Lanes)
	assert.Equal(t, "tofino2: 1 program(s), 1 port(s)", profile.Summary())
}

func TestLoadDeviceProfileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("description: no family\n"), 0o600))

	_, err := LoadDeviceProfile(path)
	assert.ErrorContains(t, err, "family is required")

	_, err = LoadDeviceProfile(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}
