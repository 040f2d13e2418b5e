package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frobware/go-switchd/config"
)

func writeSDEEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sde.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadSDEEnv(t *testing.T) {
	path := writeSDEEnv(t, `
# SDE locations
SDE=/opt/sde-9.13.0
export SDE_INSTALL=$SDE/install
`)

	env, err := config.ReadSDEEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/sde-9.13.0", env.Root)
	assert.Equal(t, "/opt/sde-9.13.0/install", env.Install)
}

func TestReadSDEEnvQuotedValues(t *testing.T) {
	path := writeSDEEnv(t, `
SDE="/opt/my sde"
SDE_INSTALL='/opt/my sde/install'
`)

	env, err := config.ReadSDEEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/my sde", env.Root)
	assert.Equal(t, "/opt/my sde/install", env.Install)
}

func TestReadSDEEnvExpandsProcessEnv(t *testing.T) {
	t.Setenv("SWITCHD_TEST_PREFIX", "/srv")
	path := writeSDEEnv(t, "SDE=${SWITCHD_TEST_PREFIX}/sde\n")

	env, err := config.ReadSDEEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/sde", env.Root)
}

func TestReadSDEEnvRejectsMalformedLine(t *testing.T) {
	path := writeSDEEnv(t, "SDE /opt/sde\n")

	_, err := config.ReadSDEEnv(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a KEY=VALUE line")
}

func TestSDEEnvDirs(t *testing.T) {
	env := config.SDEEnv{Root: "/opt/sde", Install: "/opt/sde/install"}
	assert.Equal(t, "/opt/sde/profiles", env.ProfilesDir())
	assert.Equal(t, "/opt/sde/install/share/firmware", env.FirmwareDir())

	var empty config.SDEEnv
	assert.Empty(t, empty.ProfilesDir())
	assert.Empty(t, empty.FirmwareDir())
}

func TestResolveProfile(t *testing.T) {
	root := t.TempDir()
	profiles := filepath.Join(root, "profiles")
	require.NoError(t, os.MkdirAll(profiles, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "testing.yaml"), []byte("family: tofino\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(profiles, "legacy.yml"), []byte("family: tofino\n"), 0644))

	env := config.SDEEnv{Root: root}

	got, err := env.ResolveProfile("testing")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(profiles, "testing.yaml"), got)

	got, err = env.ResolveProfile("legacy")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(profiles, "legacy.yml"), got)

	// A path argument is used verbatim.
	explicit := filepath.Join(profiles, "testing.yaml")
	got, err = env.ResolveProfile(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	_, err = env.ResolveProfile("absent")
	require.Error(t, err)

	_, err = config.SDEEnv{}.ResolveProfile("absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SDE is unset")
}
