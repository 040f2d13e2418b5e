package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// RuntimeDirs holds the runtime paths for a switchd instance:
//
//	{base}/          - runtime root
//	{base}/db/       - state database directory
//	{base}/.lock     - writer lock file
//	{base}-sock/     - API socket directory
//
// The state database deliberately lives under the runtime root: the
// warm-init journal tracks restarts within one boot, and a reboot is
// a cold start.
//
// RuntimeDirs is immutable after construction. Use NewRuntimeDirs to
// create one; fields are unexported so an invalid instance cannot be
// built by hand.
type RuntimeDirs struct {
	base string // runtime root (e.g. /run/switchd)
	db   string // state database directory
	sock string // API socket directory
	lock string // writer lock file
}

// DefaultBase is the production runtime root.
const DefaultBase = "/run/switchd"

// DefaultRuntimeDirs returns RuntimeDirs rooted at DefaultBase.
func DefaultRuntimeDirs() RuntimeDirs {
	dirs, err := NewRuntimeDirs(DefaultBase)
	if err != nil {
		panic(fmt.Sprintf("DefaultRuntimeDirs: %v", err))
	}
	return dirs
}

// NewRuntimeDirs derives all runtime paths from the given base.
//
// The socket directory is {base}-sock rather than a subdirectory so
// that it can be bind-mounted independently of the runtime root.
//
// Returns an error if base is empty or not absolute.
func NewRuntimeDirs(base string) (RuntimeDirs, error) {
	if base == "" {
		return RuntimeDirs{}, fmt.Errorf("base path cannot be empty")
	}
	if !filepath.IsAbs(base) {
		return RuntimeDirs{}, fmt.Errorf("base path must be absolute, got %q", base)
	}

	return RuntimeDirs{
		base: base,
		db:   filepath.Join(base, "db"),
		sock: base + "-sock",
		lock: filepath.Join(base, ".lock"),
	}, nil
}

// Base returns the runtime root path.
func (d RuntimeDirs) Base() string { return d.base }

// DB returns the state database directory.
func (d RuntimeDirs) DB() string { return d.db }

// Sock returns the API socket directory.
func (d RuntimeDirs) Sock() string { return d.sock }

// Lock returns the writer lock file path.
func (d RuntimeDirs) Lock() string { return d.lock }

// SocketPath returns the full path of the API socket.
func (d RuntimeDirs) SocketPath() string {
	return filepath.Join(d.sock, "switchd.sock")
}

// DBPath returns the full path of the SQLite database file.
func (d RuntimeDirs) DBPath() string {
	return filepath.Join(d.db, "state.db")
}

// EnsureDirectories creates the runtime directories. Call at startup
// to fail fast on permission problems. MkdirAll is idempotent.
func (d RuntimeDirs) EnsureDirectories() error {
	for _, dir := range []string{d.base, d.db, d.sock} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
