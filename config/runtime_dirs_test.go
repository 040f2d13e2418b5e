package config_test

import (
	"os"
	"testing"

	"github.com/frobware/go-switchd/config"
)

func TestNewRuntimeDirs(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		wantBase   string
		wantDB     string
		wantSock   string
		wantLock   string
		wantSocket string
		wantDBPath string
	}{
		{
			name:       "production default",
			base:       "/run/switchd",
			wantBase:   "/run/switchd",
			wantDB:     "/run/switchd/db",
			wantSock:   "/run/switchd-sock",
			wantLock:   "/run/switchd/.lock",
			wantSocket: "/run/switchd-sock/switchd.sock",
			wantDBPath: "/run/switchd/db/state.db",
		},
		{
			name:       "temp dir for unit tests",
			base:       "/tmp/switchd-test-12345",
			wantBase:   "/tmp/switchd-test-12345",
			wantDB:     "/tmp/switchd-test-12345/db",
			wantSock:   "/tmp/switchd-test-12345-sock",
			wantLock:   "/tmp/switchd-test-12345/.lock",
			wantSocket: "/tmp/switchd-test-12345-sock/switchd.sock",
			wantDBPath: "/tmp/switchd-test-12345/db/state.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.NewRuntimeDirs(tt.base)
			if err != nil {
				t.Fatalf("NewRuntimeDirs(%q): %v", tt.base, err)
			}
			checks := []struct {
				name string
				got  string
				want string
			}{
				{"Base", got.Base(), tt.wantBase},
				{"DB", got.DB(), tt.wantDB},
				{"Sock", got.Sock(), tt.wantSock},
				{"Lock", got.Lock(), tt.wantLock},
				{"SocketPath", got.SocketPath(), tt.wantSocket},
				{"DBPath", got.DBPath(), tt.wantDBPath},
			}
			for _, c := range checks {
				if c.got != c.want {
					t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
				}
			}
		})
	}
}

func TestNewRuntimeDirs_Invalid(t *testing.T) {
	if _, err := config.NewRuntimeDirs(""); err == nil {
		t.Error("expected error for empty base")
	}
	if _, err := config.NewRuntimeDirs("relative/path"); err == nil {
		t.Error("expected error for relative base")
	}
}

func TestDefaultRuntimeDirs(t *testing.T) {
	d := config.DefaultRuntimeDirs()
	if d.Base() != "/run/switchd" {
		t.Errorf("DefaultRuntimeDirs().Base() = %q, want /run/switchd", d.Base())
	}
}

func TestEnsureDirectories_CreatesDirs(t *testing.T) {
	base := t.TempDir() + "/switchd"
	d, err := config.NewRuntimeDirs(base)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	for _, dir := range []string{d.Base(), d.DB(), d.Sock()} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("directory %s was not created", dir)
		}
	}

	// Idempotent on a second call.
	if err := d.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories (second call): %v", err)
	}
}
