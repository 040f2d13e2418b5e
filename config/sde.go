package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SDEEnv locates a switch SDE installation. Drivers, firmware and
// device profiles are resolved relative to these roots.
type SDEEnv struct {
	// Root is the SDE source tree ($SDE).
	Root string
	// Install is the installed artifact tree ($SDE_INSTALL).
	Install string
}

// SDEEnvFromProcess reads SDE and SDE_INSTALL from the process
// environment. Either field may be empty.
func SDEEnvFromProcess() SDEEnv {
	return SDEEnv{
		Root:    os.Getenv("SDE"),
		Install: os.Getenv("SDE_INSTALL"),
	}
}

// ReadSDEEnv parses an SDE environment file of KEY=VALUE lines, the
// format written by SDE setup scripts:
//
//	# comment
//	SDE=/opt/sde
//	export SDE_INSTALL=$SDE/install
//
// A leading "export " is stripped, values may be single or double
// quoted, and $VAR / ${VAR} references expand against keys defined
// earlier in the file, falling back to the process environment.
func ReadSDEEnv(path string) (SDEEnv, error) {
	f, err := os.Open(path)
	if err != nil {
		return SDEEnv{}, fmt.Errorf("failed to open SDE env file: %w", err)
	}
	defer f.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return SDEEnv{}, fmt.Errorf("%s:%d: not a KEY=VALUE line", path, lineNo)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return SDEEnv{}, fmt.Errorf("%s:%d: empty key", path, lineNo)
		}

		value = unquote(strings.TrimSpace(value))
		value = os.Expand(value, func(name string) string {
			if v, ok := vars[name]; ok {
				return v
			}
			return os.Getenv(name)
		})
		vars[key] = value
	}
	if err := scanner.Err(); err != nil {
		return SDEEnv{}, fmt.Errorf("failed to read SDE env file: %w", err)
	}

	return SDEEnv{
		Root:    vars["SDE"],
		Install: vars["SDE_INSTALL"],
	}, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// ProfilesDir returns the directory searched for device profiles, or
// the empty string if the SDE root is unset.
func (e SDEEnv) ProfilesDir() string {
	if e.Root == "" {
		return ""
	}
	return filepath.Join(e.Root, "profiles")
}

// FirmwareDir returns the serdes firmware directory, or the empty
// string if the install root is unset.
func (e SDEEnv) FirmwareDir() string {
	if e.Install == "" {
		return ""
	}
	return filepath.Join(e.Install, "share", "firmware")
}

// ResolveProfile resolves a profile argument to a file path. An
// argument containing a path separator or an existing file is used
// verbatim; otherwise {ProfilesDir}/{name}.yaml and .yml are tried.
func (e SDEEnv) ResolveProfile(arg string) (string, error) {
	if strings.ContainsRune(arg, os.PathSeparator) {
		return arg, nil
	}
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}

	dir := e.ProfilesDir()
	if dir == "" {
		return "", fmt.Errorf("profile %q not found and SDE is unset", arg)
	}
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := filepath.Join(dir, arg+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("profile %q not found in %s", arg, dir)
}
