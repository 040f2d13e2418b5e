package client

import (
	"io"
	"log/slog"

	"github.com/frobware/go-switchd/config"
)

// DefaultSocketPath returns the default Unix socket path for connecting to a switchd daemon.
// This is derived from the default runtime directories.
func DefaultSocketPath() string {
	return config.DefaultRuntimeDirs().SocketPath()
}

// Option configures client behaviour.
type Option interface {
	applyDial(*dialOptions)
	applyOpen(*openOptions)
}

// dialOptions holds configuration for Dial.
type dialOptions struct {
	logger *slog.Logger
}

// openOptions holds configuration for Open.
type openOptions struct {
	logger   *slog.Logger
	path     string
	config   config.Config
	platform any
}

// funcOption implements Option using functions.
type funcOption struct {
	dial func(*dialOptions)
	open func(*openOptions)
}

func (f *funcOption) applyDial(o *dialOptions) {
	if f.dial != nil {
		f.dial(o)
	}
}

func (f *funcOption) applyOpen(o *openOptions) {
	if f.open != nil {
		f.open(o)
	}
}

// WithLogger sets the logger for client operations.
// If not specified, a no-op logger is used.
func WithLogger(l *slog.Logger) Option {
	return &funcOption{
		dial: func(o *dialOptions) { o.logger = l },
		open: func(o *openOptions) { o.logger = l },
	}
}

// WithRuntimeDir sets the base runtime directory for Open.
// If not specified, defaults to /run/switchd.
// This option has no effect on Dial.
func WithRuntimeDir(path string) Option {
	return &funcOption{
		open: func(o *openOptions) { o.path = path },
	}
}

// WithConfig sets the configuration for Open.
// If not specified, the embedded defaults are used.
// This option has no effect on Dial.
func WithConfig(cfg config.Config) Option {
	return &funcOption{
		open: func(o *openOptions) { o.config = cfg },
	}
}

// WithPlatform sets the platform implementation Open registers. If not
// specified, the built-in software model is used, configured from the
// [platform] config section.
// This option has no effect on Dial.
func WithPlatform(platform any) Option {
	return &funcOption{
		open: func(o *openOptions) { o.platform = platform },
	}
}

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Dial connects to a switchd daemon at the specified address.
// The address can be:
//   - "host:port" for TCP connections
//   - "unix:///path/to/socket" for Unix socket connections
//   - "/path/to/socket" for Unix socket connections (shorthand)
//
// Example:
//
//	c, err := client.Dial("localhost:7001")
//	c, err := client.Dial("/run/switchd/sock/switchd.sock")
//	c, err := client.Dial("unix:///run/switchd/sock/switchd.sock")
//
// The returned client must be closed when no longer needed.
func Dial(address string, opts ...Option) (Client, error) {
	o := &dialOptions{
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt.applyDial(o)
	}
	return newRemote(address, o.logger)
}

// Open creates a client for embedded, daemonless device management.
// It takes the writer lock, so it fails while a daemon is serving
// from the same runtime directory.
//
// Example:
//
//	// Use defaults (/run/switchd, default config)
//	c, err := client.Open()
//
//	// Use custom runtime directory
//	c, err := client.Open(client.WithRuntimeDir("/tmp/myswitchd"))
//
//	// Use custom logger
//	c, err := client.Open(client.WithLogger(myLogger))
//
// The returned client must be closed when no longer needed.
func Open(opts ...Option) (Client, error) {
	o := &openOptions{
		logger: discardLogger(),
		path:   "", // empty means use default
		config: config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt.applyOpen(o)
	}

	// Determine runtime directories
	var dirs config.RuntimeDirs
	if o.path != "" {
		d, err := config.NewRuntimeDirs(o.path)
		if err != nil {
			return nil, err
		}
		dirs = d
	} else {
		dirs = config.DefaultRuntimeDirs()
	}

	return newEphemeral(dirs, o.config, o.platform, o.logger)
}
