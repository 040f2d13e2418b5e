// Package cli provides the Kong-based command-line interface for
// switchd.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-switchd/client"
	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/logging"
)

// CLI is the root command structure for switchd.
type CLI struct {
	RuntimeDir RuntimeDir `name:"runtime-dir" help:"Runtime state directory." default:"${default_runtime_dir}"`
	Config     string     `name:"config" help:"Config file path." default:"${default_config_path}"`
	Log        string     `name:"log" help:"Log spec (e.g. 'info,manager=debug')." env:"SWITCHD_LOG"`
	Remote     string     `name:"remote" short:"r" help:"Remote endpoint (unix:///path or host:port). Talks to a running daemon instead of opening local state."`

	// Out receives command output. Wired to os.Stdout by main; tests
	// substitute their own writer.
	Out io.Writer `kong:"-"`

	Serve        ServeCmd        `cmd:"" help:"Start the lifecycle daemon."`
	Device       DeviceCmd       `cmd:"" help:"Device inventory operations."`
	WarmInit     WarmInitCmd     `cmd:"" name:"warm-init" help:"Warm-init cycle operations."`
	ResetConfig  ResetConfigCmd  `cmd:"" name:"reset-config" help:"Restore platform configuration for a device."`
	Netdev       NetdevCmd       `cmd:"" help:"Resolve CPU interface netdev names."`
	PlatformType PlatformTypeCmd `cmd:"" name:"platform-type" help:"Report whether a device runs on the software model."`
	History      HistoryCmd      `cmd:"" help:"Show warm-init cycle history for a device."`
	OpLog        OpLogCmd        `cmd:"" name:"oplog" help:"Show the operation log."`
	Doctor       DoctorCmd       `cmd:"" help:"Check coherency of inventory, journal, and platform state."`
	Profile      ProfileCmd      `cmd:"" help:"Device profile operations."`
}

// KongOptions returns the Kong configuration options for the CLI.
func KongOptions() []kong.Option {
	return []kong.Option{
		kong.Name("switchd"),
		kong.Description("Switch ASIC device lifecycle manager."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.TypeMapper(reflect.TypeOf(Device{}), deviceMapper()),
		kong.TypeMapper(reflect.TypeOf(Mode{}), modeMapper()),
		kong.TypeMapper(reflect.TypeOf(SerdesMode{}), serdesModeMapper()),
		kong.TypeMapper(reflect.TypeOf(ProfileArg{}), profileArgMapper()),
		kong.TypeMapper(reflect.TypeOf(RuntimeDir{}), runtimeDirMapper()),
		kong.Vars{
			"default_runtime_dir": config.DefaultBase,
			"default_config_path": config.DefaultConfigPath,
		},
	}
}

// LoadConfig loads the configuration from the config file path.
func (c *CLI) LoadConfig() (config.Config, error) {
	return config.Load(c.Config)
}

// Logger creates a logger for CLI commands.
// CLI commands default to WARN level for quieter output.
// Use LoggerFromConfig for long-running services like serve.
func (c *CLI) Logger() (*slog.Logger, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	// CLI commands default to warn unless --log is specified.
	spec := c.Log
	if spec == "" {
		spec = "warn"
	}

	opts := logging.Options{
		CLISpec:    spec,
		ConfigSpec: cfg.Logging.ToSpec(),
		Format:     format,
		Output:     os.Stderr,
	}

	return logging.New(opts)
}

// LoggerFromConfig creates a logger using config file settings.
// Used by long-running services (serve) where INFO level is appropriate.
// Output goes to stdout for daemon/container log collection.
func (c *CLI) LoggerFromConfig() (*slog.Logger, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	opts := logging.Options{
		CLISpec:    c.Log,
		ConfigSpec: cfg.Logging.ToSpec(),
		Format:     format,
		Output:     os.Stdout,
	}

	return logging.New(opts)
}

// RuntimeDirs returns the runtime directory layout for the configured
// base.
func (c *CLI) RuntimeDirs() (config.RuntimeDirs, error) {
	return config.NewRuntimeDirs(c.RuntimeDir.Path)
}

// Client returns a client appropriate for the configured transport.
// If --remote is set, the client speaks to a running daemon over its
// API socket or TCP address. Otherwise the command opens local state
// directly through an ephemeral in-process daemon.
// The returned client must be closed when no longer needed.
func (c *CLI) Client() (client.Client, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	if c.Remote != "" {
		return client.Dial(c.Remote, client.WithLogger(logger))
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}

	return client.Open(
		client.WithRuntimeDir(c.RuntimeDir.Path),
		client.WithConfig(cfg),
		client.WithLogger(logger),
	)
}

// WriteOut writes raw bytes to the CLI output, treating a short write
// as an error.
func (c *CLI) WriteOut(p []byte) error {
	n, err := c.Out.Write(p)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// PrintOut writes a string to the CLI output.
func (c *CLI) PrintOut(s string) error {
	return c.WriteOut([]byte(s))
}

// PrintOutf writes a formatted string to the CLI output.
func (c *CLI) PrintOutf(format string, args ...any) error {
	return c.WriteOut([]byte(fmt.Sprintf(format, args...)))
}
