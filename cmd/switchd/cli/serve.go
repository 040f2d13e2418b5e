package cli

import (
	"context"
	"fmt"

	"github.com/frobware/go-switchd/config"
	"github.com/frobware/go-switchd/server"
)

// ServeCmd starts the lifecycle daemon.
type ServeCmd struct {
	TCPAddress   string `name:"tcp-address" help:"Also serve the API on this TCP address (e.g. 127.0.0.1:7001)."`
	PprofAddress string `name:"pprof-address" help:"Serve pprof on this address (e.g. localhost:6060)."`
	SDEEnvFile   string `name:"sde-env" help:"SDE environment file (KEY=VALUE lines) to read instead of $SDE/$SDE_INSTALL." type:"path"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(cli *CLI, ctx context.Context) error {
	logger, err := cli.LoggerFromConfig()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	appConfig, err := cli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sde := config.SDEEnvFromProcess()
	if c.SDEEnvFile != "" {
		sde, err = config.ReadSDEEnv(c.SDEEnvFile)
		if err != nil {
			return fmt.Errorf("failed to read SDE env: %w", err)
		}
	}
	if sde.Root != "" || sde.Install != "" {
		logger.Info("sde environment",
			"root", sde.Root,
			"install", sde.Install,
			"profiles", sde.ProfilesDir(),
			"firmware", sde.FirmwareDir())
	}

	dirs, err := cli.RuntimeDirs()
	if err != nil {
		return fmt.Errorf("invalid runtime directory: %w", err)
	}

	cfg := server.RunConfig{
		Dirs:         dirs,
		TCPAddress:   c.TCPAddress,
		PprofAddress: c.PprofAddress,
		Logger:       logger,
		Config:       appConfig,
	}

	return server.Run(ctx, cfg)
}
