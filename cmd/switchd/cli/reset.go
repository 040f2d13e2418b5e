package cli

import (
	"context"
	"fmt"
)

// ResetConfigCmd restores a device's platform configuration.
type ResetConfigCmd struct {
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the reset-config command.
func (c *ResetConfigCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	if err := b.ResetConfig(ctx, c.Device.Value); err != nil {
		return err
	}

	return cli.PrintOutf("Platform configuration reset for device %d\n", c.Device.Value)
}
