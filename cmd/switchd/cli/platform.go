package cli

import (
	"context"
	"fmt"
)

// PlatformTypeCmd reports whether a device runs on the software model.
type PlatformTypeCmd struct {
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the platform-type command.
func (c *PlatformTypeCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	isModel, err := b.PlatformType(ctx, c.Device.Value)
	if err != nil {
		return err
	}

	if isModel {
		return cli.PrintOut("software-model\n")
	}
	return cli.PrintOut("hardware\n")
}
