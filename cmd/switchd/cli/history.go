package cli

import (
	"context"
	"fmt"
)

// HistoryCmd shows a device's warm-init cycle journal, most recent
// first.
type HistoryCmd struct {
	OutputFlags
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the history command.
func (c *HistoryCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	cycles, err := b.History(ctx, c.Device.Value)
	if err != nil {
		return err
	}

	if len(cycles) == 0 && c.Format() != OutputFormatJSON {
		return cli.PrintOutf("No warm-init cycles recorded for device %d\n", c.Device.Value)
	}

	output, err := FormatHistory(cycles, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}
