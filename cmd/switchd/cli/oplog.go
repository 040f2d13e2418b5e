package cli

import (
	"context"
	"fmt"
)

// OpLogCmd shows the operation log, newest first.
type OpLogCmd struct {
	OutputFlags
	Limit int `name:"limit" default:"32" help:"Maximum number of entries to show."`
}

// Run executes the oplog command.
func (c *OpLogCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	entries, err := b.OpLog(ctx, c.Limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 && c.Format() != OutputFormatJSON {
		return cli.PrintOut("Operation log is empty\n")
	}

	output, err := FormatOpLog(entries, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}
