package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// WarmInitCmd groups warm-init cycle operations.
type WarmInitCmd struct {
	Begin  WarmInitBeginCmd  `cmd:"" help:"Open a warm-init cycle for a device."`
	End    WarmInitEndCmd    `cmd:"" help:"Complete the open warm-init cycle for a device."`
	Status WarmInitStatusCmd `cmd:"" help:"Show the open cycle and error flag for a device."`
	Error  WarmInitErrorCmd  `cmd:"" help:"Get or set the warm-init error flag."`
}

// WarmInitBeginCmd opens a warm-init cycle.
type WarmInitBeginCmd struct {
	Device        Device     `arg:"" help:"Device identifier."`
	Mode          Mode       `name:"mode" default:"fast-reconfig" help:"Warm-init mode: cold, fast-reconfig, hitless."`
	SerdesUpgrade SerdesMode `name:"serdes-upgrade" default:"none" help:"Serdes upgrade mode: none, forced-port-reconfig, deferred-port-reconfig."`
	UpgradeAgents bool       `name:"upgrade-agents" help:"Also upgrade device agent software during the cycle."`
}

// Run executes the warm-init begin command.
func (c *WarmInitBeginCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	cycleID, err := b.WarmInitBegin(ctx, c.Device.Value, c.Mode.Value, c.SerdesUpgrade.Value, c.UpgradeAgents)
	if err != nil {
		return err
	}

	return cli.PrintOutf("Warm init begun for device %d (cycle %s, mode %s)\n", c.Device.Value, cycleID, c.Mode.Value)
}

// WarmInitEndCmd completes the open warm-init cycle.
type WarmInitEndCmd struct {
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the warm-init end command.
func (c *WarmInitEndCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	if err := b.WarmInitEnd(ctx, c.Device.Value); err != nil {
		return err
	}

	return cli.PrintOutf("Warm init complete for device %d\n", c.Device.Value)
}

// WarmInitStatusCmd reports the open cycle and error flag for a device.
type WarmInitStatusCmd struct {
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the warm-init status command.
func (c *WarmInitStatusCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	status, err := b.DeviceGet(ctx, c.Device.Value)
	if err != nil {
		return err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Device %d: error flag %s\n", c.Device.Value, erroredLabel(status.Info.WarmInitErrored))
	if cyc := status.OpenCycle; cyc != nil {
		fmt.Fprintf(&out, "Open cycle %s\n", cyc.CycleID)
		fmt.Fprintf(&out, "  mode    %s\n", cyc.Mode)
		fmt.Fprintf(&out, "  serdes  %s\n", cyc.SerdesUpgrade)
		fmt.Fprintf(&out, "  agents  %v\n", cyc.UpgradeAgents)
		fmt.Fprintf(&out, "  begun   %s\n", cyc.BegunAt.UTC().Format(timeLayout))
	} else {
		out.WriteString("No warm-init cycle in progress\n")
	}

	return cli.PrintOut(out.String())
}

// WarmInitErrorCmd gets or sets the warm-init error flag.
type WarmInitErrorCmd struct {
	Set WarmInitErrorSetCmd `cmd:"" help:"Set or clear the warm-init error flag."`
	Get WarmInitErrorGetCmd `cmd:"" default:"withargs" help:"Read the warm-init error flag."`
}

// WarmInitErrorSetCmd sets the warm-init error flag.
type WarmInitErrorSetCmd struct {
	Device Device `arg:"" help:"Device identifier."`
	State  string `arg:"" help:"Flag state: true or false."`
}

// Run executes the warm-init error set command.
func (c *WarmInitErrorSetCmd) Run(cli *CLI, ctx context.Context) error {
	state, err := strconv.ParseBool(c.State)
	if err != nil {
		return fmt.Errorf("invalid state %q: expected true or false", c.State)
	}

	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	if err := b.SetWarmInitError(ctx, c.Device.Value, state); err != nil {
		return err
	}

	return cli.PrintOutf("Warm init error flag for device %d set to %v\n", c.Device.Value, state)
}

// WarmInitErrorGetCmd reads the warm-init error flag.
type WarmInitErrorGetCmd struct {
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the warm-init error get command.
func (c *WarmInitErrorGetCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	state, err := b.WarmInitError(ctx, c.Device.Value)
	if err != nil {
		return err
	}

	return cli.PrintOutf("%v\n", state)
}
