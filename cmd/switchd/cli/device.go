package cli

import (
	"context"
	"fmt"

	switchd "github.com/frobware/go-switchd"
)

// DeviceCmd groups device inventory operations.
type DeviceCmd struct {
	Add  DeviceAddCmd  `cmd:"" help:"Add a device with its profile."`
	List DeviceListCmd `cmd:"" default:"withargs" help:"List devices."`
	Get  DeviceGetCmd  `cmd:"" help:"Get the status of a device."`
}

// DeviceAddCmd adds a device to the platform using a profile.
type DeviceAddCmd struct {
	Device  Device     `arg:"" help:"Device identifier."`
	Profile ProfileArg `name:"profile" short:"p" required:"" help:"Profile file path, or a bare name resolved under $SDE/profiles."`
}

// Run executes the device add command.
func (c *DeviceAddCmd) Run(cli *CLI, ctx context.Context) error {
	profile, err := switchd.LoadDeviceProfile(c.Profile.Path)
	if err != nil {
		return err
	}

	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	if err := b.DeviceAdd(ctx, c.Device.Value, profile); err != nil {
		return err
	}

	return cli.PrintOutf("Device %d added (%s)\n", c.Device.Value, profile.Summary())
}

// DeviceListCmd lists the device inventory.
type DeviceListCmd struct {
	OutputFlags
}

// Run executes the device list command.
func (c *DeviceListCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	infos, err := b.ListDevices(ctx)
	if err != nil {
		return err
	}

	if len(infos) == 0 && c.Format() != OutputFormatJSON {
		return cli.PrintOut("No devices found\n")
	}

	output, err := FormatDeviceList(infos, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}

// DeviceGetCmd gets the status of a single device.
type DeviceGetCmd struct {
	OutputFlags
	Device Device `arg:"" help:"Device identifier."`
}

// Run executes the device get command.
func (c *DeviceGetCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	status, err := b.DeviceGet(ctx, c.Device.Value)
	if err != nil {
		return err
	}

	output, err := FormatDeviceStatus(status, &c.OutputFlags)
	if err != nil {
		return err
	}
	return cli.PrintOut(output)
}
