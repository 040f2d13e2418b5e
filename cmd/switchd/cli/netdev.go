package cli

import (
	"context"
	"fmt"
)

// NetdevCmd resolves CPU interface netdev names.
type NetdevCmd struct {
	Device    Device `arg:"" help:"Device identifier."`
	PCIBusDev string `name:"pci-bus-dev" help:"Resolve the 10G CPU port backed by this PCI bus/device address instead of the PCIe port."`
	Instance  int    `name:"instance" default:"0" help:"Interface instance when several share the PCI address."`
}

// Run executes the netdev command.
func (c *NetdevCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	var name string
	if c.PCIBusDev != "" {
		name, err = b.CPUIf10GNetdevName(ctx, c.Device.Value, c.PCIBusDev, c.Instance)
	} else {
		name, err = b.CPUIfNetdevName(ctx, c.Device.Value)
	}
	if err != nil {
		return err
	}

	return cli.PrintOutf("%s\n", name)
}
