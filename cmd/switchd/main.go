// switchd manages the lifecycle of programmable switch ASIC devices.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/frobware/go-switchd/cmd/switchd/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var c cli.CLI
	c.Out = os.Stdout

	opts := append(cli.KongOptions(), kong.BindTo(ctx, (*context.Context)(nil)))
	kctx := kong.Parse(&c, opts...)

	err := kctx.Run(&c)
	kctx.FatalIfErrorf(err)
}
