package cli

import (
	"reflect"

	"github.com/alecthomas/kong"
)

// deviceMapper creates a Kong mapper for Device.
func deviceMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("device", &s); err != nil {
			return err
		}
		dev, err := ParseDevice(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(dev))
		return nil
	}
}

// modeMapper creates a Kong mapper for Mode.
func modeMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("mode", &s); err != nil {
			return err
		}
		mode, err := ParseMode(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(mode))
		return nil
	}
}

// serdesModeMapper creates a Kong mapper for SerdesMode.
func serdesModeMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("serdes-mode", &s); err != nil {
			return err
		}
		mode, err := ParseSerdesMode(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(mode))
		return nil
	}
}

// profileArgMapper creates a Kong mapper for ProfileArg.
func profileArgMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("profile", &s); err != nil {
			return err
		}
		p, err := ParseProfileArg(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(p))
		return nil
	}
}

// runtimeDirMapper creates a Kong mapper for RuntimeDir.
func runtimeDirMapper() kong.MapperFunc {
	return func(ctx *kong.DecodeContext, target reflect.Value) error {
		var s string
		if err := ctx.Scan.PopValueInto("path", &s); err != nil {
			return err
		}
		rd, err := ParseRuntimeDir(s)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(rd))
		return nil
	}
}
