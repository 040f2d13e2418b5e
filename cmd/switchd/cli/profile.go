package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"

	switchd "github.com/frobware/go-switchd"
)

// ProfileCmd groups device profile operations. Profiles are plain YAML
// files; these commands work on them without touching any device.
type ProfileCmd struct {
	Validate ProfileValidateCmd `cmd:"" help:"Validate a profile file."`
	Show     ProfileShowCmd     `cmd:"" help:"Show a profile in normalized form."`
}

// ProfileValidateCmd validates a profile file.
type ProfileValidateCmd struct {
	Profile ProfileArg `arg:"" help:"Profile file path, or a bare name resolved under $SDE/profiles."`
}

// Run executes the profile validate command.
func (c *ProfileValidateCmd) Run(cli *CLI) error {
	profile, err := switchd.LoadDeviceProfile(c.Profile.Path)
	if err != nil {
		return err
	}

	return cli.PrintOutf("Profile OK: %s\n", profile.Summary())
}

// ProfileShowCmd shows a profile after parsing and validation.
type ProfileShowCmd struct {
	OutputFlags
	Profile ProfileArg `arg:"" help:"Profile file path, or a bare name resolved under $SDE/profiles."`
}

// Run executes the profile show command.
func (c *ProfileShowCmd) Run(cli *CLI) error {
	profile, err := switchd.LoadDeviceProfile(c.Profile.Path)
	if err != nil {
		return err
	}

	if c.Format() == OutputFormatJSON {
		output, err := marshalJSON(profile)
		if err != nil {
			return err
		}
		return cli.PrintOut(output)
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return cli.WriteOut(data)
}
