package cli

// OutputFormat represents the output format type.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatTree  OutputFormat = "tree"
	OutputFormatJSON  OutputFormat = "json"
)

// OutputFlags provides output formatting flags.
type OutputFlags struct {
	Output string `short:"o" help:"Output format: table, tree, json." default:"table"`
}

// Format returns the base format type.
func (f *OutputFlags) Format() OutputFormat {
	switch f.Output {
	case "tree":
		return OutputFormatTree
	case "json":
		return OutputFormatJSON
	default:
		return OutputFormatTable
	}
}
