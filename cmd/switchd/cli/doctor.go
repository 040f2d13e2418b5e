package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/frobware/go-switchd/manager"
)

// DoctorCmd checks coherency of inventory, journal, and platform state.
type DoctorCmd struct{}

// Run executes the doctor command.
func (c *DoctorCmd) Run(cli *CLI, ctx context.Context) error {
	b, err := cli.Client()
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer b.Close()

	report, err := b.Doctor(ctx)
	if err != nil {
		return fmt.Errorf("doctor failed: %w", err)
	}

	if len(report.Findings) == 0 {
		return cli.PrintOut("All checks passed. Inventory, journal, and platform are coherent.\n")
	}

	var out strings.Builder
	var errorCount, warningCount int
	lastCategory := ""

	for _, f := range report.Findings {
		category := categoryHeading(f.Category)
		if category != lastCategory {
			if lastCategory != "" {
				out.WriteString("\n")
			}
			out.WriteString(category + "\n")
			lastCategory = category
		}
		fmt.Fprintf(&out, "  %-7s  %s\n", f.Severity, f.Description)
		switch f.Severity {
		case manager.SeverityError:
			errorCount++
		case manager.SeverityWarning:
			warningCount++
		}
	}

	fmt.Fprintf(&out, "\nSummary: %d error(s), %d warning(s)\n", errorCount, warningCount)

	return cli.PrintOut(out.String())
}

func categoryHeading(cat string) string {
	switch cat {
	case "store-vs-platform":
		return "Checking inventory vs platform..."
	case "journal":
		return "Checking warm-init journal..."
	case "flag-vs-journal":
		return "Checking error flag vs journal..."
	case "runtime":
		return "Checking runtime directory..."
	default:
		return cat
	}
}
