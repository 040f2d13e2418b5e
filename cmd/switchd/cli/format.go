package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/manager"
	"github.com/frobware/go-switchd/store"
)

const timeLayout = "2006-01-02T15:04:05Z"

// FormatDeviceList formats a device inventory listing according to the
// specified output flags.
func FormatDeviceList(infos []switchd.DeviceInfo, flags *OutputFlags) (string, error) {
	if flags.Format() == OutputFormatJSON {
		return marshalJSON(infos)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-7s %-9s %-10s %-8s %s\n", "DEVICE", "FAMILY", "STATE", "ERRORED", "ADDED")
	for _, info := range infos {
		fmt.Fprintf(&b, "%-7d %-9s %-10s %-8s %s\n",
			info.Device, info.Family, info.State,
			erroredLabel(info.WarmInitErrored),
			info.AddedAt.UTC().Format(timeLayout))
	}
	return b.String(), nil
}

// FormatDeviceStatus formats a single device's status according to the
// specified output flags.
func FormatDeviceStatus(status manager.DeviceStatus, flags *OutputFlags) (string, error) {
	switch flags.Format() {
	case OutputFormatJSON:
		return marshalJSON(status)
	case OutputFormatTree:
		return formatDeviceStatusTree(status), nil
	default:
		return formatDeviceStatusTable(status), nil
	}
}

func formatDeviceStatusTable(status manager.DeviceStatus) string {
	var b strings.Builder
	info := status.Info

	fmt.Fprintf(&b, "DEVICE  %d  %s  %s\n", info.Device, info.Family, info.State)
	fmt.Fprintf(&b, "  profile  %s\n", info.ProfileSummary)
	fmt.Fprintf(&b, "  added    %s\n", info.AddedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "  errored  %s\n", erroredLabel(info.WarmInitErrored))

	b.WriteString("\n  OPEN CYCLE\n")
	if c := status.OpenCycle; c != nil {
		fmt.Fprintf(&b, "  id      %s\n", c.CycleID)
		fmt.Fprintf(&b, "  mode    %s\n", c.Mode)
		fmt.Fprintf(&b, "  serdes  %s\n", c.SerdesUpgrade)
		fmt.Fprintf(&b, "  agents  %v\n", c.UpgradeAgents)
		fmt.Fprintf(&b, "  begun   %s\n", c.BegunAt.UTC().Format(timeLayout))
	} else {
		b.WriteString("  (none)\n")
	}

	return b.String()
}

func formatDeviceStatusTree(status manager.DeviceStatus) string {
	var b strings.Builder
	info := status.Info

	fmt.Fprintf(&b, "Device %d: %s (%s)\n", info.Device, info.Family, info.State)

	b.WriteString("├─ Inventory\n")
	fmt.Fprintf(&b, "│  ├─ profile:  %s\n", info.ProfileSummary)
	fmt.Fprintf(&b, "│  ├─ added:    %s\n", info.AddedAt.UTC().Format(timeLayout))
	fmt.Fprintf(&b, "│  └─ errored:  %s\n", erroredLabel(info.WarmInitErrored))

	b.WriteString("└─ Open Cycle\n")
	if c := status.OpenCycle; c != nil {
		fmt.Fprintf(&b, "   ├─ id:     %s\n", c.CycleID)
		fmt.Fprintf(&b, "   ├─ mode:   %s\n", c.Mode)
		fmt.Fprintf(&b, "   ├─ serdes: %s\n", c.SerdesUpgrade)
		fmt.Fprintf(&b, "   └─ begun:  %s\n", c.BegunAt.UTC().Format(timeLayout))
	} else {
		b.WriteString("   └─ none\n")
	}

	return b.String()
}

// FormatHistory formats a device's warm-init cycle journal according to
// the specified output flags.
func FormatHistory(cycles []switchd.WarmInitCycle, flags *OutputFlags) (string, error) {
	if flags.Format() == OutputFormatJSON {
		return marshalJSON(cycles)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-14s %-22s %-8s %-20s %s\n", "CYCLE", "MODE", "SERDES", "STATE", "BEGUN", "ENDED")
	for _, c := range cycles {
		ended := "-"
		if c.EndedAt != nil {
			ended = c.EndedAt.UTC().Format(timeLayout)
		}
		fmt.Fprintf(&b, "%-36s %-14s %-22s %-8s %-20s %s\n",
			c.CycleID, c.Mode, c.SerdesUpgrade, cycleState(c),
			c.BegunAt.UTC().Format(timeLayout), ended)
	}
	return b.String(), nil
}

// FormatOpLog formats operation log entries according to the specified
// output flags.
func FormatOpLog(entries []store.OpEntry, flags *OutputFlags) (string, error) {
	if flags.Format() == OutputFormatJSON {
		return marshalJSON(entries)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-20s %-22s %-7s %-18s %s\n", "SEQ", "TIME", "OP", "DEVICE", "OUTCOME", "DETAIL")
	for _, e := range entries {
		fmt.Fprintf(&b, "%-6d %-20s %-22s %-7d %-18s %s\n",
			e.Seq, e.Time.UTC().Format(timeLayout), e.Op, e.Device, e.Outcome, e.Detail)
	}
	return b.String(), nil
}

// cycleState renders the three journal states a cycle can be in.
func cycleState(c switchd.WarmInitCycle) string {
	switch {
	case c.Aborted:
		return "aborted"
	case c.EndedAt == nil:
		if c.Fault {
			return "faulted"
		}
		return "open"
	default:
		return "done"
	}
}

func erroredLabel(flag *bool) string {
	if flag == nil {
		return "-"
	}
	if *flag {
		return "yes"
	}
	return "no"
}

func marshalJSON(v any) (string, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(output) + "\n", nil
}
