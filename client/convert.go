package client

import (
	"github.com/frobware/go-switchd/manager"
)

// Wire shapes mirror the server's request and response bodies. They
// are duplicated here rather than shared so the client package has no
// compile-time coupling to the server's internals.

type warmInitBeginRequest struct {
	Mode          string `json:"mode"`
	SerdesUpgrade string `json:"serdes_upgrade,omitempty"`
	UpgradeAgents bool   `json:"upgrade_agents,omitempty"`
}

type cycleResponse struct {
	CycleID string `json:"cycle_id"`
}

type stateBody struct {
	State bool `json:"state"`
}

type nameResponse struct {
	Name string `json:"name"`
}

type platformTypeResponse struct {
	IsSWModel bool `json:"is_sw_model"`
}

type capabilitiesResponse struct {
	Capabilities []string `json:"capabilities"`
}

type doctorFindingWire struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type doctorReportWire struct {
	Healthy  bool                `json:"healthy"`
	Findings []doctorFindingWire `json:"findings"`
}

// severityFromLabel reverses manager.Severity.String. Unknown labels
// map to warning so a newer daemon cannot silently downgrade findings.
func severityFromLabel(label string) manager.Severity {
	switch label {
	case "OK":
		return manager.SeverityOK
	case "ERROR":
		return manager.SeverityError
	default:
		return manager.SeverityWarning
	}
}

func doctorReportFromWire(wire doctorReportWire) manager.DoctorReport {
	report := manager.DoctorReport{
		Findings: make([]manager.Finding, 0, len(wire.Findings)),
	}
	for _, f := range wire.Findings {
		report.Findings = append(report.Findings, manager.Finding{
			Severity:    severityFromLabel(f.Severity),
			Category:    f.Category,
			Description: f.Description,
		})
	}
	return report
}
