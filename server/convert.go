package server

import (
	switchd "github.com/frobware/go-switchd"
	"github.com/frobware/go-switchd/manager"
)

// Wire shapes for requests and responses whose Go types do not marshal
// usefully on their own. Domain types with JSON tags travel as-is.

type deviceAddResponse struct {
	Device switchd.DeviceID `json:"device"`
}

type warmInitBeginRequest struct {
	Mode          string `json:"mode"`
	SerdesUpgrade string `json:"serdes_upgrade,omitempty"`
	UpgradeAgents bool   `json:"upgrade_agents,omitempty"`
}

type warmInitBeginResponse struct {
	CycleID string `json:"cycle_id"`
}

// warmInitErrorBody doubles as the set request and the get response.
type warmInitErrorBody struct {
	State bool `json:"state"`
}

type netdevResponse struct {
	Name string `json:"name"`
}

type platformTypeResponse struct {
	IsSWModel bool `json:"is_sw_model"`
}

type capabilitiesResponse struct {
	Capabilities []string `json:"capabilities"`
}

type healthResponse struct {
	Status string `json:"status"`
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

// doctorWire flattens a report for transport; severities travel as
// their string labels.
func doctorWire(report manager.DoctorReport) doctorReportWire {
	out := doctorReportWire{
		Healthy:  !report.HasErrors(),
		Findings: make([]doctorFindingWire, 0, len(report.Findings)),
	}
	for _, f := range report.Findings {
		out.Findings = append(out.Findings, doctorFindingWire{
			Severity:    f.Severity.String(),
			Category:    f.Category,
			Description: f.Description,
		})
	}
	return out
}
