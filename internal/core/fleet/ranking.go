// Package fleet ranks machine health across the plant. A machine at
// critical risk always sorts ahead of anything milder, regardless of how
// good its OEE looks today.
package fleet

import (
	"sort"

	"github.com/example/weft/internal/core/downtime"
)

// MachineHealth is one machine's row in the fleet report. JSON keys are
// the wire contract.
type MachineHealth struct {
	MachineID    string        `json:"machine_id"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Section      string        `json:"section"`
	Line         string        `json:"line,omitempty"`
	OEEToday     float64       `json:"oee_today"`
	Availability float64       `json:"availability"`
	RiskLevel    downtime.Risk `json:"risk_level"`
	MTBFHours    float64       `json:"mtbf_hours"`
	Failures30d  int           `json:"failures_30d"`
}

// Rank sorts the fleet in place: risk severity first (critical, high,
// medium, low), ties broken by machine code.
func Rank(machines []MachineHealth) {
	sort.Slice(machines, func(i, j int) bool {
		ri, rj := machines[i].RiskLevel.Rank(), machines[j].RiskLevel.Rank()
		if ri != rj {
			return ri < rj
		}
		return machines[i].Code < machines[j].Code
	})
}
