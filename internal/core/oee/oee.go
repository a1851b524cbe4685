// Package oee computes daily Overall Equipment Effectiveness for a ring
// machine from pre-aggregated production and downtime numbers. Pure math;
// the service layer resolves the aggregates.
package oee

import (
	"math"
	"time"
)

// PlannedMinutes is the planned production time per day: one 8-hour shift.
const PlannedMinutes = 480

// DayAggregates are the raw per-machine, per-day inputs.
type DayAggregates struct {
	DowntimeMin         int
	AvgEfficiencyPct    *float64 // nil when the day has no completed batches
	TotalBreakage       int
	TotalActiveSpindles int
	BatchCount          int
}

// Daily is one day's OEE snapshot. JSON keys are the wire contract.
type Daily struct {
	MachineID           string    `json:"machine_id"`
	Date                time.Time `json:"date"`
	Availability        float64   `json:"availability"`
	Performance         float64   `json:"performance"`
	Quality             float64   `json:"quality"`
	OEE                 float64   `json:"oee"`
	DowntimeMin         int       `json:"downtime_min"`
	BreakageRatePer1000 float64   `json:"breakage_rate_per_1000"`
	BatchCount          int       `json:"batch_count"`
}

// Compute derives the OEE snapshot for one machine-day.
//
//	availability = max(0, (planned - downtime) / planned * 100)
//	performance  = average efficiency of the day's completed batches
//	quality      = clamp(0, 100, 100 - breakage_rate_per_1000)
//	oee          = availability * performance * quality / 10000
func Compute(machineID string, date time.Time, agg DayAggregates) Daily {
	availability := math.Max(0, float64(PlannedMinutes-agg.DowntimeMin)/PlannedMinutes*100)

	performance := 0.0
	if agg.AvgEfficiencyPct != nil {
		performance = *agg.AvgEfficiencyPct
	}

	spindles := agg.TotalActiveSpindles
	if spindles < 1 {
		spindles = 1
	}
	breakageRate := float64(agg.TotalBreakage) / float64(spindles) * 1000

	quality := math.Max(0, math.Min(100, 100-breakageRate))

	return Daily{
		MachineID:           machineID,
		Date:                date,
		Availability:        round2(availability),
		Performance:         round2(performance),
		Quality:             round2(quality),
		OEE:                 round2(availability * performance * quality / 10000),
		DowntimeMin:         agg.DowntimeMin,
		BreakageRatePer1000: round1(breakageRate),
		BatchCount:          agg.BatchCount,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
