// Package downtime analyzes a machine's stoppage history: failure counts,
// MTBF/MTTR, risk classification, reason breakdown, and the weekly trend
// that feeds predictive-maintenance views. Pure math over records the
// service layer has already fetched.
package downtime

import (
	"math"
	"sort"
	"time"
)

// Reason categorizes why a machine stopped.
type Reason string

const (
	ReasonMechanical Reason = "mechanical"
	ReasonElectrical Reason = "electrical"
	ReasonMaterial   Reason = "material"
	ReasonOperator   Reason = "operator"
	ReasonQuality    Reason = "quality"
	ReasonPlanned    Reason = "planned"
	ReasonOther      Reason = "other"
)

// Reasons lists every valid category.
func Reasons() []Reason {
	return []Reason{ReasonMechanical, ReasonElectrical, ReasonMaterial, ReasonOperator, ReasonQuality, ReasonPlanned, ReasonOther}
}

// ValidReason reports whether r is a known category.
func ValidReason(r Reason) bool {
	for _, v := range Reasons() {
		if v == r {
			return true
		}
	}
	return false
}

// Risk is the maintenance risk classification derived from MTBF.
type Risk string

const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
)

// Rank orders risks most-severe-first for fleet sorting. Unknown risks
// sort last.
func (r Risk) Rank() int {
	switch r {
	case RiskCritical:
		return 0
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	case RiskLow:
		return 3
	}
	return 4
}

// RiskForMTBF classifies a mean-time-between-failures value in hours.
func RiskForMTBF(mtbfHours float64) Risk {
	switch {
	case mtbfHours < 48:
		return RiskCritical
	case mtbfHours < 120:
		return RiskHigh
	case mtbfHours < 240:
		return RiskMedium
	}
	return RiskLow
}

// Record is one stoppage event inside the analysis window.
type Record struct {
	Start       time.Time
	DurationMin int
	Reason      Reason
}

// ReasonStat is one row of the by-reason breakdown.
type ReasonStat struct {
	Reason   Reason `json:"reason_category"`
	Count    int    `json:"count"`
	TotalMin int    `json:"total_min"`
}

// WeekBucket is one 7-day window of the weekly trend.
type WeekBucket struct {
	WeekStart time.Time `json:"week_start"`
	Count     int       `json:"count"`
}

// Pattern is the full analysis result. JSON keys are the wire contract.
type Pattern struct {
	MachineID     string       `json:"machine_id"`
	PeriodDays    int          `json:"period_days"`
	TotalFailures int          `json:"total_failures"`
	MTBFHours     float64      `json:"mtbf_hours"`
	MTTRMinutes   float64      `json:"mttr_minutes"`
	RiskLevel     Risk         `json:"risk_level"`
	ByReason      []ReasonStat `json:"by_reason"`
	WeeklyTrend   []WeekBucket `json:"weekly_trend"`
}

// Analyze derives the downtime pattern for one machine over the trailing
// window ending at now. Records outside the window are ignored, so callers
// may pass the raw repository result.
func Analyze(machineID string, days int, now time.Time, records []Record) Pattern {
	windowStart := now.AddDate(0, 0, -days)

	var inWindow []Record
	for _, r := range records {
		if !r.Start.Before(windowStart) && r.Start.Before(now) {
			inWindow = append(inWindow, r)
		}
	}

	totalFailures := len(inWindow)
	totalRepairMin := 0
	byReason := map[Reason]*ReasonStat{}
	for _, r := range inWindow {
		totalRepairMin += r.DurationMin
		st, ok := byReason[r.Reason]
		if !ok {
			st = &ReasonStat{Reason: r.Reason}
			byReason[r.Reason] = st
		}
		st.Count++
		st.TotalMin += r.DurationMin
	}

	divisor := float64(totalFailures)
	if divisor < 1 {
		divisor = 1
	}
	mtbf := round1(float64(days) * 24 / divisor)
	mttr := round1(float64(totalRepairMin) / divisor)

	reasonStats := make([]ReasonStat, 0, len(byReason))
	for _, st := range byReason {
		reasonStats = append(reasonStats, *st)
	}
	sort.Slice(reasonStats, func(i, j int) bool {
		if reasonStats[i].TotalMin != reasonStats[j].TotalMin {
			return reasonStats[i].TotalMin > reasonStats[j].TotalMin
		}
		return reasonStats[i].Reason < reasonStats[j].Reason
	})

	// Fixed 7-day bucket walk backwards from now, emitted oldest-first.
	// Each bucket is the half-open window [start, end).
	weeks := days / 7
	trend := make([]WeekBucket, 0, weeks)
	for week := weeks - 1; week >= 0; week-- {
		start := now.AddDate(0, 0, -(week+1)*7)
		end := now.AddDate(0, 0, -week*7)
		count := 0
		for _, r := range inWindow {
			if !r.Start.Before(start) && r.Start.Before(end) {
				count++
			}
		}
		trend = append(trend, WeekBucket{WeekStart: start, Count: count})
	}

	return Pattern{
		MachineID:     machineID,
		PeriodDays:    days,
		TotalFailures: totalFailures,
		MTBFHours:     mtbf,
		MTTRMinutes:   mttr,
		RiskLevel:     RiskForMTBF(mtbf),
		ByReason:      reasonStats,
		WeeklyTrend:   trend,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
