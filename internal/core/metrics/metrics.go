// Package metrics computes the derived metadata bundle attached to every
// production batch and downtime record. Calculators are pure: they read a
// snapshot of raw fields and return a fresh bundle. A metric whose inputs
// are missing or invalid is omitted, never an error — one malformed batch
// must not take down an aggregate report.
package metrics

import (
	"math"
	"time"

	"github.com/example/weft/internal/core/stage"
)

// AIVersion tags bundles so downstream consumers can detect formula
// changes.
const AIVersion = "1.0"

// Snapshot carries the raw batch fields a calculator may read. Pointer
// fields are nil when the operator has not filled them in yet.
type Snapshot struct {
	Stage stage.Stage

	InputWeight  *float64
	OutputWeight *float64
	WasteWeight  *float64

	// carding
	NepsCount *int

	// passage
	EvennessCV *float64
	DraftRatio *float64

	// spinning
	EfficiencyPct  *float64
	ActiveSpindles *int
	TotalSpindles  *int
	BreakageCount  *int

	// dyeing
	Temperature   *float64
	PH            *float64
	LiquorRatio   *float64
	DurationMin   *int
	QualityResult string
}

// Bundle is the versioned metadata blob persisted alongside a batch.
// Field names are the wire keys consumers read.
type Bundle struct {
	AIVersion      string             `json:"ai_version"`
	ComputedAt     time.Time          `json:"computed_at"`
	YieldPct       *float64           `json:"yield_pct,omitempty"`
	WastePct       *float64           `json:"waste_pct,omitempty"`
	QualityMetrics map[string]float64 `json:"quality_metrics,omitempty"`
	OEE            map[string]float64 `json:"oee,omitempty"`
	ProcessParams  map[string]float64 `json:"process_params,omitempty"`
	MachineHealth  map[string]float64 `json:"machine_health,omitempty"`
	AnomalyFlags   []string           `json:"anomaly_flags"`
}

// Anomaly flag tags.
const (
	FlagHighWaste         = "HIGH_WASTE"
	FlagHighNeps          = "HIGH_NEPS"
	FlagHighCV            = "HIGH_CV"
	FlagLowEfficiency     = "LOW_EFFICIENCY"
	FlagHighBreakage      = "HIGH_BREAKAGE"
	FlagLowOEE            = "LOW_OEE"
	FlagQualityFail       = "QUALITY_FAIL"
	FlagHighTemperature   = "HIGH_TEMPERATURE"
	FlagExtremePH         = "EXTREME_PH"
	FlagFrequentDowntime  = "FREQUENT_DOWNTIME"
	FlagExcessiveDowntime = "EXCESSIVE_DOWNTIME"
)

// Threshold constants for anomaly flags.
const (
	highWastePct          = 8.0
	highNepsCount         = 200
	highEvennessCV        = 5.0
	lowEfficiencyPct      = 70.0
	highBreakageCount     = 50
	lowOEESimple          = 60.0
	highTemperatureC      = 130.0
	extremePHLow          = 3.0
	extremePHHigh         = 11.0
	frequentDowntime30d   = 10
	excessiveDowntimeMins = 500
)

// Calculator derives a bundle from a snapshot.
type Calculator func(s Snapshot, now time.Time) Bundle

// calculators dispatches on the stage tag. Stages without their own
// formulas get the generic yield calculator.
var calculators = map[stage.Stage]Calculator{
	stage.Blowroom: computeBlowroom,
	stage.Carding:  computeCarding,
	stage.Passage:  computePassage,
	stage.Finisher: computeYieldOnly,
	stage.Spinning: computeSpinning,
	stage.Winding:  computeYieldOnly,
	stage.TFO:      computeYieldOnly,
	stage.Heatset:  computeYieldOnly,
	stage.Dyeing:   computeDyeing,
}

// Compute derives the metadata bundle for a batch snapshot. It always
// succeeds; degraded inputs simply shrink the bundle.
func Compute(s Snapshot, now time.Time) Bundle {
	if calc, ok := calculators[s.Stage]; ok {
		return calc(s, now)
	}
	return base(now)
}

func base(now time.Time) Bundle {
	return Bundle{
		AIVersion:    AIVersion,
		ComputedAt:   now,
		AnomalyFlags: []string{},
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func computeBlowroom(s Snapshot, now time.Time) Bundle {
	b := base(now)
	if s.InputWeight == nil || *s.InputWeight <= 0 {
		return b
	}
	in := *s.InputWeight

	if s.OutputWeight != nil {
		y := round2(*s.OutputWeight / in * 100)
		b.YieldPct = &y
	}

	// Missing waste is derived from the weight balance so the waste
	// indicator survives incomplete operator entry.
	waste := s.WasteWeight
	if waste == nil && s.OutputWeight != nil {
		w := in - *s.OutputWeight
		waste = &w
	}
	if waste != nil {
		w := round2(*waste / in * 100)
		b.WastePct = &w
		if w > highWastePct {
			b.AnomalyFlags = append(b.AnomalyFlags, FlagHighWaste)
		}
	}
	return b
}

func computeCarding(s Snapshot, now time.Time) Bundle {
	b := base(now)
	if s.InputWeight != nil && *s.InputWeight > 0 && s.OutputWeight != nil {
		y := round2(*s.OutputWeight / *s.InputWeight * 100)
		b.YieldPct = &y
	}
	if s.NepsCount != nil {
		b.QualityMetrics = map[string]float64{"neps": float64(*s.NepsCount)}
		if *s.NepsCount > highNepsCount {
			b.AnomalyFlags = append(b.AnomalyFlags, FlagHighNeps)
		}
	}
	return b
}

func computePassage(s Snapshot, now time.Time) Bundle {
	b := base(now)
	qm := map[string]float64{}
	if s.EvennessCV != nil {
		qm["evenness_cv"] = *s.EvennessCV
		if *s.EvennessCV > highEvennessCV {
			b.AnomalyFlags = append(b.AnomalyFlags, FlagHighCV)
		}
	}
	if s.DraftRatio != nil {
		qm["draft_ratio"] = *s.DraftRatio
	}
	if len(qm) > 0 {
		b.QualityMetrics = qm
	}
	return b
}

func computeYieldOnly(s Snapshot, now time.Time) Bundle {
	b := base(now)
	if s.InputWeight != nil && *s.InputWeight > 0 && s.OutputWeight != nil {
		y := round2(*s.OutputWeight / *s.InputWeight * 100)
		b.YieldPct = &y
	}
	return b
}

func computeSpinning(s Snapshot, now time.Time) Bundle {
	b := base(now)
	if s.InputWeight != nil && *s.InputWeight > 0 && s.OutputWeight != nil {
		y := round2(*s.OutputWeight / *s.InputWeight * 100)
		b.YieldPct = &y
	}

	oee := map[string]float64{}
	var availRaw float64
	haveAvail := false

	if s.EfficiencyPct != nil {
		oee["performance"] = *s.EfficiencyPct
	}
	if s.ActiveSpindles != nil && *s.ActiveSpindles > 0 {
		total := *s.ActiveSpindles
		if s.TotalSpindles != nil && *s.TotalSpindles > 0 {
			total = *s.TotalSpindles
		}
		availRaw = float64(*s.ActiveSpindles) / float64(total) * 100
		haveAvail = true
		oee["availability"] = round2(availRaw)
	}
	if s.EfficiencyPct != nil && haveAvail {
		// oee_simple uses the unrounded availability; rounding first
		// shifts the product by a visible hundredth.
		oee["oee_simple"] = round2(availRaw * *s.EfficiencyPct / 10000 * 100)
	}
	if len(oee) > 0 {
		b.OEE = oee
	}

	brk := 0
	if s.BreakageCount != nil {
		brk = *s.BreakageCount
	}
	spindles := 0
	if s.ActiveSpindles != nil {
		spindles = *s.ActiveSpindles
	}
	b.QualityMetrics = map[string]float64{
		"breakage_count":               float64(brk),
		"breakage_per_1000_spindle_hr": round1(float64(brk) / math.Max(float64(spindles), 1) * 1000),
	}

	if s.EfficiencyPct != nil && *s.EfficiencyPct < lowEfficiencyPct {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagLowEfficiency)
	}
	if brk > highBreakageCount {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagHighBreakage)
	}
	if v, ok := oee["oee_simple"]; ok && v < lowOEESimple {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagLowOEE)
	}
	return b
}

func computeDyeing(s Snapshot, now time.Time) Bundle {
	b := base(now)
	params := map[string]float64{}
	if s.Temperature != nil {
		params["temperature"] = *s.Temperature
	}
	if s.PH != nil {
		params["ph"] = *s.PH
	}
	if s.LiquorRatio != nil {
		params["liquor_ratio"] = *s.LiquorRatio
	}
	if s.DurationMin != nil {
		params["duration_min"] = float64(*s.DurationMin)
	}
	if len(params) > 0 {
		b.ProcessParams = params
	}

	if s.QualityResult == "fail" {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagQualityFail)
	}
	if s.Temperature != nil && *s.Temperature > highTemperatureC {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagHighTemperature)
	}
	if s.PH != nil && (*s.PH < extremePHLow || *s.PH > extremePHHigh) {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagExtremePH)
	}
	return b
}

// Rolling30d is the trailing-window downtime aggregate for one machine,
// resolved by the caller against storage.
type Rolling30d struct {
	Count    int
	TotalMin int
}

// ComputeDowntimeHealth derives the machine-health bundle for a downtime
// record from its machine's rolling 30-day aggregate.
func ComputeDowntimeHealth(r Rolling30d, now time.Time) Bundle {
	b := base(now)
	b.MachineHealth = map[string]float64{
		"downtime_count_30d":     float64(r.Count),
		"downtime_total_min_30d": float64(r.TotalMin),
	}
	if r.Count > frequentDowntime30d {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagFrequentDowntime)
	}
	if r.TotalMin > excessiveDowntimeMins {
		b.AnomalyFlags = append(b.AnomalyFlags, FlagExcessiveDowntime)
	}
	return b
}
