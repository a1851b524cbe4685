// Package app contains the application services that implement the primary
// ports. Services validate, orchestrate repositories, and keep derived
// metadata in sync through the explicit two-phase compute-then-persist path.
package app

import (
	"encoding/json"

	"github.com/example/weft/internal/core/metrics"
	"github.com/example/weft/internal/core/stage"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// recordToBatch converts a storage record to the port representation,
// decoding the metadata bundle when present.
func recordToBatch(record *secondary.BatchRecord) *primary.Batch {
	b := &primary.Batch{
		ID:             record.ID,
		Identifier:     record.Identifier,
		Stage:          record.Stage,
		PassNumber:     record.PassNumber,
		LineID:         record.LineID,
		MachineID:      record.MachineID,
		OperatorID:     record.OperatorID,
		ShiftID:        record.ShiftID,
		OrderID:        record.OrderID,
		ProductionDate: record.ProductionDate,
		Status:         record.Status,
		StartedAt:      record.StartedAt,
		CompletedAt:    record.CompletedAt,
		InputWeight:    record.InputWeight,
		OutputWeight:   record.OutputWeight,
		WasteWeight:    record.WasteWeight,
		NepsCount:      record.NepsCount,
		EvennessCV:     record.EvennessCV,
		DraftRatio:     record.DraftRatio,
		TwistTPM:       record.TwistTPM,
		EfficiencyPct:  record.EfficiencyPct,
		ActiveSpindles: record.ActiveSpindles,
		TotalSpindles:  record.TotalSpindles,
		BreakageCount:  record.BreakageCount,
		Temperature:    record.Temperature,
		PH:             record.PH,
		LiquorRatio:    record.LiquorRatio,
		DurationMin:    record.DurationMin,
		QualityResult:  record.QualityResult,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}

	if record.Metadata != "" {
		var bundle metrics.Bundle
		if err := json.Unmarshal([]byte(record.Metadata), &bundle); err == nil {
			b.Metadata = &bundle
		}
	}

	return b
}

// snapshotFromRecord builds the calculator input from a stored batch.
func snapshotFromRecord(record *secondary.BatchRecord) metrics.Snapshot {
	return metrics.Snapshot{
		Stage:          stage.Stage(record.Stage),
		InputWeight:    record.InputWeight,
		OutputWeight:   record.OutputWeight,
		WasteWeight:    record.WasteWeight,
		NepsCount:      record.NepsCount,
		EvennessCV:     record.EvennessCV,
		DraftRatio:     record.DraftRatio,
		EfficiencyPct:  record.EfficiencyPct,
		ActiveSpindles: record.ActiveSpindles,
		TotalSpindles:  record.TotalSpindles,
		BreakageCount:  record.BreakageCount,
		Temperature:    record.Temperature,
		PH:             record.PH,
		LiquorRatio:    record.LiquorRatio,
		DurationMin:    record.DurationMin,
		QualityResult:  record.QualityResult,
	}
}

// applyMeasurements copies the non-nil fields of an update request onto a
// record. Nil request fields leave the stored value alone.
func applyMeasurements(record *secondary.BatchRecord, req primary.UpdateBatchRequest) {
	if req.InputWeight != nil {
		record.InputWeight = req.InputWeight
	}
	if req.OutputWeight != nil {
		record.OutputWeight = req.OutputWeight
	}
	if req.WasteWeight != nil {
		record.WasteWeight = req.WasteWeight
	}
	if req.NepsCount != nil {
		record.NepsCount = req.NepsCount
	}
	if req.EvennessCV != nil {
		record.EvennessCV = req.EvennessCV
	}
	if req.DraftRatio != nil {
		record.DraftRatio = req.DraftRatio
	}
	if req.TwistTPM != nil {
		record.TwistTPM = req.TwistTPM
	}
	if req.EfficiencyPct != nil {
		record.EfficiencyPct = req.EfficiencyPct
	}
	if req.ActiveSpindles != nil {
		record.ActiveSpindles = req.ActiveSpindles
	}
	if req.TotalSpindles != nil {
		record.TotalSpindles = req.TotalSpindles
	}
	if req.BreakageCount != nil {
		record.BreakageCount = req.BreakageCount
	}
	if req.Temperature != nil {
		record.Temperature = req.Temperature
	}
	if req.PH != nil {
		record.PH = req.PH
	}
	if req.LiquorRatio != nil {
		record.LiquorRatio = req.LiquorRatio
	}
	if req.DurationMin != nil {
		record.DurationMin = req.DurationMin
	}
	if req.QualityResult != "" {
		record.QualityResult = req.QualityResult
	}
}
