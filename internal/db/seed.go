package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/example/weft/internal/core/identifier"
	"github.com/example/weft/internal/core/stage"
	"github.com/example/weft/internal/jalali"
)

// SeedFixtures populates the database with development fixtures: one
// production line with shifts and a machine per stage, a fiber-to-spinning
// batch chain with lineage edges, and a week of downtime history.
func SeedFixtures(database *sql.DB) error {
	gofakeit.Seed(11)

	now := time.Now()
	nowStr := now.Format(time.RFC3339)
	today := now.Format("2006-01-02")
	bucket := jalali.Bucket(now)

	lineID := uuid.NewString()
	if _, err := database.Exec(
		"INSERT INTO production_lines (id, code, name, status, created_at) VALUES (?, ?, ?, 'active', ?)",
		lineID, "PP1", "Spinning Line 1", nowStr,
	); err != nil {
		return fmt.Errorf("seed production_lines: %w", err)
	}

	shiftIDs := map[string]string{}
	shifts := []struct{ code, name string }{
		{"A", "Morning"},
		{"B", "Evening"},
		{"C", "Night"},
	}
	for _, s := range shifts {
		id := uuid.NewString()
		shiftIDs[s.code] = id
		if _, err := database.Exec(
			"INSERT INTO shifts (id, line_id, code, name, created_at) VALUES (?, ?, ?, ?, ?)",
			id, lineID, s.code, s.name, nowStr,
		); err != nil {
			return fmt.Errorf("seed shifts: %w", err)
		}
	}

	machineIDs := map[string]string{}
	machines := []struct{ code, name, machineType string }{
		{"BLOW-01", "Blowroom Line", string(stage.Blowroom)},
		{"CARD-01", "Carding Machine 1", string(stage.Carding)},
		{"CARD-02", "Carding Machine 2", string(stage.Carding)},
		{"PASS-01", "Drawing Frame 1", string(stage.Passage)},
		{"FIN-01", "Finisher Frame", string(stage.Finisher)},
		{"RING-01", "Ring Frame 1", string(stage.Spinning)},
		{"RING-02", "Ring Frame 2", string(stage.Spinning)},
		{"WIND-01", "Winding Machine", string(stage.Winding)},
		{"TFO-01", "TFO Twister", string(stage.TFO)},
		{"HS-01", "Heatset Chamber", string(stage.Heatset)},
		{"DYE-01", "Dyeing Vessel", string(stage.Dyeing)},
	}
	for _, m := range machines {
		id := uuid.NewString()
		machineIDs[m.code] = id
		if _, err := database.Exec(
			"INSERT INTO machines (id, line_id, code, name, machine_type, status, created_at) VALUES (?, ?, ?, ?, ?, 'active', ?)",
			id, lineID, m.code, m.name, m.machineType, nowStr,
		); err != nil {
			return fmt.Errorf("seed machines: %w", err)
		}
	}

	// Batch chain: fiber lot -> blowroom -> carding -> passage -> finisher -> spinning.
	type seedBatch struct {
		id           string
		identifier   string
		stage        stage.Stage
		machineCode  string
		inputWeight  float64
		outputWeight float64
	}

	chain := []seedBatch{
		{stage: stage.Fiber, inputWeight: 520, outputWeight: 520},
		{stage: stage.Blowroom, machineCode: "BLOW-01", inputWeight: 500, outputWeight: 480},
		{stage: stage.Carding, machineCode: "CARD-01", inputWeight: 480, outputWeight: 462},
		{stage: stage.Passage, machineCode: "PASS-01", inputWeight: 462, outputWeight: 455},
		{stage: stage.Finisher, machineCode: "FIN-01", inputWeight: 455, outputWeight: 449},
		{stage: stage.Spinning, machineCode: "RING-01", inputWeight: 449, outputWeight: 430},
	}

	counters := map[string]int{}
	for i := range chain {
		b := &chain[i]
		b.id = uuid.NewString()

		prefix := stage.Prefix(b.stage)
		if b.stage == stage.Fiber {
			prefix = stage.FiberPrefix("PES")
		}
		counters[prefix]++
		b.identifier = identifier.Format(prefix, bucket, counters[prefix])

		var machineID, shiftID interface{}
		if b.machineCode != "" {
			machineID = machineIDs[b.machineCode]
			shiftID = shiftIDs["A"]
		}
		passNumber := 0
		if b.stage == stage.Passage {
			passNumber = 1
		}
		waste := b.inputWeight - b.outputWeight

		if _, err := database.Exec(`
			INSERT INTO batches (
				id, identifier, stage, pass_number, line_id, machine_id, operator_id, shift_id,
				production_date, status, input_weight, output_weight, waste_weight, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'completed', ?, ?, ?, ?)`,
			b.id, b.identifier, string(b.stage), passNumber, lineID, machineID, gofakeit.Name(), shiftID,
			today, b.inputWeight, b.outputWeight, waste, nowStr,
		); err != nil {
			return fmt.Errorf("seed batches: %w", err)
		}

		if i > 0 {
			prev := chain[i-1]
			weightUsed := b.inputWeight
			if _, err := database.Exec(`
				INSERT INTO lineage_edges (
					id, downstream_batch_id, input_position, source_stage,
					source_batch_id, source_identifier, weight_used, created_at
				) VALUES (?, ?, 1, ?, ?, ?, ?, ?)`,
				uuid.NewString(), b.id, string(prev.stage), prev.id, prev.identifier, weightUsed, nowStr,
			); err != nil {
				return fmt.Errorf("seed lineage_edges: %w", err)
			}
		}
	}

	// Counters must cover the seeded identifiers or the next allocation
	// would collide.
	for prefix, lastSeq := range counters {
		if _, err := database.Exec(
			"INSERT INTO batch_counters (prefix, bucket, last_seq) VALUES (?, ?, ?)",
			prefix, bucket, lastSeq,
		); err != nil {
			return fmt.Errorf("seed batch_counters: %w", err)
		}
	}

	// A week of closed stoppages on RING-01 plus one still open.
	reasons := []string{"mechanical", "electrical", "material", "operator", "planned"}
	for i, reason := range reasons {
		start := now.AddDate(0, 0, -(i + 1)).Add(-3 * time.Hour)
		duration := gofakeit.Number(15, 120)
		end := start.Add(time.Duration(duration) * time.Minute)
		if _, err := database.Exec(`
			INSERT INTO downtime_logs (
				id, line_id, machine_id, shift_id, start_time, end_time,
				duration_min, reason_category, reason_detail, production_loss, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), lineID, machineIDs["RING-01"], shiftIDs["B"],
			start.Format(time.RFC3339), end.Format(time.RFC3339),
			duration, reason, gofakeit.Sentence(4), gofakeit.Float64Range(5, 40), nowStr,
		); err != nil {
			return fmt.Errorf("seed downtime_logs: %w", err)
		}
	}
	if _, err := database.Exec(`
		INSERT INTO downtime_logs (
			id, line_id, machine_id, shift_id, start_time, reason_category, reason_detail, created_at
		) VALUES (?, ?, ?, ?, ?, 'mechanical', ?, ?)`,
		uuid.NewString(), lineID, machineIDs["TFO-01"], shiftIDs["A"],
		now.Add(-40*time.Minute).Format(time.RFC3339), "spindle belt slip", nowStr,
	); err != nil {
		return fmt.Errorf("seed open downtime: %w", err)
	}

	return nil
}
