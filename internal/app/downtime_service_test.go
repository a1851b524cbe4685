package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/weft/internal/apperr"
	"github.com/example/weft/internal/core/downtime"
	"github.com/example/weft/internal/core/metrics"
	"github.com/example/weft/internal/ports/primary"
	"github.com/example/weft/internal/ports/secondary"
)

// newDowntimeFixture wires a DowntimeService over in-memory mocks with
// RING-01 registered on line PP1.
func newDowntimeFixture() (*DowntimeServiceImpl, *mockDowntimeRepo, *mockMachineRepo) {
	downtimeRepo := newMockDowntimeRepo()
	machineRepo := newMockMachineRepo()

	machineRepo.addLine("line-1", "PP1")
	machineRepo.addShift("shift-a", "line-1", "A")
	machineRepo.addMachine("machine-ring", "line-1", "RING-01", "spinning")

	svc := NewDowntimeService(downtimeRepo, machineRepo)
	return svc, downtimeRepo, machineRepo
}

func TestOpenDowntimeCreatesOpenRecord(t *testing.T) {
	svc, downtimeRepo, _ := newDowntimeFixture()
	ctx := context.Background()

	start := time.Date(2026, 8, 31, 8, 15, 0, 0, time.UTC)
	dt, err := svc.OpenDowntime(ctx, primary.OpenDowntimeRequest{
		MachineCode:    "RING-01",
		ReasonCategory: "mechanical",
		ReasonDetail:   "traveller jam",
		ShiftCode:      "A",
		StartTime:      start,
	})
	if err != nil {
		t.Fatalf("OpenDowntime failed: %v", err)
	}

	if dt.MachineCode != "RING-01" {
		t.Errorf("expected machine code RING-01, got %s", dt.MachineCode)
	}
	if dt.EndTime != "" || dt.DurationMin != nil {
		t.Error("expected an open record without end or duration")
	}
	if dt.ShiftID != "shift-a" {
		t.Errorf("expected shift resolved by code, got %q", dt.ShiftID)
	}

	stored := downtimeRepo.records[dt.ID]
	if stored == nil {
		t.Fatal("expected record stored")
	}
	if stored.LineID != "line-1" {
		t.Errorf("expected line inherited from machine, got %q", stored.LineID)
	}
	if stored.StartTime != start.Format(time.RFC3339) {
		t.Errorf("expected start %s, got %s", start.Format(time.RFC3339), stored.StartTime)
	}
}

func TestOpenDowntimeValidation(t *testing.T) {
	svc, _, _ := newDowntimeFixture()
	ctx := context.Background()

	_, err := svc.OpenDowntime(ctx, primary.OpenDowntimeRequest{
		MachineCode:    "RING-01",
		ReasonCategory: "gremlins",
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown reason, got %v", err)
	}

	_, err = svc.OpenDowntime(ctx, primary.OpenDowntimeRequest{
		MachineCode:    "RING-99",
		ReasonCategory: "mechanical",
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error for unknown machine, got %v", err)
	}

	_, err = svc.OpenDowntime(ctx, primary.OpenDowntimeRequest{
		MachineCode:    "RING-01",
		ReasonCategory: "mechanical",
		ShiftCode:      "Z",
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error for unknown shift, got %v", err)
	}
}

func TestCloseDowntimeDerivesDurationAndHealth(t *testing.T) {
	svc, downtimeRepo, _ := newDowntimeFixture()
	ctx := context.Background()

	start := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	opened, err := svc.OpenDowntime(ctx, primary.OpenDowntimeRequest{
		MachineCode:    "RING-01",
		ReasonCategory: "electrical",
		StartTime:      start,
	})
	if err != nil {
		t.Fatalf("OpenDowntime failed: %v", err)
	}

	closed, err := svc.CloseDowntime(ctx, primary.CloseDowntimeRequest{
		ID:             opened.ID,
		EndTime:        start.Add(45 * time.Minute),
		ProductionLoss: fptr(18.5),
	})
	if err != nil {
		t.Fatalf("CloseDowntime failed: %v", err)
	}

	if closed.DurationMin == nil || *closed.DurationMin != 45 {
		t.Fatalf("expected 45 minute duration, got %v", closed.DurationMin)
	}
	if closed.ProductionLoss == nil || *closed.ProductionLoss != 18.5 {
		t.Errorf("expected production loss 18.5, got %v", closed.ProductionLoss)
	}

	raw, ok := downtimeRepo.metadataBy[opened.ID]
	if !ok {
		t.Fatal("expected machine-health bundle persisted via UpdateMetadata")
	}
	var bundle metrics.Bundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		t.Fatalf("failed to decode bundle: %v", err)
	}
	if bundle.MachineHealth["downtime_count_30d"] != 1 {
		t.Errorf("expected rolling count 1, got %v", bundle.MachineHealth["downtime_count_30d"])
	}
	if bundle.MachineHealth["downtime_total_min_30d"] != 45 {
		t.Errorf("expected rolling minutes 45, got %v", bundle.MachineHealth["downtime_total_min_30d"])
	}
}

func TestCloseDowntimeRejectsBadTransitions(t *testing.T) {
	svc, _, _ := newDowntimeFixture()
	ctx := context.Background()

	start := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	opened, err := svc.OpenDowntime(ctx, primary.OpenDowntimeRequest{
		MachineCode:    "RING-01",
		ReasonCategory: "mechanical",
		StartTime:      start,
	})
	if err != nil {
		t.Fatalf("OpenDowntime failed: %v", err)
	}

	_, err = svc.CloseDowntime(ctx, primary.CloseDowntimeRequest{
		ID:      opened.ID,
		EndTime: start.Add(-10 * time.Minute),
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for end before start, got %v", err)
	}

	if _, err := svc.CloseDowntime(ctx, primary.CloseDowntimeRequest{
		ID:      opened.ID,
		EndTime: start.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("CloseDowntime failed: %v", err)
	}

	_, err = svc.CloseDowntime(ctx, primary.CloseDowntimeRequest{
		ID:      opened.ID,
		EndTime: start.Add(time.Hour),
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for double close, got %v", err)
	}

	_, err = svc.CloseDowntime(ctx, primary.CloseDowntimeRequest{ID: "nope"})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListDowntimeWindowOldestFirst(t *testing.T) {
	svc, downtimeRepo, _ := newDowntimeFixture()
	ctx := context.Background()

	now := time.Now().UTC()
	seed := func(id string, age time.Duration) {
		downtimeRepo.records[id] = &secondary.DowntimeRecord{
			ID:             id,
			MachineID:      "machine-ring",
			StartTime:      now.Add(-age).Format(time.RFC3339),
			ReasonCategory: "mechanical",
		}
	}
	seed("dt-old", 20*24*time.Hour)
	seed("dt-new", 2*24*time.Hour)
	seed("dt-stale", 60*24*time.Hour) // outside the window

	list, err := svc.ListDowntime(ctx, "RING-01", 30)
	if err != nil {
		t.Fatalf("ListDowntime failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records in window, got %d", len(list))
	}
	if list[0].ID != "dt-old" || list[1].ID != "dt-new" {
		t.Errorf("expected oldest first, got [%s %s]", list[0].ID, list[1].ID)
	}
}

func TestAnalyzePatternClassifiesRisk(t *testing.T) {
	svc, downtimeRepo, _ := newDowntimeFixture()
	ctx := context.Background()

	now := time.Now().UTC()
	dur := 60
	for i, id := range []string{"dt-1", "dt-2", "dt-3", "dt-4", "dt-5", "dt-6"} {
		downtimeRepo.records[id] = &secondary.DowntimeRecord{
			ID:             id,
			MachineID:      "machine-ring",
			StartTime:      now.Add(-time.Duration(i+1) * 24 * time.Hour).Format(time.RFC3339),
			DurationMin:    &dur,
			ReasonCategory: "mechanical",
		}
	}

	pattern, err := svc.AnalyzePattern(ctx, "RING-01", 30)
	if err != nil {
		t.Fatalf("AnalyzePattern failed: %v", err)
	}

	if pattern.TotalFailures != 6 {
		t.Errorf("expected 6 failures, got %d", pattern.TotalFailures)
	}
	// 30 days * 24h / 6 failures = 120h MTBF, just past the high band.
	if pattern.MTBFHours != 120 {
		t.Errorf("expected MTBF 120h, got %v", pattern.MTBFHours)
	}
	if pattern.RiskLevel != downtime.RiskMedium {
		t.Errorf("expected medium risk at 120h, got %s", pattern.RiskLevel)
	}
	if pattern.MTTRMinutes != 60 {
		t.Errorf("expected MTTR 60min, got %v", pattern.MTTRMinutes)
	}
	if len(pattern.ByReason) != 1 || pattern.ByReason[0].Count != 6 {
		t.Errorf("unexpected reason breakdown %+v", pattern.ByReason)
	}
}
