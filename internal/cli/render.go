package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/example/weft/internal/core/downtime"
	"github.com/example/weft/internal/core/metrics"
)

// printAnomalies renders a bundle's anomaly flags in yellow, one line,
// or nothing when the bundle is clean.
func printAnomalies(b *metrics.Bundle) {
	if b == nil || len(b.AnomalyFlags) == 0 {
		return
	}
	fmt.Printf("  %s %s\n",
		color.New(color.FgYellow).Sprint("⚠"),
		strings.Join(b.AnomalyFlags, ", "))
}

// flagSummary compresses anomaly flags for table cells.
func flagSummary(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	if len(flags) == 1 {
		return flags[0]
	}
	return fmt.Sprintf("%s +%d", flags[0], len(flags)-1)
}

// riskCell renders a risk level with its severity color.
func riskCell(r downtime.Risk) string {
	switch r {
	case downtime.RiskCritical:
		return color.New(color.FgRed).Sprint("CRITICAL")
	case downtime.RiskHigh:
		return color.New(color.FgHiYellow).Sprint("HIGH")
	case downtime.RiskMedium:
		return color.New(color.FgYellow).Sprint("MEDIUM")
	case downtime.RiskLow:
		return color.New(color.FgHiGreen).Sprint("LOW")
	}
	return string(r)
}
