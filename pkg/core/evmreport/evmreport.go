// Package evmreport maintains the append-only EVM snapshot series per
// program and produces the periodic performance report. Series order is
// append position; rows are never re-sorted by their date cell.
package evmreport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pmo_suite/pkg/core/evm"
	"pmo_suite/pkg/core/rowstore"
)

// Schema is the single descriptor for the EVMSnapshots sheet.
var Schema = rowstore.Schema{
	Sheet:    "EVMSnapshots",
	IDPrefix: "EVM",
	Fields: []rowstore.Field{
		{Name: "id", Col: 0, Kind: rowstore.KindString},
		{Name: "programId", Col: 1, Kind: rowstore.KindString},
		{Name: "snapshotDate", Col: 2, Kind: rowstore.KindTime},
		{Name: "pv", Col: 3, Kind: rowstore.KindFloat},
		{Name: "ev", Col: 4, Kind: rowstore.KindFloat},
		{Name: "ac", Col: 5, Kind: rowstore.KindFloat},
		{Name: "bac", Col: 6, Kind: rowstore.KindFloat},
		{Name: "cv", Col: 7, Kind: rowstore.KindFloat},
		{Name: "sv", Col: 8, Kind: rowstore.KindFloat},
		{Name: "cpi", Col: 9, Kind: rowstore.KindFloat},
		{Name: "spi", Col: 10, Kind: rowstore.KindFloat},
		{Name: "eac", Col: 11, Kind: rowstore.KindFloat},
		{Name: "etc", Col: 12, Kind: rowstore.KindFloat},
		{Name: "vac", Col: 13, Kind: rowstore.KindFloat},
		{Name: "tcpi", Col: 14, Kind: rowstore.KindFloat},
		{Name: "healthScore", Col: 15, Kind: rowstore.KindFloat},
		{Name: "healthStatus", Col: 16, Kind: rowstore.KindString},
	},
}

// Archiver mirrors a generated report into long-term storage. The
// production implementation is the Postgres repo; nil disables archiving.
type Archiver interface {
	SaveReport(ctx context.Context, programID string, snapshotDate time.Time, report Report) error
}

// Report is the structured output of one reporting run.
type Report struct {
	ProgramID string            `json:"programId"`
	Generated time.Time         `json:"generated"`
	Latest    evm.Metrics       `json:"latest"`
	Health    evm.HealthIndex   `json:"health"`
	Trends    evm.TrendAnalysis `json:"trends"`
	Anomalies []evm.Anomaly     `json:"anomalies"`
	Markdown  string            `json:"markdown"`
}

// Service exposes snapshot recording and reporting.
type Service struct {
	store    rowstore.Store
	policy   evm.Policy
	archiver Archiver
}

// NewService creates the snapshot service. archiver may be nil.
func NewService(store rowstore.Store, policy evm.Policy, archiver Archiver) *Service {
	return &Service{store: store, policy: policy, archiver: archiver}
}

// RecordSnapshot computes the full metric set for one period and appends
// it to the program's series.
func (s *Service) RecordSnapshot(ctx context.Context, programID string, date time.Time, in evm.MetricInput) (evm.Snapshot, error) {
	if programID == "" {
		return evm.Snapshot{}, fmt.Errorf("program id is required")
	}
	if in.PlannedValue < 0 || in.EarnedValue < 0 || in.ActualCost < 0 || in.BudgetAtCompletion < 0 {
		return evm.Snapshot{}, fmt.Errorf("metric inputs cannot be negative")
	}
	m := evm.CalculateMetrics(in, s.policy)
	health := evm.CalculateHealthIndex(m)

	id, err := s.store.GenerateNextID(ctx, Schema)
	if err != nil {
		return evm.Snapshot{}, fmt.Errorf("failed to record snapshot: %w", err)
	}
	rec := rowstore.Record{
		"id":           id,
		"programId":    programID,
		"snapshotDate": date,
		"pv":           m.PlannedValue,
		"ev":           m.EarnedValue,
		"ac":           m.ActualCost,
		"bac":          m.BudgetAtCompletion,
		"cv":           m.CostVariance,
		"sv":           m.ScheduleVariance,
		"cpi":          m.CPI,
		"spi":          m.SPI,
		"eac":          m.EAC,
		"etc":          m.ETC,
		"vac":          m.VAC,
		"tcpi":         m.TCPI,
		"healthScore":  health.Score,
		"healthStatus": health.Status,
	}
	if err := s.store.Append(ctx, Schema, rec); err != nil {
		return evm.Snapshot{}, fmt.Errorf("failed to record snapshot: %w", err)
	}
	return evm.Snapshot{ID: id, ProgramID: programID, SnapshotDate: date, Metrics: m}, nil
}

// History returns the program's snapshot series in append order.
func (s *Service) History(ctx context.Context, programID string) ([]evm.Snapshot, error) {
	rows, err := s.store.ReadRows(ctx, Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot history: %w", err)
	}
	out := []evm.Snapshot{}
	for _, row := range rows {
		rec, err := rowstore.Decode(row.Values, Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot history: %w", err)
		}
		if rec.String("programId") != programID {
			continue
		}
		out = append(out, evm.Snapshot{
			ID:           rec.String("id"),
			ProgramID:    programID,
			SnapshotDate: rec.Time("snapshotDate"),
			Metrics: evm.Metrics{
				PlannedValue:       rec.Float("pv"),
				EarnedValue:        rec.Float("ev"),
				ActualCost:         rec.Float("ac"),
				BudgetAtCompletion: rec.Float("bac"),
				CostVariance:       rec.Float("cv"),
				ScheduleVariance:   rec.Float("sv"),
				CPI:                rec.Float("cpi"),
				SPI:                rec.Float("spi"),
				EAC:                rec.Float("eac"),
				ETC:                rec.Float("etc"),
				VAC:                rec.Float("vac"),
				TCPI:               rec.Float("tcpi"),
			},
		})
	}
	return out, nil
}

// GenerateReport builds the full performance report for a program from
// its snapshot series and archives it when an archiver is configured.
func (s *Service) GenerateReport(ctx context.Context, programID string, now time.Time) (Report, error) {
	history, err := s.History(ctx, programID)
	if err != nil {
		return Report{}, err
	}
	if len(history) == 0 {
		return Report{}, fmt.Errorf("program %s: %w", programID, rowstore.ErrNotFound)
	}
	latest := history[len(history)-1]
	health := evm.CalculateHealthIndex(latest.Metrics)
	trends := evm.AnalyzeTrends(history)
	anomalies := evm.DetectAnomalies(history, "cpi", evm.DefaultAnomalyThreshold)

	report := Report{
		ProgramID: programID,
		Generated: now,
		Latest:    latest.Metrics,
		Health:    health,
		Trends:    trends,
		Anomalies: anomalies,
	}
	report.Markdown = renderMarkdown(report)

	if s.archiver != nil {
		if err := s.archiver.SaveReport(ctx, programID, latest.SnapshotDate, report); err != nil {
			// Archiving is best-effort; the report itself is still good.
			fmt.Printf("[EVM] Failed to archive report for %s: %v\n", programID, err)
		}
	}
	return report, nil
}

func renderMarkdown(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# EVM Report: %s\n\n", r.ProgramID)
	fmt.Fprintf(&b, "Generated %s\n\n", r.Generated.Format("2006-01-02"))
	fmt.Fprintf(&b, "## Performance\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| CPI | %.4f |\n", r.Latest.CPI)
	fmt.Fprintf(&b, "| SPI | %.4f |\n", r.Latest.SPI)
	fmt.Fprintf(&b, "| CV | %.2f |\n", r.Latest.CostVariance)
	fmt.Fprintf(&b, "| SV | %.2f |\n", r.Latest.ScheduleVariance)
	fmt.Fprintf(&b, "| EAC | %.2f |\n", r.Latest.EAC)
	fmt.Fprintf(&b, "| VAC | %.2f |\n", r.Latest.VAC)
	fmt.Fprintf(&b, "| TCPI | %.4f |\n\n", r.Latest.TCPI)
	fmt.Fprintf(&b, "## Health: %s (%.0f)\n\n", r.Health.Status, r.Health.Score)
	for _, ind := range r.Health.Indicators {
		fmt.Fprintf(&b, "- %s\n", ind)
	}
	fmt.Fprintf(&b, "\n## Trends\n\nCPI: %s, SPI: %s over %d periods\n", r.Trends.CPITrend, r.Trends.SPITrend, r.Trends.SampleCount)
	if len(r.Anomalies) > 0 {
		fmt.Fprintf(&b, "\n## Anomalies\n\n")
		for _, a := range r.Anomalies {
			fmt.Fprintf(&b, "- %s %s %s: %.4f (z=%.2f)\n", a.SnapshotDate.Format("2006-01-02"), a.Metric, a.Deviation, a.Value, a.ZScore)
		}
	}
	return b.String()
}
