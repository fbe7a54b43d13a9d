package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pmo_suite/pkg/core/evmreport"
)

// ReportRepo persists generated EVM reports as JSONB rows.
//
// Schema assumption (managed outside this codebase):
//
//	CREATE TABLE IF NOT EXISTS evm_reports (
//	  program_id TEXT NOT NULL,
//	  snapshot_date DATE NOT NULL,
//	  report_json JSONB,
//	  updated_at TIMESTAMPTZ,
//	  PRIMARY KEY (program_id, snapshot_date)
//	);
type ReportRepo struct{}

// NewReportRepo creates a repository instance.
func NewReportRepo() *ReportRepo {
	return &ReportRepo{}
}

var _ evmreport.Archiver = (*ReportRepo)(nil)

// SaveReport upserts the report keyed by (program, snapshot date).
func (r *ReportRepo) SaveReport(ctx context.Context, programID string, snapshotDate time.Time, report evmreport.Report) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	query := `
		INSERT INTO evm_reports (program_id, snapshot_date, report_json, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (program_id, snapshot_date)
		DO UPDATE SET
			report_json = EXCLUDED.report_json,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := pool.Exec(ctx, query, programID, snapshotDate, jsonData, time.Now()); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// LoadReport retrieves one archived report.
func (r *ReportRepo) LoadReport(ctx context.Context, programID string, snapshotDate time.Time) (evmreport.Report, error) {
	pool := GetPool()
	if pool == nil {
		return evmreport.Report{}, fmt.Errorf("database pool not initialized")
	}
	var jsonData []byte
	query := `SELECT report_json FROM evm_reports WHERE program_id = $1 AND snapshot_date = $2`
	if err := pool.QueryRow(ctx, query, programID, snapshotDate).Scan(&jsonData); err != nil {
		return evmreport.Report{}, fmt.Errorf("failed to load report: %w", err)
	}
	var report evmreport.Report
	if err := json.Unmarshal(jsonData, &report); err != nil {
		return evmreport.Report{}, fmt.Errorf("failed to decode report: %w", err)
	}
	return report, nil
}
