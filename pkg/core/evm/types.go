// Package evm provides deterministic earned-value-management calculations.
// All functions are pure and stateless; snapshot state lives in the row store.
package evm

import "time"

// MetricInput holds the four scalar inputs every EVM formula derives from.
// Values are non-negative by convention but no cross-field validation is
// performed: bad project data degrades to zero/fallback outputs, it never
// raises.
type MetricInput struct {
	PlannedValue float64 `json:"pv"`
	EarnedValue  float64 `json:"ev"`
	ActualCost   float64 `json:"ac"`
	BudgetAtCompletion float64 `json:"bac"`
}

// Metrics is the full derived metric set for one reporting period.
// CV/SV/EAC/ETC/VAC are rounded to 2 decimals, the performance indices
// (CPI/SPI/TCPI) to 4.
type Metrics struct {
	PlannedValue       float64 `json:"pv"`
	EarnedValue        float64 `json:"ev"`
	ActualCost         float64 `json:"ac"`
	BudgetAtCompletion float64 `json:"bac"`

	CostVariance     float64 `json:"cv"`
	ScheduleVariance float64 `json:"sv"`
	CPI              float64 `json:"cpi"`
	SPI              float64 `json:"spi"`
	EAC              float64 `json:"eac"`
	ETC              float64 `json:"etc"`
	VAC              float64 `json:"vac"`
	TCPI             float64 `json:"tcpi"`
}

// Policy configures the degenerate-case conventions that PMBOK
// practitioners disagree on. DefaultPolicy preserves the house rules:
// EAC falls back to BAC + |CV| when cost performance collapses, and TCPI
// reports 0 once actuals meet or exceed BAC.
type Policy struct {
	// EACFallback computes EAC when CPI <= 0. Input is (bac, cv).
	EACFallback func(bac, cv float64) float64
	// TCPIFallback computes TCPI when BAC - AC <= 0. Input is (bac, ev, ac).
	TCPIFallback func(bac, ev, ac float64) float64
}

// DefaultPolicy returns the standard fallback conventions.
func DefaultPolicy() Policy {
	return Policy{
		EACFallback:  func(bac, cv float64) float64 { return bac + abs(cv) },
		TCPIFallback: func(bac, ev, ac float64) float64 { return 0 },
	}
}

// Snapshot is one appended row of the per-program EVM time series.
// Series order is append order; rows are never re-sorted by date.
type Snapshot struct {
	ID           string    `json:"id"`
	ProgramID    string    `json:"programId"`
	SnapshotDate time.Time `json:"snapshotDate"`
	Metrics      Metrics   `json:"metrics"`
}

// Point is a 2D sample for regression.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Regression is an ordinary-least-squares fit result.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// HealthIndex is the advisory project-health score derived from Metrics.
type HealthIndex struct {
	Score      float64  `json:"score"` // 0..100
	Status     string   `json:"status"`
	Indicators []string `json:"indicators"`
}

// TrendAnalysis classifies CPI and SPI movement over a snapshot series.
type TrendAnalysis struct {
	CPITrend      string    `json:"cpiTrend"`
	SPITrend      string    `json:"spiTrend"`
	CPIRegression Regression `json:"cpiRegression"`
	SPIRegression Regression `json:"spiRegression"`
	CPIVolatility float64   `json:"cpiVolatility"`
	SPIVolatility float64   `json:"spiVolatility"`
	CPIMovingAvg  []float64 `json:"cpiMovingAvg"`
	SPIMovingAvg  []float64 `json:"spiMovingAvg"`
	SampleCount   int       `json:"sampleCount"`
}

// Anomaly flags one snapshot whose metric deviates beyond the z-score
// threshold.
type Anomaly struct {
	SnapshotID   string    `json:"snapshotId"`
	SnapshotDate time.Time `json:"snapshotDate"`
	Metric       string    `json:"metric"`
	Value        float64   `json:"value"`
	ZScore       float64   `json:"zScore"`
	Deviation    string    `json:"deviation"` // "high" | "low"
}

// BaselineComparison reports per-metric drift of current against a
// baseline period.
type BaselineComparison struct {
	Metric          string  `json:"metric"`
	Baseline        float64 `json:"baseline"`
	Current         float64 `json:"current"`
	Delta           float64 `json:"delta"`
	DeltaPercent    float64 `json:"deltaPercent"`
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
