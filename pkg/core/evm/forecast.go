// This file implements the forecasting layer: cost projection, completion
// dates, and cash runway from burn-rate history.
package evm

import (
	"fmt"
	"math"
	"time"
)

// Forecast confidence tiers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// burnTrailingPeriods is how many completed periods the burn-rate average
// looks back over.
const burnTrailingPeriods = 3

// CashFlow is one period's cash movement for a program.
type CashFlow struct {
	PeriodStart time.Time `json:"periodStart"`
	Inflow      float64   `json:"inflow"`
	Outflow     float64   `json:"outflow"`
	Status      string    `json:"status"` // "completed" | "projected"
}

// Runway is the cash-depletion projection. MonthsRemaining is +Inf and
// DepletionDate nil when the program is cash-positive: running out of
// money is not an error condition, it just never happens.
type Runway struct {
	AverageMonthlyBurn float64    `json:"averageMonthlyBurn"`
	MonthsRemaining    float64    `json:"monthsRemaining"`
	DepletionDate      *time.Time `json:"depletionDate"`
}

// CostForecast projects final cost from current performance.
type CostForecast struct {
	TargetDate   time.Time `json:"targetDate"`
	ProjectedEAC float64   `json:"projectedEac"`
	ProjectedETC float64   `json:"projectedEtc"`
	Confidence   string    `json:"confidence"`
}

// CompletionForecast projects when remaining budgeted work finishes at
// the observed earning pace.
type CompletionForecast struct {
	PeriodsRemaining float64    `json:"periodsRemaining"`
	ProjectedDate    *time.Time `json:"projectedDate"`
	Confidence       string     `json:"confidence"`
}

// CashBurnRate averages net outflow (outflow - inflow) over the trailing
// 3 completed periods. Projected periods never count; fewer than 3
// completed periods averages what exists; none at all reports 0.
func CashBurnRate(flows []CashFlow) float64 {
	completed := make([]CashFlow, 0, len(flows))
	for _, f := range flows {
		if f.Status == "completed" {
			completed = append(completed, f)
		}
	}
	if len(completed) == 0 {
		return 0
	}
	start := len(completed) - burnTrailingPeriods
	if start < 0 {
		start = 0
	}
	trailing := completed[start:]
	var sum float64
	for _, f := range trailing {
		sum += f.Outflow - f.Inflow
	}
	return sum / float64(len(trailing))
}

// CashRunway projects how long currentBalance lasts at the trailing burn
// rate, anchored at now.
func CashRunway(currentBalance float64, flows []CashFlow, now time.Time) Runway {
	burn := CashBurnRate(flows)
	if burn <= 0 {
		return Runway{AverageMonthlyBurn: burn, MonthsRemaining: math.Inf(1), DepletionDate: nil}
	}
	months := currentBalance / burn
	depletion := now.AddDate(0, 0, int(months*30))
	return Runway{
		AverageMonthlyBurn: burn,
		MonthsRemaining:    round2(months),
		DepletionDate:      &depletion,
	}
}

// ForecastConfidence grades a projection by horizon length and data
// quality. A horizon past ~1 year is always low confidence no matter how
// clean the flow history is.
func ForecastConfidence(horizon time.Duration, flows []CashFlow) string {
	if horizon > 365*24*time.Hour {
		return ConfidenceLow
	}
	completed := 0
	for _, f := range flows {
		if f.Status == "completed" {
			completed++
		}
	}
	mostlyCompleted := len(flows) > 0 && completed*2 > len(flows)
	if horizon < 30*24*time.Hour {
		if mostlyCompleted {
			return ConfidenceHigh
		}
		return ConfidenceMedium
	}
	if mostlyCompleted {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// ForecastCost projects EAC/ETC as of a future target date. A target in
// the past is a caller error, not degradable data.
func ForecastCost(m Metrics, flows []CashFlow, targetDate, now time.Time) (CostForecast, error) {
	if targetDate.Before(now) {
		return CostForecast{}, fmt.Errorf("forecast target date %s is in the past", targetDate.Format("2006-01-02"))
	}
	return CostForecast{
		TargetDate:   targetDate,
		ProjectedEAC: m.EAC,
		ProjectedETC: m.ETC,
		Confidence:   ForecastConfidence(targetDate.Sub(now), flows),
	}, nil
}

// ForecastCompletion projects the finish date from the average earned
// value per period across the snapshot series. A flat or regressing EV
// series gives no projected date.
func ForecastCompletion(snapshots []Snapshot, now time.Time) CompletionForecast {
	if len(snapshots) < 2 {
		return CompletionForecast{Confidence: ConfidenceLow}
	}
	last := snapshots[len(snapshots)-1]
	earnedSpan := last.Metrics.EarnedValue - snapshots[0].Metrics.EarnedValue
	perPeriod := earnedSpan / float64(len(snapshots)-1)
	remaining := last.Metrics.BudgetAtCompletion - last.Metrics.EarnedValue
	if perPeriod <= 0 || remaining <= 0 {
		return CompletionForecast{Confidence: ConfidenceLow}
	}
	periods := remaining / perPeriod
	projected := now.AddDate(0, 0, int(periods*30))
	horizon := projected.Sub(now)
	return CompletionForecast{
		PeriodsRemaining: round2(periods),
		ProjectedDate:    &projected,
		Confidence:       ForecastConfidence(horizon, nil),
	}
}
