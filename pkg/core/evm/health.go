// This file implements the advisory health-index scorer.
package evm

import "fmt"

// Health status values.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// CalculateHealthIndex scores one period's metrics on a 0..100 scale by
// subtracting fixed penalties per threshold breach, then maps the score
// plus the raw indices to a status. The indicator list is advisory text;
// the overall status message is always the first entry.
//
// Penalties (from 100):
//
//	CPI  < 0.85 -> -30, else < 0.95 -> -15
//	SPI  < 0.85 -> -30, else < 0.95 -> -15
//	TCPI > 1.15 -> -20, else > 1.05 -> -10
//	VAC  < 0 and |CV%| > 10 -> -20, else |CV%| > 5 -> -10
func CalculateHealthIndex(m Metrics) HealthIndex {
	score := 100.0
	var indicators []string

	switch {
	case m.CPI < 0.85:
		score -= 30
		indicators = append(indicators, fmt.Sprintf("Cost performance is critical (CPI %.4f)", m.CPI))
	case m.CPI < 0.95:
		score -= 15
		indicators = append(indicators, fmt.Sprintf("Cost performance is below plan (CPI %.4f)", m.CPI))
	}

	switch {
	case m.SPI < 0.85:
		score -= 30
		indicators = append(indicators, fmt.Sprintf("Schedule performance is critical (SPI %.4f)", m.SPI))
	case m.SPI < 0.95:
		score -= 15
		indicators = append(indicators, fmt.Sprintf("Schedule performance is below plan (SPI %.4f)", m.SPI))
	}

	switch {
	case m.TCPI > 1.15:
		score -= 20
		indicators = append(indicators, fmt.Sprintf("Required efficiency to finish on budget is unrealistic (TCPI %.4f)", m.TCPI))
	case m.TCPI > 1.05:
		score -= 10
		indicators = append(indicators, fmt.Sprintf("Required efficiency to finish on budget is elevated (TCPI %.4f)", m.TCPI))
	}

	if m.VAC < 0 {
		cvPct := abs(CostVariancePercent(m))
		switch {
		case cvPct > 10:
			score -= 20
			indicators = append(indicators, fmt.Sprintf("Projected budget overrun with large cost variance (%.2f%%)", cvPct))
		case cvPct > 5:
			score -= 10
			indicators = append(indicators, fmt.Sprintf("Projected budget overrun with moderate cost variance (%.2f%%)", cvPct))
		}
	}

	if score < 0 {
		score = 0
	}

	var status string
	switch {
	case score >= 70 && m.CPI >= 0.95 && m.SPI >= 0.95:
		status = StatusHealthy
	case score >= 50 || (m.CPI >= 0.85 && m.SPI >= 0.85):
		status = StatusWarning
	default:
		status = StatusCritical
	}

	// Overall message always leads the list.
	overall := fmt.Sprintf("Project health is %s (score %.0f)", status, score)
	indicators = append([]string{overall}, indicators...)

	return HealthIndex{Score: score, Status: status, Indicators: indicators}
}
