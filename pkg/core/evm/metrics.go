// This file implements the core EVM metric formulas.
package evm

import "math"

// =============================================================================
// EVM METRIC CALCULATOR
// Inputs: PV, EV, AC, BAC. All divide-by-zero cases degrade to a zero
// sentinel or a policy fallback; nothing in this file returns an error.
// =============================================================================

// CalculateMetrics derives the full EVM metric set from one period's scalars.
//
// FORMULAS:
//
//	CV   = EV - AC
//	SV   = EV - PV
//	CPI  = EV / AC            (0 when AC  = 0)
//	SPI  = EV / PV            (0 when PV  = 0)
//	EAC  = BAC / CPI          (policy fallback when CPI <= 0)
//	ETC  = EAC - AC
//	VAC  = BAC - EAC
//	TCPI = (BAC-EV)/(BAC-AC)  (policy fallback when BAC-AC <= 0)
func CalculateMetrics(in MetricInput, pol Policy) Metrics {
	pv, ev, ac, bac := in.PlannedValue, in.EarnedValue, in.ActualCost, in.BudgetAtCompletion

	cv := ev - ac
	sv := ev - pv

	cpi := safeDiv(ev, ac)
	spi := safeDiv(ev, pv)

	var eac float64
	if cpi > 0 {
		eac = bac / cpi
	} else {
		eac = pol.EACFallback(bac, cv)
	}

	etc := eac - ac
	vac := bac - eac

	var tcpi float64
	if bac-ac > 0 {
		tcpi = (bac - ev) / (bac - ac)
	} else {
		tcpi = pol.TCPIFallback(bac, ev, ac)
	}

	return Metrics{
		PlannedValue:       pv,
		EarnedValue:        ev,
		ActualCost:         ac,
		BudgetAtCompletion: bac,
		CostVariance:       round2(cv),
		ScheduleVariance:   round2(sv),
		CPI:                round4(cpi),
		SPI:                round4(spi),
		EAC:                round2(eac),
		ETC:                round2(etc),
		VAC:                round2(vac),
		TCPI:               round4(tcpi),
	}
}

// CostVariancePercent expresses CV relative to EV, as a percentage.
// Returns 0 when EV is 0.
func CostVariancePercent(m Metrics) float64 {
	return round2(safeDiv(m.CostVariance, m.EarnedValue) * 100)
}

// safeDiv returns numerator/denominator, or 0 when the denominator is 0.
// Zero is a deliberate sentinel here, not an error: bad project data must
// never crash a report.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
