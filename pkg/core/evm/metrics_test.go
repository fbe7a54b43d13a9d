package evm

import (
	"math"
	"testing"
)

func TestCalculateMetricsOnPlan(t *testing.T) {
	// PV = EV = AC = 100000, BAC = 200000.
	// CV = 0, SV = 0, CPI = 1, SPI = 1
	// EAC = BAC/CPI = 200000, ETC = 100000, VAC = 0
	// TCPI = (200000-100000)/(200000-100000) = 1
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100000,
		EarnedValue:        100000,
		ActualCost:         100000,
		BudgetAtCompletion: 200000,
	}, DefaultPolicy())

	if m.CostVariance != 0 || m.ScheduleVariance != 0 {
		t.Errorf("Expected CV=0 SV=0, got CV=%f SV=%f", m.CostVariance, m.ScheduleVariance)
	}
	if m.CPI != 1 || m.SPI != 1 {
		t.Errorf("Expected CPI=1 SPI=1, got CPI=%f SPI=%f", m.CPI, m.SPI)
	}
	if m.EAC != 200000 {
		t.Errorf("Expected EAC=200000, got %f", m.EAC)
	}
	if m.VAC != 0 {
		t.Errorf("Expected VAC=0, got %f", m.VAC)
	}
	if m.TCPI != 1 {
		t.Errorf("Expected TCPI=1, got %f", m.TCPI)
	}
}

func TestCalculateMetricsAheadOfPlan(t *testing.T) {
	// PV=100000, EV=110000, AC=95000, BAC=200000
	// CPI = 110000/95000 = 1.1579 (4dp)
	// SPI = 110000/100000 = 1.1
	// EAC = BAC/CPI = 200000/(110000/95000) = 172727.27
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100000,
		EarnedValue:        110000,
		ActualCost:         95000,
		BudgetAtCompletion: 200000,
	}, DefaultPolicy())

	if math.Abs(m.CPI-1.1579) > 1e-4 {
		t.Errorf("Expected CPI 1.1579, got %f", m.CPI)
	}
	if math.Abs(m.SPI-1.1) > 1e-4 {
		t.Errorf("Expected SPI 1.1, got %f", m.SPI)
	}
	if math.Abs(m.EAC-172727.27) > 0.01 {
		t.Errorf("Expected EAC 172727.27, got %f", m.EAC)
	}
}

func TestCalculateMetricsZeroDenominators(t *testing.T) {
	// AC = 0 and PV = 0: CPI and SPI degrade to the 0 sentinel, never NaN.
	// CPI <= 0 triggers the EAC fallback: BAC + |CV| = 50000 + 10000 = 60000.
	m := CalculateMetrics(MetricInput{
		PlannedValue:       0,
		EarnedValue:        10000,
		ActualCost:         0,
		BudgetAtCompletion: 50000,
	}, DefaultPolicy())

	if m.CPI != 0 || m.SPI != 0 {
		t.Errorf("Expected zero sentinels, got CPI=%f SPI=%f", m.CPI, m.SPI)
	}
	if m.EAC != 60000 {
		t.Errorf("Expected fallback EAC 60000, got %f", m.EAC)
	}
}

func TestCalculateMetricsTCPIFallback(t *testing.T) {
	// AC >= BAC: denominator BAC-AC <= 0, policy reports 0.
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100000,
		EarnedValue:        90000,
		ActualCost:         120000,
		BudgetAtCompletion: 100000,
	}, DefaultPolicy())
	if m.TCPI != 0 {
		t.Errorf("Expected TCPI fallback 0, got %f", m.TCPI)
	}
}

func TestCalculateMetricsCustomPolicy(t *testing.T) {
	// A practitioner who prefers EAC = AC + (BAC - EV) when CPI collapses.
	pol := Policy{
		EACFallback:  func(bac, cv float64) float64 { return bac },
		TCPIFallback: func(bac, ev, ac float64) float64 { return 1 },
	}
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100,
		EarnedValue:        0,
		ActualCost:         0,
		BudgetAtCompletion: 500,
	}, pol)
	if m.EAC != 500 {
		t.Errorf("Expected custom EAC fallback 500, got %f", m.EAC)
	}
}

func TestCPIAndSPIExactRatios(t *testing.T) {
	// For any AC > 0, PV > 0: CPI = EV/AC and SPI = EV/PV within 1e-4.
	cases := []MetricInput{
		{PlannedValue: 100, EarnedValue: 50, ActualCost: 80, BudgetAtCompletion: 400},
		{PlannedValue: 321, EarnedValue: 444, ActualCost: 123, BudgetAtCompletion: 999},
		{PlannedValue: 1e6, EarnedValue: 7.5e5, ActualCost: 9e5, BudgetAtCompletion: 2e6},
	}
	for _, in := range cases {
		m := CalculateMetrics(in, DefaultPolicy())
		if math.Abs(m.CPI-in.EarnedValue/in.ActualCost) > 1e-4 {
			t.Errorf("CPI mismatch for %+v: got %f", in, m.CPI)
		}
		if math.Abs(m.SPI-in.EarnedValue/in.PlannedValue) > 1e-4 {
			t.Errorf("SPI mismatch for %+v: got %f", in, m.SPI)
		}
	}
}

func TestHealthIndexCritical(t *testing.T) {
	// CPI = 0.80 and SPI = 0.80: two -30 penalties from 100 => 40.
	// TCPI = 120000/100000 = 1.2 > 1.15 => -20 => 20.
	// EAC = 200000/0.8 = 250000 so VAC = -50000, and CV% = -20000/80000
	// = -25% => another -20 => 0. Score <= 40 and both indices < 0.85
	// => critical.
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100000,
		EarnedValue:        80000,
		ActualCost:         100000,
		BudgetAtCompletion: 200000,
	}, DefaultPolicy())
	h := CalculateHealthIndex(m)

	if h.Status != StatusCritical {
		t.Errorf("Expected critical, got %s", h.Status)
	}
	if h.Score > 40 {
		t.Errorf("Expected score <= 40, got %f", h.Score)
	}
	if len(h.Indicators) == 0 {
		t.Fatal("Expected indicators")
	}
	// Overall status message always leads.
	if want := "Project health is critical (score 0)"; h.Indicators[0] != want {
		t.Errorf("Expected leading indicator %q, got %q", want, h.Indicators[0])
	}
}

func TestHealthIndexHealthy(t *testing.T) {
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100000,
		EarnedValue:        100000,
		ActualCost:         100000,
		BudgetAtCompletion: 200000,
	}, DefaultPolicy())
	h := CalculateHealthIndex(m)
	if h.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", h.Status)
	}
	if h.Score != 100 {
		t.Errorf("Expected score 100, got %f", h.Score)
	}
}

func TestHealthIndexWarning(t *testing.T) {
	// CPI = SPI = 0.90: two -15 penalties => 70. TCPI = 110000/100000 =
	// 1.1 => -10 => 60. EAC = 222222.22 so VAC < 0 with CV% = -11.11%
	// => -20 => 40. Score < 50 but CPI and SPI both >= 0.85 => warning.
	m := CalculateMetrics(MetricInput{
		PlannedValue:       100000,
		EarnedValue:        90000,
		ActualCost:         100000,
		BudgetAtCompletion: 200000,
	}, DefaultPolicy())
	h := CalculateHealthIndex(m)
	if h.Status != StatusWarning {
		t.Errorf("Expected warning, got %s (score %f)", h.Status, h.Score)
	}
}
