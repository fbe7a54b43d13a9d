// This file implements the statistical trend engine: ordinary least
// squares, moving averages, volatility, and trend classification.
package evm

import "math"

// Trend classification values.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// trendSlopeEpsilon is the dead band around zero slope; movement inside
// it classifies as stable.
const trendSlopeEpsilon = 0.01

// LinearRegression fits y = slope*x + intercept by ordinary least squares.
//
// Degenerate cases: n=0 returns the zero value; n=1 returns slope 0 with
// the single y as intercept. R2 is clamped to [0,1] so numerical noise
// never reports a negative fit.
func LinearRegression(points []Point) Regression {
	n := float64(len(points))
	if len(points) == 0 {
		return Regression{}
	}
	if len(points) == 1 {
		return Regression{Slope: 0, Intercept: points[0].Y, R2: 0}
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumXX += p.X * p.X
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		// Vertical line of identical x values; no meaningful fit.
		return Regression{Slope: 0, Intercept: sumY / n, R2: 0}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	// R² = 1 - SSres/SStot
	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		pred := slope*p.X + intercept
		ssRes += (p.Y - pred) * (p.Y - pred)
		ssTot += (p.Y - meanY) * (p.Y - meanY)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	} else if ssRes == 0 {
		// Flat series perfectly predicted.
		r2 = 1
	}
	if r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}

	return Regression{Slope: slope, Intercept: intercept, R2: r2}
}

// MovingAverage returns a series the same length as the input where each
// element is the mean of the trailing window ending at that position.
// Leading positions with fewer than window samples average what exists:
// MovingAverage([1,2,3,4,5], 3) = [1, 1.5, 2, 3, 4].
func MovingAverage(series []float64, window int) []float64 {
	if window <= 0 || len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series))
	for i := range series {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for j := start; j <= i; j++ {
			sum += series[j]
		}
		out[i] = sum / float64(i-start+1)
	}
	return out
}

// Volatility is the population standard deviation of the series
// (divide by n, not n-1). Empty series reports 0.
func Volatility(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))
	var ss float64
	for _, v := range series {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(series)))
}

// ClassifyTrend maps a regression slope to a trend label. The same dead
// band applies to CPI and SPI series.
func ClassifyTrend(slope float64) string {
	switch {
	case slope > trendSlopeEpsilon:
		return TrendImproving
	case slope < -trendSlopeEpsilon:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// AnalyzeTrends runs the full trend pass over an ordered snapshot series:
// OLS fit, classification, volatility, and a 3-period moving average for
// both performance indices. Series order is append order.
func AnalyzeTrends(snapshots []Snapshot) TrendAnalysis {
	cpiPoints := make([]Point, len(snapshots))
	spiPoints := make([]Point, len(snapshots))
	cpiSeries := make([]float64, len(snapshots))
	spiSeries := make([]float64, len(snapshots))
	for i, s := range snapshots {
		x := float64(i + 1)
		cpiPoints[i] = Point{X: x, Y: s.Metrics.CPI}
		spiPoints[i] = Point{X: x, Y: s.Metrics.SPI}
		cpiSeries[i] = s.Metrics.CPI
		spiSeries[i] = s.Metrics.SPI
	}

	cpiReg := LinearRegression(cpiPoints)
	spiReg := LinearRegression(spiPoints)

	return TrendAnalysis{
		CPITrend:      ClassifyTrend(cpiReg.Slope),
		SPITrend:      ClassifyTrend(spiReg.Slope),
		CPIRegression: cpiReg,
		SPIRegression: spiReg,
		CPIVolatility: Volatility(cpiSeries),
		SPIVolatility: Volatility(spiSeries),
		CPIMovingAvg:  MovingAverage(cpiSeries, 3),
		SPIMovingAvg:  MovingAverage(spiSeries, 3),
		SampleCount:   len(snapshots),
	}
}

// CompareToBaseline reports drift of a current metric set against a
// baseline period, one comparison per headline metric.
func CompareToBaseline(current, baseline Metrics) []BaselineComparison {
	cmp := func(name string, cur, base float64) BaselineComparison {
		return BaselineComparison{
			Metric:       name,
			Baseline:     base,
			Current:      cur,
			Delta:        round4(cur - base),
			DeltaPercent: round2(safeDiv(cur-base, base) * 100),
		}
	}
	return []BaselineComparison{
		cmp("cpi", current.CPI, baseline.CPI),
		cmp("spi", current.SPI, baseline.SPI),
		cmp("eac", current.EAC, baseline.EAC),
		cmp("vac", current.VAC, baseline.VAC),
	}
}
