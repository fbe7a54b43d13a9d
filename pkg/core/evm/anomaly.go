// This file implements z-score anomaly detection over snapshot series.
package evm

// DefaultAnomalyThreshold is the |z| cutoff used when the caller passes 0.
const DefaultAnomalyThreshold = 2.0

// minAnomalySamples is the smallest series a z-score is meaningful for.
const minAnomalySamples = 3

// metricValue selects one named metric from a snapshot. Unknown names
// report 0 for every sample, which yields zero variance and no anomalies.
func metricValue(s Snapshot, metric string) float64 {
	switch metric {
	case "cpi":
		return s.Metrics.CPI
	case "spi":
		return s.Metrics.SPI
	case "cv":
		return s.Metrics.CostVariance
	case "sv":
		return s.Metrics.ScheduleVariance
	case "eac":
		return s.Metrics.EAC
	case "ac":
		return s.Metrics.ActualCost
	case "ev":
		return s.Metrics.EarnedValue
	default:
		return 0
	}
}

// DetectAnomalies flags snapshots whose named metric deviates from the
// series mean by more than threshold standard deviations. Fewer than 3
// samples returns an empty result: there is no meaningful distribution
// to deviate from. A non-positive threshold uses the default of 2.0.
func DetectAnomalies(snapshots []Snapshot, metric string, threshold float64) []Anomaly {
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}
	if len(snapshots) < minAnomalySamples {
		return []Anomaly{}
	}

	values := make([]float64, len(snapshots))
	var sum float64
	for i, s := range snapshots {
		values[i] = metricValue(s, metric)
		sum += values[i]
	}
	mean := sum / float64(len(values))
	stddev := Volatility(values)
	if stddev == 0 {
		return []Anomaly{}
	}

	anomalies := []Anomaly{}
	for i, v := range values {
		z := (v - mean) / stddev
		if abs(z) > threshold {
			deviation := "high"
			if z < 0 {
				deviation = "low"
			}
			anomalies = append(anomalies, Anomaly{
				SnapshotID:   snapshots[i].ID,
				SnapshotDate: snapshots[i].SnapshotDate,
				Metric:       metric,
				Value:        v,
				ZScore:       round4(z),
				Deviation:    deviation,
			})
		}
	}
	return anomalies
}
