package anomaly

// Summarize aggregates a scoring pass into summary statistics and the
// subsequence of flagged records, preserving their original relative
// order. Mean and standard deviation are taken from the pass itself, never
// recomputed, so the stats shown next to the flags can not drift.
func Summarize(res *Result) (SummaryStats, []ScoredRecord) {
	stats := SummaryStats{
		Mean:   res.Mean,
		StdDev: res.StdDev,
	}

	var anomalies []ScoredRecord
	for _, sr := range res.Scored {
		if sr.IsAnomaly {
			anomalies = append(anomalies, sr)
		}
	}
	stats.OutlierCount = len(anomalies)

	return stats, anomalies
}
