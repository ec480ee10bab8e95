package demand

// SeekNearestHistory returns the latest sample with a positive amount.
// Publishers zero-fill slots that have not been reported yet, so the scan
// runs backward from the end. ok is false when no sample qualifies.
func SeekNearestHistory(samples []DemandSample) (latest DemandSample, ok bool) {
	for i := len(samples) - 1; i >= 0; i-- {
		if samples[i].AmountToday > 0 {
			return samples[i], true
		}
	}
	return DemandSample{}, false
}

// UsagePercentage is the sample's demand as a percentage of peak supply.
// It is 0 when supply is not positive.
func UsagePercentage(s DemandSample, supply PeakRecord) float64 {
	if supply.Amount <= 0 {
		return 0
	}
	return float64(s.AmountToday) / float64(supply.Amount) * 100
}
