package demand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplesOf(amounts ...int) []DemandSample {
	out := make([]DemandSample, len(amounts))
	for i, a := range amounts {
		out[i] = DemandSample{Time: "0:00", AmountToday: a, AmountYesterday: NoComparison}
	}
	return out
}

func TestSeekNearestHistory(t *testing.T) {
	_, ok := SeekNearestHistory(nil)
	assert.False(t, ok)

	_, ok = SeekNearestHistory([]DemandSample{})
	assert.False(t, ok)

	samples := samplesOf(0, 0, 5, 0)
	samples[2].Time = "0:10"
	got, ok := SeekNearestHistory(samples)
	assert.True(t, ok)
	assert.Equal(t, samples[2], got)

	_, ok = SeekNearestHistory(samplesOf(0, -1, 0))
	assert.False(t, ok)

	got, ok = SeekNearestHistory(samplesOf(3, 4, 7))
	assert.True(t, ok)
	assert.Equal(t, 7, got.AmountToday)
}

func TestUsagePercentage(t *testing.T) {
	s := DemandSample{AmountToday: 50}
	assert.Equal(t, 0.0, UsagePercentage(s, PeakRecord{Kind: KindSupply, Amount: 0}))
	assert.Equal(t, 0.0, UsagePercentage(s, PeakRecord{Kind: KindSupply, Amount: -10}))
	assert.InDelta(t, 25.0, UsagePercentage(s, PeakRecord{Kind: KindSupply, Amount: 200}), 1e-9)
}
