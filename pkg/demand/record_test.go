package demand

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeakRecord_Integer(t *testing.T) {
	rec, err := NewPeakRecord(KindDemand, "5:00", "1234", false)
	require.NoError(t, err)

	assert.Equal(t, "5:00", rec.Time)
	assert.Equal(t, 1234, rec.Amount)
	assert.Equal(t, KindDemand, rec.Kind)

	h, err := rec.Hour()
	require.NoError(t, err)
	assert.Equal(t, 5, h)
	m, err := rec.Minute()
	require.NoError(t, err)
	assert.Equal(t, 0, m)
}

func TestNewPeakRecord_FractionalTruncates(t *testing.T) {
	rec, err := NewPeakRecord(KindSupply, "5:00", "1234.7", true)
	require.NoError(t, err)
	assert.Equal(t, 1234, rec.Amount)
}

func TestNewPeakRecord_FractionalRejectedWithoutFlag(t *testing.T) {
	_, err := NewPeakRecord(KindDemand, "5:00", "1234.7", false)
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		fractional bool
		want       int
		wantErr    bool
	}{
		{"integer", "4500", false, 4500, false},
		{"padded", " 4500 ", false, 4500, false},
		{"fractional", "398.9", true, 398, false},
		{"negative truncates toward zero", "-3.9", true, -3, false},
		{"fractional integer text", "400", true, 400, false},
		{"garbage", "abc", false, 0, true},
		{"garbage fractional", "abc", true, 0, true},
		{"empty", "", false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in, tt.fractional)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemandSample_Difference(t *testing.T) {
	s, err := NewDemandSample("2024/1/1", "13:00", "3200", "3100", false)
	require.NoError(t, err)
	assert.True(t, s.HasComparison())
	assert.Equal(t, 100, s.Difference())

	s.AmountYesterday = NoComparison
	assert.False(t, s.HasComparison())
	assert.Equal(t, 0, s.Difference())
}

func TestNewDemandSample_EmptyYesterdayIsNoComparison(t *testing.T) {
	s, err := NewDemandSample("2024/1/1", "0:05", "120", "", false)
	require.NoError(t, err)
	assert.Equal(t, NoComparison, s.AmountYesterday)
}

func TestKind_JSON(t *testing.T) {
	b, err := json.Marshal(PeakRecord{Kind: KindSupply, Time: "17:00", Amount: 5000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"supply","time":"17:00","amount":5000}`, string(b))

	var rec PeakRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, KindSupply, rec.Kind)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"other"}`), &rec))
}

func TestClockField_Invalid(t *testing.T) {
	_, err := PeakRecord{Time: "17時"}.Hour()
	assert.Error(t, err)
}
