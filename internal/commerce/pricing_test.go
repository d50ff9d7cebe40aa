package commerce

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProratedSeatCharge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	yearlyRate := decimal.RequireFromString("365")

	tests := []struct {
		name   string
		expiry time.Time
		want   string
	}{
		{
			name:   "exact remaining days",
			expiry: now.AddDate(0, 0, 100),
			want:   "100",
		},
		{
			name: "partial day rounds up",
			// 99 days and one hour remaining charges for 100 days.
			expiry: now.AddDate(0, 0, 99).Add(time.Hour),
			want:   "100",
		},
		{
			name:   "expiry beyond a year caps at the full rate",
			expiry: now.AddDate(2, 0, 0),
			want:   "365",
		},
		{
			name:   "expiring today charges nothing",
			expiry: now,
			want:   "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ProratedSeatCharge(tc.expiry, yearlyRate, now)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestRoundCharge(t *testing.T) {
	assert.Equal(t, "30.00", roundCharge(decimal.RequireFromString("30")).StringFixed(2))
	assert.Equal(t, "10.01", roundCharge(decimal.RequireFromString("10.005")).StringFixed(2))
}
