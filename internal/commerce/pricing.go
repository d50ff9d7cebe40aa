package commerce

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const daysPerYear = 365

// ProratedSeatCharge calculates the amount to charge for one extra seat for
// the remainder of a subscription's yearly lease. The remaining days are
// rounded up in case of a fraction and capped at a full year, so the result
// never exceeds the yearly rate.
func ProratedSeatCharge(expiryDate time.Time, yearlyRatePerSeat decimal.Decimal, now time.Time) decimal.Decimal {
	dailyChargePerSeat := yearlyRatePerSeat.Div(decimal.NewFromInt(daysPerYear))

	remainingDays := math.Ceil(expiryDate.UTC().Sub(now.UTC()).Hours() / 24)
	if remainingDays > daysPerYear {
		remainingDays = daysPerYear
	}

	return decimal.NewFromFloat(remainingDays).Mul(dailyChargePerSeat)
}

// roundCharge rounds a money amount to 2 decimals, half away from zero.
func roundCharge(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
