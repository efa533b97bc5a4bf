package catalog

import (
	"math"
	"strconv"

	"nova-ai-bot/types"
)

// periodFloor is the minimum discount guaranteed for a subscription
// commitment length. A caller's own discount wins only when larger.
var periodFloor = map[types.SubscriptionPeriod]int{
	types.PeriodMonth1:   0,
	types.PeriodMonths3:  5,
	types.PeriodMonths6:  10,
	types.PeriodMonths12: 20,
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EffectiveDiscount picks the best of the applicable discount sources.
// Discounts never stack.
func EffectiveDiscount(discounts ...int) int {
	best := 0
	for _, d := range discounts {
		if d > best {
			best = d
		}
	}
	if best > 100 {
		best = 100
	}
	return best
}

// PeriodDiscount floors the caller's discount to the period schedule.
func PeriodDiscount(period types.SubscriptionPeriod, discount int) int {
	floor := periodFloor[period]
	if discount > floor {
		return discount
	}
	return floor
}

// PackagePrice computes the charge for a one-time package purchase.
func PackagePrice(unitPrice float64, quantity int, discount int) float64 {
	return round2(unitPrice * float64(quantity) * (1 - float64(discount)/100))
}

// SubscriptionPrice computes the charge for one billing period. basePrice
// is the undiscounted price of the whole period. Telegram Stars have no
// fractional unit, so XTR amounts truncate to whole Stars.
func SubscriptionPrice(basePrice float64, period types.SubscriptionPeriod, discount int, currency types.Currency) float64 {
	d := PeriodDiscount(period, discount)
	price := round2(basePrice * (1 - float64(d)/100))
	if currency == types.XTR {
		return math.Trunc(price)
	}
	return price
}

// FormatPrice renders a price without trailing zeros ("80", "0.08").
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
