package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-ai-bot/types"
)

func TestPackagePrice(t *testing.T) {
	// 10 units at $0.01 with a 20% discount.
	assert.Equal(t, 0.08, PackagePrice(0.01, 10, 20))
	assert.Equal(t, 0.1, PackagePrice(0.01, 10, 0))
	assert.Equal(t, 0.0, PackagePrice(0.01, 10, 100))
	assert.Equal(t, 499.0, PackagePrice(499, 1, 0))
}

func TestSubscriptionPriceFloorWins(t *testing.T) {
	// 12-month floor is 20%, the caller's 5% loses.
	got := SubscriptionPrice(100, types.PeriodMonths12, 5, types.USD)
	assert.Equal(t, 80.0, got)
}

func TestSubscriptionPriceCallerDiscountWins(t *testing.T) {
	got := SubscriptionPrice(100, types.PeriodMonths3, 50, types.USD)
	assert.Equal(t, 50.0, got)
}

func TestSubscriptionPriceStarsTruncate(t *testing.T) {
	// 250 Stars at the 3-month 5% floor is 237.5, Stars have no kopeks.
	got := SubscriptionPrice(250, types.PeriodMonths3, 0, types.XTR)
	assert.Equal(t, 237.0, got)
}

func TestPeriodDiscountMonotone(t *testing.T) {
	periods := []types.SubscriptionPeriod{
		types.PeriodMonth1,
		types.PeriodMonths3,
		types.PeriodMonths6,
		types.PeriodMonths12,
	}
	for _, userDiscount := range []int{0, 3} {
		prev := -1
		for _, p := range periods {
			d := PeriodDiscount(p, userDiscount)
			assert.GreaterOrEqual(t, d, prev, "discount shrank at %s", p)
			prev = d
		}
	}
}

func TestEffectiveDiscountIsMaxNotSum(t *testing.T) {
	assert.Equal(t, 20, EffectiveDiscount(20, 5, 10))
	assert.Equal(t, 0, EffectiveDiscount())
	assert.Equal(t, 100, EffectiveDiscount(150))
}

func TestPriceNonNegative(t *testing.T) {
	for _, d := range []int{0, 1, 50, 99, 100} {
		for _, qty := range []int{1, 7, 1000} {
			assert.GreaterOrEqual(t, PackagePrice(0.03, qty, d), 0.0)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "80", FormatPrice(80.00))
	assert.Equal(t, "0.08", FormatPrice(0.08))
	assert.Equal(t, "4.99", FormatPrice(4.99))
}

func TestCatalogValidate(t *testing.T) {
	require.NoError(t, Validate())
}

func TestTierLimitsClone(t *testing.T) {
	a := TierLimits(types.TierFree)
	a.Counts[types.QuotaTextBasic] = 0
	b := TierLimits(types.TierFree)
	assert.Equal(t, 10, b.Counts[types.QuotaTextBasic])
}

func TestTierLimitsUnknownFallsBackToFree(t *testing.T) {
	assert.Equal(t, TierLimits(types.TierFree), TierLimits(types.SubscriptionTier("gold")))
}

func TestPackageByQuotaCoversCatalog(t *testing.T) {
	for _, p := range PackageProducts() {
		got, ok := PackageByQuota(p.Quota)
		require.True(t, ok)
		assert.Equal(t, p.ID, got.ID)
	}
}
