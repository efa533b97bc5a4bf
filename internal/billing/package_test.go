package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-ai-bot/types"
)

func newWaitingPackage(productID string, qty int) *types.Package {
	return &types.Package{
		ID:            "pkg-1",
		UserID:        42,
		ProductID:     productID,
		Status:        types.PackageWaiting,
		Currency:      types.USD,
		Quantity:      qty,
		PaymentMethod: types.PaymentStripe,
	}
}

func TestApplyPackageCreditsPurchasedTier(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_text_basic", 50)
	now := time.Now().UTC()

	require.NoError(t, ApplyPackage(pkg, u, "ch_123", now))
	assert.Equal(t, types.PackageSuccess, pkg.Status)
	assert.Equal(t, "ch_123", pkg.ProviderChargeID)
	assert.Equal(t, 50, u.AdditionalQuota.Counts[types.QuotaTextBasic])
	// The periodic tier is untouched by a package purchase.
	assert.Equal(t, 10, u.DailyLimits.Counts[types.QuotaTextBasic])
}

func TestApplyPackageIdempotent(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_text_basic", 50)
	now := time.Now().UTC()

	require.NoError(t, ApplyPackage(pkg, u, "ch_123", now))
	err := ApplyPackage(pkg, u, "ch_123", now)
	require.ErrorIs(t, err, ErrPackageNotPending)
	assert.Equal(t, 50, u.AdditionalQuota.Counts[types.QuotaTextBasic])
}

func TestApplyFlagPackageSetsUntilAt(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_voice_replies", 2)
	now := time.Now().UTC()

	require.NoError(t, ApplyPackage(pkg, u, "ch_456", now))
	assert.True(t, u.AdditionalQuota.Flags[types.QuotaVoiceReplies])
	require.NotNil(t, pkg.UntilAt)
	assert.Equal(t, now.AddDate(0, 0, 60), *pkg.UntilAt)
}

func TestApplyPackageUnknownProduct(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_teleport", 1)
	err := ApplyPackage(pkg, u, "ch_789", time.Now().UTC())
	require.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, types.PackageWaiting, pkg.Status)
}

func TestCancelPackage(t *testing.T) {
	pkg := newWaitingPackage("pkg_music", 5)
	require.NoError(t, CancelPackage(pkg, time.Now().UTC()))
	assert.Equal(t, types.PackageCanceled, pkg.Status)
	assert.ErrorIs(t, CancelPackage(pkg, time.Now().UTC()), ErrPackageNotPending)
}

func TestExpireFlagPackage(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_voice_replies", 1)
	bought := time.Now().UTC()
	require.NoError(t, ApplyPackage(pkg, u, "ch_1", bought))

	// Still inside the window.
	assert.False(t, ExpireFlagPackage(pkg, u, false, bought.AddDate(0, 0, 29)))
	assert.True(t, u.AdditionalQuota.Flags[types.QuotaVoiceReplies])

	// 31 days later the entitlement lapses, exactly once.
	assert.True(t, ExpireFlagPackage(pkg, u, false, bought.AddDate(0, 0, 31)))
	assert.False(t, u.AdditionalQuota.Flags[types.QuotaVoiceReplies])
	assert.False(t, ExpireFlagPackage(pkg, u, false, bought.AddDate(0, 0, 32)))
}

func TestExpireCoveredFlagPackageKeepsFlag(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_voice_replies", 1)
	bought := time.Now().UTC()
	require.NoError(t, ApplyPackage(pkg, u, "ch_1", bought))

	// A newer purchase still covers the quota: the lapsed package is
	// retired without taking the flag away.
	assert.False(t, ExpireFlagPackage(pkg, u, true, bought.AddDate(0, 0, 31)))
	assert.True(t, pkg.Expired)
	assert.True(t, u.AdditionalQuota.Flags[types.QuotaVoiceReplies])
}

func TestExpireIgnoresCounterPackages(t *testing.T) {
	u := newTestUser()
	pkg := newWaitingPackage("pkg_text_basic", 10)
	require.NoError(t, ApplyPackage(pkg, u, "ch_1", time.Now().UTC()))
	assert.False(t, ExpireFlagPackage(pkg, u, false, time.Now().UTC().AddDate(1, 0, 0)))
}
