package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/types"
)

func newTestUser() *types.User {
	return &types.User{
		ID:               42,
		ChatID:           42,
		Currency:         types.USD,
		DailyLimits:      catalog.TierLimits(types.TierFree),
		AdditionalQuota:  types.NewUserQuota(),
		LastLimitRefresh: time.Now().UTC(),
	}
}

func TestSpendDrainsDailyFirst(t *testing.T) {
	u := newTestUser()
	u.DailyLimits.Counts[types.QuotaTextBasic] = 2
	u.AdditionalQuota.Counts[types.QuotaTextBasic] = 3

	require.NoError(t, Spend(u, types.QuotaTextBasic, 1))
	assert.Equal(t, 1, u.DailyLimits.Counts[types.QuotaTextBasic])
	assert.Equal(t, 3, u.AdditionalQuota.Counts[types.QuotaTextBasic])
}

func TestSpendFallsThroughToPurchased(t *testing.T) {
	u := newTestUser()
	u.DailyLimits.Counts[types.QuotaTextBasic] = 0
	u.AdditionalQuota.Counts[types.QuotaTextBasic] = 3

	require.NoError(t, Spend(u, types.QuotaTextBasic, 1))
	assert.Equal(t, 0, u.DailyLimits.Counts[types.QuotaTextBasic])
	assert.Equal(t, 2, u.AdditionalQuota.Counts[types.QuotaTextBasic])
}

func TestSpendConservation(t *testing.T) {
	u := newTestUser()
	u.DailyLimits.Counts[types.QuotaImageBasic] = 2
	u.AdditionalQuota.Counts[types.QuotaImageBasic] = 4

	require.NoError(t, Spend(u, types.QuotaImageBasic, 5))
	daily, additional := Remaining(u, types.QuotaImageBasic)
	assert.Equal(t, 0, daily)
	assert.Equal(t, 1, additional)
}

func TestSpendRejectsOverdraftWithoutMutation(t *testing.T) {
	u := newTestUser()
	u.DailyLimits.Counts[types.QuotaMusic] = 1
	u.AdditionalQuota.Counts[types.QuotaMusic] = 1

	err := Spend(u, types.QuotaMusic, 3)
	require.ErrorIs(t, err, ErrInsufficientQuota)
	assert.Equal(t, 1, u.DailyLimits.Counts[types.QuotaMusic])
	assert.Equal(t, 1, u.AdditionalQuota.Counts[types.QuotaMusic])
}

func TestFlagQuotaGatesWithoutDecrement(t *testing.T) {
	u := newTestUser()
	assert.False(t, Available(u, types.QuotaVoiceReplies))

	u.AdditionalQuota.Flags[types.QuotaVoiceReplies] = true
	assert.True(t, Available(u, types.QuotaVoiceReplies))

	// Spending a flag quota leaves it on.
	require.NoError(t, Spend(u, types.QuotaVoiceReplies, 1))
	assert.True(t, Available(u, types.QuotaVoiceReplies))
}

func TestFlagQuotaEitherTierOpensGate(t *testing.T) {
	u := newTestUser()
	u.DailyLimits.Flags[types.QuotaFastReplies] = true
	assert.True(t, Available(u, types.QuotaFastReplies))
}

func TestSpendRejectsNonPositive(t *testing.T) {
	u := newTestUser()
	assert.Error(t, Spend(u, types.QuotaTextBasic, 0))
	assert.Error(t, Spend(u, types.QuotaTextBasic, -1))
}
