package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/types"
)

// fakeBilling covers the store calls checkout validation and discount
// resolution make; everything else panics via the embedded nil.
type fakeBilling struct {
	types.BillingStore
	sub     *types.Subscription
	pending map[int64][]*types.Package
}

func (f *fakeBilling) GetSubscription(_ context.Context, id string) (*types.Subscription, error) {
	if f.sub != nil && f.sub.ID == id {
		return f.sub, nil
	}
	return nil, fmt.Errorf("subscription %s not found", id)
}

func (f *fakeBilling) ListPendingPackages(_ context.Context, userID int64) ([]*types.Package, error) {
	return f.pending[userID], nil
}

func newTestHandlers(billing types.BillingStore) *Handlers {
	return New(nil, billing, nil, nil, nil, nil, logger.NewDevelopment(), 0)
}

func TestSplitCommand(t *testing.T) {
	cmd, args := splitCommand("/start")
	assert.Equal(t, "/start", cmd)
	assert.Empty(t, args)

	cmd, args = splitCommand("/grant 42 text_basic 10")
	assert.Equal(t, "/grant", cmd)
	assert.Equal(t, "42 text_basic 10", args)

	cmd, args = splitCommand("/profile@nova_ai_bot")
	assert.Equal(t, "/profile", cmd)
	assert.Empty(t, args)

	cmd, args = splitCommand("  /image   a red fox  ")
	assert.Equal(t, "/image", cmd)
	assert.Equal(t, "a red fox", args)
}

func TestPurchaseDiscountIncludesTier(t *testing.T) {
	p, ok := catalog.ProductByID("sub_standard")
	assert.True(t, ok)

	sub := &types.Subscription{
		ID:      "sub-1",
		UserID:  1,
		Tier:    types.TierVIP,
		Status:  types.SubscriptionActive,
		EndDate: time.Now().UTC().AddDate(0, 1, 0),
	}
	h := newTestHandlers(&fakeBilling{sub: sub})

	// A VIP renewing onto another plan keeps the 10% subscriber perk.
	subscriber := &types.User{ID: 1, SubscriptionID: "sub-1"}
	assert.Equal(t, 10, h.purchaseDiscount(context.Background(), subscriber, p))

	// First-time buyers pay list price.
	newcomer := &types.User{ID: 2}
	assert.Equal(t, 0, h.purchaseDiscount(context.Background(), newcomer, p))

	// A bigger personal discount wins over the tier perk.
	promoted := &types.User{ID: 1, SubscriptionID: "sub-1", Discount: 25}
	assert.Equal(t, 25, h.purchaseDiscount(context.Background(), promoted, p))
}

func TestPreCheckoutOK(t *testing.T) {
	sub := &types.Subscription{ID: "sub-1", UserID: 1, Status: types.SubscriptionWaiting}
	f := &fakeBilling{
		sub: sub,
		pending: map[int64][]*types.Package{
			1: {{ID: "pkg-1", UserID: 1, Status: types.PackageWaiting}},
		},
	}
	h := newTestHandlers(f)
	ctx := context.Background()

	assert.True(t, h.preCheckoutOK(ctx, 1, "sub:sub-1"))
	// Someone else's forwarded invoice is rejected.
	assert.False(t, h.preCheckoutOK(ctx, 2, "sub:sub-1"))

	assert.True(t, h.preCheckoutOK(ctx, 1, "cart:1"))
	// The payload names a different user than the payer.
	assert.False(t, h.preCheckoutOK(ctx, 1, "cart:2"))
	assert.False(t, h.preCheckoutOK(ctx, 2, "cart:1"))
	assert.False(t, h.preCheckoutOK(ctx, 1, "cart:abc"))

	// Nothing pending anymore.
	f.pending = nil
	assert.False(t, h.preCheckoutOK(ctx, 1, "cart:1"))

	assert.False(t, h.preCheckoutOK(ctx, 1, "gift:1"))
}

func TestMethodAndCurrency(t *testing.T) {
	method, currency, ok := methodAndCurrency("stars")
	assert.True(t, ok)
	assert.Equal(t, types.PaymentStars, method)
	assert.Equal(t, types.XTR, currency)

	method, currency, ok = methodAndCurrency("yookassa")
	assert.True(t, ok)
	assert.Equal(t, types.PaymentYooKassa, method)
	assert.Equal(t, types.RUB, currency)

	method, currency, ok = methodAndCurrency("stripe")
	assert.True(t, ok)
	assert.Equal(t, types.PaymentStripe, method)
	assert.Equal(t, types.USD, currency)

	_, _, ok = methodAndCurrency("cash")
	assert.False(t, ok)
}
