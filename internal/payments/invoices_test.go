package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-ai-bot/types"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, 49900, MinorUnits(499, types.RUB))
	assert.Equal(t, 499, MinorUnits(4.99, types.USD))
	assert.Equal(t, 8, MinorUnits(0.08, types.USD))
	// Stars have no fractional unit.
	assert.Equal(t, 237, MinorUnits(237.9, types.XTR))
	assert.Equal(t, 237, MinorUnits(237, types.XTR))
}

func TestPayloads(t *testing.T) {
	assert.Equal(t, "sub:abc-123", SubscriptionPayload("abc-123"))
	assert.Equal(t, "cart:42", CartPayload(42))
}

func TestSendInvoiceRejectsMismatches(t *testing.T) {
	inv := NewInvoicer("")
	assert.False(t, inv.YooKassaEnabled())

	// Stars priced in a fiat currency is a programming error.
	err := inv.SendInvoice(context.Background(), nil, 1, types.PaymentStars, types.RUB, 100, "p", "t", "d")
	require.Error(t, err)

	// YooKassa without a provider token cannot invoice.
	err = inv.SendInvoice(context.Background(), nil, 1, types.PaymentYooKassa, types.RUB, 100, "p", "t", "d")
	require.Error(t, err)

	// Stripe never goes through Telegram invoices.
	err = inv.SendInvoice(context.Background(), nil, 1, types.PaymentStripe, types.USD, 100, "p", "t", "d")
	require.Error(t, err)
}
