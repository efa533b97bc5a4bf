package payments

import (
	"context"
	"fmt"
	"math"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nova-ai-bot/types"
)

// Payload prefixes route a successful payment back to what was bought.
// "sub:<id>" activates a subscription, "cart:<user_id>" applies every
// pending package of the user (at most one live checkout exists).
const (
	PayloadSubscriptionPrefix = "sub:"
	PayloadCartPrefix         = "cart:"
)

func SubscriptionPayload(subscriptionID string) string {
	return PayloadSubscriptionPrefix + subscriptionID
}

func CartPayload(userID int64) string {
	return fmt.Sprintf("%s%d", PayloadCartPrefix, userID)
}

// MinorUnits converts a price to the integer amount Telegram invoices
// expect: kopeks for RUB, cents for USD, whole Stars for XTR.
func MinorUnits(amount float64, currency types.Currency) int {
	if currency == types.XTR {
		return int(math.Trunc(amount))
	}
	return int(math.Round(amount * 100))
}

// Invoicer sends Telegram-native invoices: Stars with an empty provider
// token, YooKassa with the provider token from BotFather.
type Invoicer struct {
	yooKassaToken string
}

func NewInvoicer(yooKassaToken string) *Invoicer {
	return &Invoicer{yooKassaToken: yooKassaToken}
}

// YooKassaEnabled reports whether a provider token was configured.
func (i *Invoicer) YooKassaEnabled() bool {
	return i.yooKassaToken != ""
}

func (i *Invoicer) SendInvoice(ctx context.Context, b *bot.Bot, chatID int64, method types.PaymentMethod, currency types.Currency, amountMinor int, payload, title, description string) error {
	providerToken := ""
	switch method {
	case types.PaymentStars:
		if currency != types.XTR {
			return fmt.Errorf("stars invoices must be priced in XTR, got %s", currency)
		}
	case types.PaymentYooKassa:
		if i.yooKassaToken == "" {
			return fmt.Errorf("yookassa provider token is not configured")
		}
		providerToken = i.yooKassaToken
	default:
		return fmt.Errorf("payment method %s does not use telegram invoices", method)
	}

	_, err := b.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:        chatID,
		Title:         title,
		Description:   description,
		Payload:       payload,
		ProviderToken: providerToken,
		Currency:      string(currency),
		Prices:        []models.LabeledPrice{{Label: title, Amount: amountMinor}},
	})
	return err
}
