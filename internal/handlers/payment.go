package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nova-ai-bot/internal/billing"
	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/internal/messages"
	"nova-ai-bot/internal/payments"
	"nova-ai-bot/types"
)

// HandlePreCheckout approves or rejects the payment Telegram is about to
// take. Only a payload that still points at pending billing records is
// approved.
func (h *Handlers) HandlePreCheckout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.PreCheckoutQuery == nil {
		return
	}
	q := update.PreCheckoutQuery
	lang := langFromCtx(ctx)
	payload := strings.TrimSpace(q.InvoicePayload)

	ok := h.preCheckoutOK(ctx, q.From.ID, payload)

	errMsg := ""
	if !ok {
		errMsg = messages.PreCheckoutInvalid(lang)
	}
	_, err := b.AnswerPreCheckoutQuery(ctx, &bot.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: q.ID,
		OK:                 ok,
		ErrorMessage:       errMsg,
	})
	if err != nil {
		// An unanswered query times the payment out; the admin should know.
		h.log.Errorw("answering pre-checkout failed", "user_id", q.From.ID, "error", err)
		h.alertAdmin(ctx, b, err, "pre-checkout answer")
	}
}

// preCheckoutOK validates that the payload belongs to the payer and
// still points at pending billing records.
func (h *Handlers) preCheckoutOK(ctx context.Context, payerID int64, payload string) bool {
	switch {
	case strings.HasPrefix(payload, payments.PayloadSubscriptionPrefix):
		id := strings.TrimPrefix(payload, payments.PayloadSubscriptionPrefix)
		sub, err := h.billing.GetSubscription(ctx, id)
		return err == nil && sub.Status == types.SubscriptionWaiting && sub.UserID == payerID
	case strings.HasPrefix(payload, payments.PayloadCartPrefix):
		raw := strings.TrimPrefix(payload, payments.PayloadCartPrefix)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID != payerID {
			return false
		}
		pkgs, err := h.billing.ListPendingPackages(ctx, payerID)
		return err == nil && len(pkgs) > 0
	default:
		return false
	}
}

func (h *Handlers) HandleSuccessfulPayment(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.SuccessfulPayment == nil {
		return
	}
	sp := update.Message.SuccessfulPayment
	userID := getUserIDFromUpdate(update)

	currency := types.Currency(sp.Currency)
	method := types.PaymentYooKassa
	total := float64(sp.TotalAmount) / 100
	if currency == types.XTR {
		method = types.PaymentStars
		total = float64(sp.TotalAmount)
	}

	p := types.Payment{
		UserID:                userID,
		Method:                method,
		Currency:              currency,
		TotalAmount:           total,
		InvoicePayload:        strings.TrimSpace(sp.InvoicePayload),
		TelegramPaymentCharge: sp.TelegramPaymentChargeID,
		ProviderPaymentCharge: sp.ProviderPaymentChargeID,
		CreatedAt:             time.Now().UTC(),
	}
	if err := h.SettlePayment(ctx, b, p); err != nil {
		h.log.Errorw("settling payment failed", "user_id", userID, "payload", p.InvoicePayload, "error", err)
	}
}

// PayloadUserID resolves the paying user from an invoice payload. The
// Stripe webhook needs this because its confirmation carries only the
// payload, not the Telegram user.
func (h *Handlers) PayloadUserID(ctx context.Context, payload string) (int64, error) {
	switch {
	case strings.HasPrefix(payload, payments.PayloadSubscriptionPrefix):
		id := strings.TrimPrefix(payload, payments.PayloadSubscriptionPrefix)
		sub, err := h.billing.GetSubscription(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("resolving subscription %s: %w", id, err)
		}
		return sub.UserID, nil
	case strings.HasPrefix(payload, payments.PayloadCartPrefix):
		raw := strings.TrimPrefix(payload, payments.PayloadCartPrefix)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed cart payload %q", payload)
		}
		return userID, nil
	default:
		return 0, fmt.Errorf("unroutable payment payload %q", payload)
	}
}

// SettlePayment is the single settlement path for every provider: the
// Telegram payment handler and the Stripe webhook both land here. The
// charge id makes settlement idempotent, so a redelivered confirmation
// credits nothing twice.
func (h *Handlers) SettlePayment(ctx context.Context, b *bot.Bot, p types.Payment) error {
	u, err := h.users.GetUser(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("loading payer %d: %w", p.UserID, err)
	}
	lang := i18n.FromLanguageCode(u.LanguageCode)
	if s, lerr := h.state.GetLang(u.ID); lerr == nil && s != "" {
		lang = i18n.Parse(s)
	}
	chatID := u.ChatID
	if chatID == 0 {
		chatID = p.UserID
	}

	inserted, err := h.billing.RecordPayment(ctx, p)
	if err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}
	if !inserted {
		h.send(ctx, b, chatID, messages.PaymentAlreadyProcessed(lang))
		return nil
	}

	chargeID := p.TelegramPaymentCharge
	if chargeID == "" {
		chargeID = p.ProviderPaymentCharge
	}

	switch {
	case strings.HasPrefix(p.InvoicePayload, payments.PayloadSubscriptionPrefix):
		return h.settleSubscription(ctx, b, chatID, lang, p, chargeID)
	case strings.HasPrefix(p.InvoicePayload, payments.PayloadCartPrefix):
		return h.settleCart(ctx, b, chatID, lang, p, chargeID)
	default:
		err := fmt.Errorf("unroutable payment payload %q", p.InvoicePayload)
		h.alertAdmin(ctx, b, err, "payment settlement")
		return err
	}
}

func (h *Handlers) settleSubscription(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang, p types.Payment, chargeID string) error {
	id := strings.TrimPrefix(p.InvoicePayload, payments.PayloadSubscriptionPrefix)

	prior, err := h.billing.CountSubscriptions(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("counting subscriptions: %w", err)
	}
	trial := billing.TrialEligible(prior, p.Method)

	sub, err := h.billing.ActivateSubscriptionPayment(ctx, id, chargeID, trial)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotPending) {
			h.send(ctx, b, chatID, messages.PaymentAlreadyProcessed(lang))
			return nil
		}
		h.alertAdmin(ctx, b, err, "subscription activation")
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return fmt.Errorf("activating subscription %s: %w", id, err)
	}
	h.send(ctx, b, chatID, messages.SubscriptionActivated(lang, messages.TierName(lang, sub.Tier), sub.EndDate, sub.Status == types.SubscriptionTrial))
	return nil
}

func (h *Handlers) settleCart(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang, p types.Payment, chargeID string) error {
	pkgs, err := h.billing.ListPendingPackages(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("listing pending packages: %w", err)
	}
	if len(pkgs) == 0 {
		h.send(ctx, b, chatID, messages.PaymentAlreadyProcessed(lang))
		return nil
	}

	var firstErr error
	for _, pkg := range pkgs {
		applied, err := h.billing.ApplyPackagePayment(ctx, pkg.ID, chargeID)
		if err != nil {
			if errors.Is(err, billing.ErrPackageNotPending) {
				continue
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("applying package %s: %w", pkg.ID, err)
			}
			if merr := h.billing.MarkPackageError(ctx, pkg.ID); merr != nil {
				h.log.Errorw("marking package error failed", "package_id", pkg.ID, "error", merr)
			}
			h.alertAdmin(ctx, b, err, "package settlement "+pkg.ID)
			continue
		}
		prod, ok := catalog.ProductByID(applied.ProductID)
		if !ok {
			continue
		}
		h.send(ctx, b, chatID, messages.PackageApplied(lang, messages.QuotaName(lang, prod.Quota), applied.Quantity))
	}

	if err := h.billing.ClearCart(ctx, p.UserID); err != nil {
		h.log.Errorw("clearing cart failed", "user_id", p.UserID, "error", err)
	}
	return firstErr
}
