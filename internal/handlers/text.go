package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nova-ai-bot/internal/billing"
	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/internal/messages"
	"nova-ai-bot/types"
)

func (h *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	lang := langFromCtx(ctx)
	chatID := update.Message.Chat.ID
	userID := getUserIDFromUpdate(update)
	text := strings.TrimSpace(update.Message.Text)

	state, err := h.state.GetState(userID)
	if err != nil {
		h.log.Warnw("loading conversation state failed", "user_id", userID, "error", err)
	}
	if state != nil && state.Step == types.StepAwaitQuantity {
		h.handleQuantityInput(ctx, b, chatID, userID, lang, state, text)
		return
	}

	h.handlePrompt(ctx, b, chatID, userID, lang, text)
}

// handleQuantityInput finishes the package flow: the number the user sent
// becomes a cart item. Bad input re-prompts without dropping the step.
func (h *Handlers) handleQuantityInput(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, state *types.ConvState, text string) {
	p, ok := catalog.ProductByID(state.Data["product_id"])
	if !ok {
		h.state.ClearState(userID)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		h.send(ctx, b, chatID, messages.QuantityNotANumber(lang))
		return
	}
	if qty < p.MinQuantity {
		h.send(ctx, b, chatID, messages.QuantityBelowMinimum(lang, p.MinQuantity))
		return
	}

	cart, err := h.billing.GetCart(ctx, userID)
	if err != nil {
		h.log.Errorw("loading cart failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	replaced := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == p.ID {
			cart.Items[i].Quantity = qty
			replaced = true
			break
		}
	}
	if !replaced {
		cart.Items = append(cart.Items, types.CartItem{ProductID: p.ID, Quantity: qty})
	}
	cart.UpdatedAt = time.Now().UTC()
	if err := h.billing.SaveCart(ctx, cart); err != nil {
		h.log.Errorw("saving cart failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	h.state.ClearState(userID)
	h.send(ctx, b, chatID, messages.CartAdded(lang, messages.QuotaName(lang, p.Quota), qty))
}

// handlePrompt answers a free-form message with the model the user's
// quota affords. The unit is only spent after a successful generation.
func (h *Handlers) handlePrompt(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, prompt string) {
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.log.Errorw("loading user failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}

	quota := types.QuotaTextBasic
	switch {
	case billing.Available(u, types.QuotaTextBasic):
	case billing.Available(u, types.QuotaTextAdvanced):
		quota = types.QuotaTextAdvanced
	default:
		h.send(ctx, b, chatID, messages.QuotaExhausted(lang))
		return
	}

	reply, err := h.ai.Complete(ctx, quota, prompt)
	if err != nil {
		h.log.Errorw("completion failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.GenerationFailed(lang))
		return
	}
	if _, err := h.users.SpendQuota(ctx, userID, quota, 1); err != nil && !errors.Is(err, billing.ErrInsufficientQuota) {
		h.log.Errorw("spending quota failed", "user_id", userID, "quota", quota, "error", err)
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   reply,
	})
	if err != nil {
		h.log.Errorw("sending reply failed", "chat_id", chatID, "error", err)
	}
}
