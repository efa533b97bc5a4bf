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

func (h *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	lang := langFromCtx(ctx)
	chatID := update.Message.Chat.ID
	userID := getUserIDFromUpdate(update)

	command, args := splitCommand(update.Message.Text)
	switch command {
	case "/start":
		h.state.ClearState(userID)
		name := ""
		if update.Message.From != nil {
			name = update.Message.From.FirstName
		}
		h.send(ctx, b, chatID, messages.StartWelcome(lang, name))
	case "/profile":
		h.handleProfile(ctx, b, chatID, userID, lang)
	case "/buy":
		h.sendBuyMenu(ctx, b, chatID, lang)
	case "/image":
		h.handleImageCommand(ctx, b, chatID, userID, lang, args)
	case "/music", "/video", "/faceswap":
		// Sold and credited, but the media backends are not wired yet.
		h.send(ctx, b, chatID, messages.ComingSoon(lang))
	case "/bonus":
		h.handleBonus(ctx, b, chatID, userID, lang)
	case "/language":
		h.sendLanguageMenu(ctx, b, chatID, lang)
	case "/cancel_subscription":
		h.handleCancelSubscription(ctx, b, chatID, userID, lang)
	case "/grant":
		h.handleGrant(ctx, b, chatID, userID, lang, args)
	default:
		h.send(ctx, b, chatID, messages.ErrorUnknownCommand(lang))
	}
}

func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	command, args, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return command, strings.TrimSpace(args)
}

func (h *Handlers) handleProfile(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.log.Errorw("loading profile failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}

	tier := types.TierFree
	var until *time.Time
	if u.HasSubscription() {
		sub, err := h.billing.GetSubscription(ctx, u.SubscriptionID)
		if err == nil && sub.Granting(time.Now().UTC()) {
			tier = sub.Tier
			end := sub.EndDate
			until = &end
		}
	}

	daily := make(map[string]int, len(types.CounterQuotas))
	additional := make(map[string]int, len(types.CounterQuotas))
	for _, q := range types.CounterQuotas {
		name := messages.QuotaName(lang, q)
		daily[name] = u.DailyLimits.Counts[q]
		additional[name] = u.AdditionalQuota.Counts[q]
	}
	var flags []string
	for _, q := range types.FlagQuotas {
		if u.DailyLimits.Flags[q] || u.AdditionalQuota.Flags[q] {
			flags = append(flags, messages.QuotaName(lang, q))
		}
	}
	h.send(ctx, b, chatID, messages.Profile(lang, messages.TierName(lang, tier), daily, additional, flags, until))
}

func (h *Handlers) handleImageCommand(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, prompt string) {
	if prompt == "" {
		h.send(ctx, b, chatID, messages.ErrorUnknownCommand(lang))
		return
	}
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}

	// Premium image quota is spent first when present, basic otherwise.
	quota := types.QuotaImageBasic
	if billing.Available(u, types.QuotaImagePremium) {
		quota = types.QuotaImagePremium
	} else if !billing.Available(u, types.QuotaImageBasic) {
		h.send(ctx, b, chatID, messages.QuotaExhausted(lang))
		return
	}

	url, err := h.ai.GenerateImage(ctx, quota, prompt)
	if err != nil {
		h.log.Errorw("image generation failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.GenerationFailed(lang))
		return
	}
	if _, err := h.users.SpendQuota(ctx, userID, quota, 1); err != nil && !errors.Is(err, billing.ErrInsufficientQuota) {
		h.log.Errorw("spending image quota failed", "user_id", userID, "error", err)
	}
	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo:  &models.InputFileString{Data: url},
	})
	if err != nil {
		h.log.Errorw("sending image failed", "chat_id", chatID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
	}
}

func (h *Handlers) handleBonus(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	h.send(ctx, b, chatID, messages.Bonus(lang, catalog.FormatPrice(u.Balance)+" "+string(u.Currency)))
}

func (h *Handlers) handleCancelSubscription(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	if !u.HasSubscription() {
		h.send(ctx, b, chatID, messages.NoSubscriptionToCancel(lang))
		return
	}
	sub, err := h.billing.CancelSubscription(ctx, u.SubscriptionID)
	if err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotActive) {
			h.send(ctx, b, chatID, messages.NoSubscriptionToCancel(lang))
			return
		}
		h.log.Errorw("canceling subscription failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	h.send(ctx, b, chatID, messages.SubscriptionCanceled(lang, sub.EndDate))
}

// handleGrant credits additional quota by hand. Admin only.
func (h *Handlers) handleGrant(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, args string) {
	if h.adminChatID == 0 || chatID != h.adminChatID {
		h.send(ctx, b, chatID, messages.AdminDenied(lang))
		return
	}
	fields := strings.Fields(args)
	if len(fields) != 3 {
		h.send(ctx, b, chatID, messages.AdminGrantUsage(lang))
		return
	}
	targetID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		h.send(ctx, b, chatID, messages.AdminGrantUsage(lang))
		return
	}
	quota := types.Quota(fields[1])
	if !quota.IsCounter() {
		h.send(ctx, b, chatID, messages.AdminGrantUsage(lang))
		return
	}
	amount, err := strconv.Atoi(fields[2])
	if err != nil || amount <= 0 {
		h.send(ctx, b, chatID, messages.AdminGrantUsage(lang))
		return
	}

	target, err := h.users.GetUser(ctx, targetID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	target.AdditionalQuota.Counts[quota] += amount
	target.UpdatedAt = time.Now().UTC()
	if err := h.users.UpdateUser(ctx, target); err != nil {
		h.log.Errorw("grant failed", "user_id", targetID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	h.send(ctx, b, chatID, messages.AdminGrantDone(lang, string(quota), amount))
}

func (h *Handlers) sendBuyMenu(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang) {
	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: messages.BuyBtnSubscriptions(lang), CallbackData: "buy:subs"}},
			{{Text: messages.BuyBtnPackages(lang), CallbackData: "buy:pkgs"}},
			{{Text: messages.BuyBtnCart(lang), CallbackData: "buy:cart"}},
		},
	}
	h.sendWithMarkup(ctx, b, chatID, messages.BuyMenu(lang), markup)
}

func (h *Handlers) sendLanguageMenu(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang) {
	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🇷🇺 Русский", CallbackData: "lang:ru"},
				{Text: "🇬🇧 English", CallbackData: "lang:en"},
			},
		},
	}
	h.sendWithMarkup(ctx, b, chatID, messages.LanguagePrompt(lang), markup)
}
