package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nova-ai-bot/internal/ai"
	"nova-ai-bot/internal/contextkeys"
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/internal/messages"
	"nova-ai-bot/internal/payments"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/types"
)

type Handlers struct {
	users    types.UserStore
	billing  types.BillingStore
	state    types.StateStore
	invoicer *payments.Invoicer
	stripe   *payments.StripeClient
	ai       *ai.Client
	log      *logger.Logger

	adminChatID int64
}

func New(users types.UserStore, billing types.BillingStore, state types.StateStore, invoicer *payments.Invoicer, stripe *payments.StripeClient, aiClient *ai.Client, log *logger.Logger, adminChatID int64) *Handlers {
	return &Handlers{
		users:       users,
		billing:     billing,
		state:       state,
		invoicer:    invoicer,
		stripe:      stripe,
		ai:          aiClient,
		log:         log,
		adminChatID: adminChatID,
	}
}

// MainHandler dispatches on the update type the analyzer middleware put
// into the context.
func (h *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	t, _ := contextkeys.GetUpdateType(ctx)
	switch t {
	case contextkeys.UpdateTypeCommand:
		h.HandleCommand(ctx, b, update)
	case contextkeys.UpdateTypeText:
		h.HandleText(ctx, b, update)
	case contextkeys.UpdateTypeCallback:
		h.HandleCallback(ctx, b, update)
	case contextkeys.UpdateTypePreCheckout:
		h.HandlePreCheckout(ctx, b, update)
	case contextkeys.UpdateTypePayment:
		h.HandleSuccessfulPayment(ctx, b, update)
	default:
		chatID := getChatIDFromUpdate(update)
		if chatID != 0 {
			h.send(ctx, b, chatID, messages.ErrorUnsupportedUpdate(langFromCtx(ctx)))
		}
	}
}

func getChatIDFromUpdate(update *models.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From.ID
	default:
		return 0
	}
}

func getUserIDFromUpdate(update *models.Update) int64 {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From.ID
	default:
		return 0
	}
}

func langFromCtx(ctx context.Context) i18n.Lang {
	if s, ok := contextkeys.GetLang(ctx); ok {
		return i18n.Parse(s)
	}
	return i18n.EN
}

func (h *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.sendWithMarkup(ctx, b, chatID, text, nil)
}

func (h *Handlers) sendWithMarkup(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.log.Errorw("send failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.log.Warnw("answering callback failed", "error", err)
	}
}

// alertAdmin forwards an operational error to the admin chat so billing
// incidents surface immediately.
func (h *Handlers) alertAdmin(ctx context.Context, b *bot.Bot, err error, scope string) {
	if h.adminChatID == 0 || err == nil {
		return
	}
	_, serr := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    h.adminChatID,
		Text:      messages.AdminAlert(err, scope),
		ParseMode: messages.ParseModeHTML,
	})
	if serr != nil {
		h.log.Errorw("admin alert failed", "error", serr)
	}
}
