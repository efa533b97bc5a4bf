package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/contextkeys"
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/store"
	"nova-ai-bot/types"
)

type Middlewares struct {
	users types.UserStore
	state types.StateStore
	log   *logger.Logger
}

func New(users types.UserStore, state types.StateStore, log *logger.Logger) *Middlewares {
	return &Middlewares{users: users, state: state, log: log}
}

func updateFrom(update *models.Update) *models.User {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From
	default:
		return nil
	}
}

// EnsureUserMiddleware bootstraps the user record on first contact:
// exhaustive free-tier quota maps, currency derived from the client
// language. A blocked user who writes again is unmarked.
func (m *Middlewares) EnsureUserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		from := updateFrom(update)
		if from == nil || from.ID == 0 {
			return
		}
		chatID := from.ID
		if update.Message != nil {
			chatID = update.Message.Chat.ID
		}

		u, err := m.users.GetUser(ctx, from.ID)
		if errors.Is(err, store.ErrNotFound) {
			lang := i18n.FromLanguageCode(from.LanguageCode)
			currency := types.USD
			if lang == i18n.RU {
				currency = types.RUB
			}
			u = &types.User{
				ID:               from.ID,
				ChatID:           chatID,
				Username:         strings.TrimSpace(from.Username),
				FirstName:        strings.TrimSpace(from.FirstName),
				LanguageCode:     from.LanguageCode,
				Currency:         currency,
				DailyLimits:      catalog.TierLimits(types.TierFree),
				AdditionalQuota:  types.NewUserQuota(),
				LastLimitRefresh: time.Now().UTC(),
			}
			err = m.users.CreateUser(ctx, u)
		}
		if err != nil {
			m.log.Errorw("user bootstrap failed", "user_id", from.ID, "error", err)
			return
		}
		if u.IsBlocked {
			// They are talking to us again.
			_ = m.users.SetBlocked(ctx, u.ID, false)
		}

		lang, _ := m.state.GetLang(from.ID)
		if lang == "" {
			lang = string(i18n.FromLanguageCode(from.LanguageCode))
		}
		next(contextkeys.WithLang(ctx, lang), b, update)
	}
}

// AnalyzeUpdateMiddleware classifies the update so the main handler can
// dispatch on a single typed key.
func (m *Middlewares) AnalyzeUpdateMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		switch {
		case update.PreCheckoutQuery != nil:
			ctx = contextkeys.WithUpdateType(ctx, contextkeys.UpdateTypePreCheckout)
		case update.Message != nil && update.Message.SuccessfulPayment != nil:
			ctx = contextkeys.WithUpdateType(ctx, contextkeys.UpdateTypePayment)
		case update.CallbackQuery != nil && update.CallbackQuery.Data != "":
			ctx = contextkeys.WithUpdateType(ctx, contextkeys.UpdateTypeCallback)
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
		case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
			ctx = contextkeys.WithUpdateType(ctx, contextkeys.UpdateTypeCommand)
		case update.Message != nil && update.Message.Text != "":
			ctx = contextkeys.WithUpdateType(ctx, contextkeys.UpdateTypeText)
		default:
			ctx = contextkeys.WithUpdateType(ctx, contextkeys.UpdateTypeUnknown)
		}
		next(ctx, b, update)
	}
}
