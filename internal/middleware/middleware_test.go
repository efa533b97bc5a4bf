package middleware

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/contextkeys"
	"nova-ai-bot/pkg/logger"
	"nova-ai-bot/store"
	"nova-ai-bot/types"
)

type fakeUsers struct {
	users   map[int64]*types.User
	created int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[int64]*types.User)}
}

func (f *fakeUsers) GetUser(_ context.Context, userID int64) (*types.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u *types.User) error {
	f.users[u.ID] = u
	f.created++
	return nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, u *types.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUsers) SetBlocked(_ context.Context, userID int64, blocked bool) error {
	if u, ok := f.users[userID]; ok {
		u.IsBlocked = blocked
	}
	return nil
}

func (f *fakeUsers) ListUsersAfter(_ context.Context, _ int64, _ int) ([]*types.User, error) {
	return nil, nil
}

func (f *fakeUsers) SpendQuota(_ context.Context, userID int64, _ types.Quota, _ int) (*types.User, error) {
	return f.users[userID], nil
}

type fakeState struct {
	langs map[int64]string
}

func (f *fakeState) GetState(int64) (*types.ConvState, error) { return nil, nil }
func (f *fakeState) SetState(*types.ConvState) error          { return nil }
func (f *fakeState) ClearState(int64) error                   { return nil }

func (f *fakeState) GetLang(userID int64) (string, error) { return f.langs[userID], nil }
func (f *fakeState) SetLang(userID int64, lang string) error {
	f.langs[userID] = lang
	return nil
}

func messageUpdate(userID int64, langCode, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			Chat: models.Chat{ID: userID},
			From: &models.User{ID: userID, FirstName: "Test", LanguageCode: langCode},
			Text: text,
		},
	}
}

func TestEnsureUserCreatesOnFirstContact(t *testing.T) {
	users := newFakeUsers()
	state := &fakeState{langs: make(map[int64]string)}
	m := New(users, state, logger.NewDevelopment())

	var gotLang string
	next := func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		gotLang, _ = contextkeys.GetLang(ctx)
	}
	m.EnsureUserMiddleware(next)(context.Background(), nil, messageUpdate(7, "ru", "hi"))

	require.Equal(t, 1, users.created)
	u := users.users[7]
	require.NotNil(t, u)
	assert.Equal(t, types.RUB, u.Currency)
	assert.Equal(t, catalog.TierLimits(types.TierFree), u.DailyLimits)
	assert.Equal(t, types.NewUserQuota(), u.AdditionalQuota)
	assert.Equal(t, "ru", gotLang)

	// A second update reuses the record.
	m.EnsureUserMiddleware(next)(context.Background(), nil, messageUpdate(7, "ru", "again"))
	assert.Equal(t, 1, users.created)
}

func TestEnsureUserUnblocksReturningUser(t *testing.T) {
	users := newFakeUsers()
	state := &fakeState{langs: make(map[int64]string)}
	m := New(users, state, logger.NewDevelopment())

	users.users[7] = &types.User{ID: 7, ChatID: 7, LanguageCode: "en", IsBlocked: true}

	called := false
	next := func(context.Context, *bot.Bot, *models.Update) { called = true }
	m.EnsureUserMiddleware(next)(context.Background(), nil, messageUpdate(7, "en", "back"))

	assert.True(t, called)
	assert.False(t, users.users[7].IsBlocked)
}

func TestEnsureUserPrefersStoredLanguage(t *testing.T) {
	users := newFakeUsers()
	state := &fakeState{langs: map[int64]string{7: "en"}}
	m := New(users, state, logger.NewDevelopment())

	var gotLang string
	next := func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		gotLang, _ = contextkeys.GetLang(ctx)
	}
	m.EnsureUserMiddleware(next)(context.Background(), nil, messageUpdate(7, "ru", "hi"))

	assert.Equal(t, "en", gotLang)
}

func TestAnalyzeUpdateClassification(t *testing.T) {
	m := New(newFakeUsers(), &fakeState{langs: map[int64]string{}}, logger.NewDevelopment())

	classify := func(update *models.Update) contextkeys.UpdateType {
		var got contextkeys.UpdateType
		next := func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
			got, _ = contextkeys.GetUpdateType(ctx)
		}
		m.AnalyzeUpdateMiddleware(next)(context.Background(), nil, update)
		return got
	}

	assert.Equal(t, contextkeys.UpdateTypeCommand, classify(messageUpdate(1, "en", "/start")))
	assert.Equal(t, contextkeys.UpdateTypeText, classify(messageUpdate(1, "en", "hello")))
	assert.Equal(t, contextkeys.UpdateTypePreCheckout, classify(&models.Update{
		PreCheckoutQuery: &models.PreCheckoutQuery{ID: "q", From: &models.User{ID: 1}},
	}))
	assert.Equal(t, contextkeys.UpdateTypePayment, classify(&models.Update{
		Message: &models.Message{
			Chat:              models.Chat{ID: 1},
			From:              &models.User{ID: 1},
			SuccessfulPayment: &models.SuccessfulPayment{InvoicePayload: "sub:x"},
		},
	}))

	var gotData string
	next := func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		gotData, _ = contextkeys.GetCallbackData(ctx)
	}
	m.AnalyzeUpdateMiddleware(next)(context.Background(), nil, &models.Update{
		CallbackQuery: &models.CallbackQuery{ID: "cb", From: models.User{ID: 1}, Data: "buy:subs"},
	})
	assert.Equal(t, "buy:subs", gotData)
}
