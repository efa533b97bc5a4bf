package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/internal/contextkeys"
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/internal/messages"
	"nova-ai-bot/internal/payments"
	"nova-ai-bot/types"
)

func (h *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	cb := update.CallbackQuery
	data, _ := contextkeys.GetCallbackData(ctx)
	lang := langFromCtx(ctx)
	userID := cb.From.ID
	chatID := getChatIDFromUpdate(update)
	if chatID == 0 {
		chatID = userID
	}
	h.answerCallback(ctx, b, cb.ID, "")

	parts := strings.Split(data, ":")
	switch parts[0] {
	case "buy":
		if len(parts) < 2 {
			return
		}
		switch parts[1] {
		case "subs":
			h.sendSubscriptionMenu(ctx, b, chatID, userID, lang)
		case "pkgs":
			h.sendPackageMenu(ctx, b, chatID, lang)
		case "cart":
			h.sendCartView(ctx, b, chatID, userID, lang)
		}
	case "sub":
		if len(parts) == 2 {
			h.sendPeriodMenu(ctx, b, chatID, userID, lang, parts[1])
		}
	case "subper":
		if len(parts) == 3 {
			h.sendSubscriptionPayMenu(ctx, b, chatID, lang, parts[1], parts[2])
		}
	case "subpay":
		if len(parts) == 4 {
			h.startSubscriptionCheckout(ctx, b, chatID, userID, lang, parts[1], types.SubscriptionPeriod(parts[2]), parts[3])
		}
	case "pkg":
		if len(parts) == 2 {
			h.startQuantityPrompt(ctx, b, chatID, userID, lang, parts[1])
		}
	case "cart":
		if len(parts) < 2 {
			return
		}
		switch parts[1] {
		case "checkout":
			h.sendCartPayMenu(ctx, b, chatID, userID, lang)
		case "clear":
			if err := h.billing.ClearCart(ctx, userID); err != nil {
				h.log.Errorw("clearing cart failed", "user_id", userID, "error", err)
			}
			h.send(ctx, b, chatID, messages.CartEmpty(lang))
		}
	case "cartpay":
		if len(parts) == 2 {
			h.startCartCheckout(ctx, b, chatID, userID, lang, parts[1])
		}
	case "lang":
		if len(parts) == 2 {
			h.switchLanguage(ctx, b, chatID, userID, parts[1])
		}
	default:
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
	}
}

// purchaseDiscount is the discount a checkout gets: the best of the
// user's personal discount, the product discount and the subscriber
// tier discount. Subscribers renewing or upgrading keep their perk.
func (h *Handlers) purchaseDiscount(ctx context.Context, u *types.User, p catalog.Product) int {
	return catalog.EffectiveDiscount(u.Discount, p.Discount, catalog.TierDiscount(h.currentTier(ctx, u)))
}

// currentTier resolves the tier the user is entitled to right now.
func (h *Handlers) currentTier(ctx context.Context, u *types.User) types.SubscriptionTier {
	if !u.HasSubscription() {
		return types.TierFree
	}
	sub, err := h.billing.GetSubscription(ctx, u.SubscriptionID)
	if err != nil || !sub.Granting(time.Now().UTC()) {
		return types.TierFree
	}
	return sub.Tier
}

func (h *Handlers) sendSubscriptionMenu(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	u, err := h.users.GetUser(ctx, userID)
	currency := types.USD
	if err == nil {
		currency = u.Currency
	}
	var rows [][]models.InlineKeyboardButton
	for _, p := range catalog.SubscriptionProducts() {
		label := fmt.Sprintf("%s — %s %s", messages.TierName(lang, p.Tier), catalog.FormatPrice(p.Price(currency)), currency)
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: label, CallbackData: "sub:" + p.ID},
		})
	}
	h.sendWithMarkup(ctx, b, chatID, messages.SubscriptionMenu(lang), &models.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (h *Handlers) sendPeriodMenu(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, productID string) {
	p, ok := catalog.ProductByID(productID)
	if !ok || p.Type != types.ProductSubscription {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	discount := h.purchaseDiscount(ctx, u, p)

	periods := []types.SubscriptionPeriod{
		types.PeriodMonth1, types.PeriodMonths3, types.PeriodMonths6, types.PeriodMonths12,
	}
	var rows [][]models.InlineKeyboardButton
	for _, period := range periods {
		base := p.Price(u.Currency) * float64(period.Months())
		total := catalog.SubscriptionPrice(base, period, discount, u.Currency)
		label := fmt.Sprintf("%s — %s %s", messages.PeriodName(lang, period), catalog.FormatPrice(total), u.Currency)
		if d := catalog.PeriodDiscount(period, discount); d > 0 {
			label += fmt.Sprintf(" (-%d%%)", d)
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: label, CallbackData: fmt.Sprintf("subper:%s:%s", p.ID, period)},
		})
	}
	h.sendWithMarkup(ctx, b, chatID, messages.SubscriptionMenu(lang), &models.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (h *Handlers) payMethodRows(lang i18n.Lang, prefix string) [][]models.InlineKeyboardButton {
	rows := [][]models.InlineKeyboardButton{
		{{Text: messages.PayBtnStars(lang), CallbackData: prefix + "stars"}},
	}
	if h.invoicer.YooKassaEnabled() {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: messages.PayBtnYooKassa(lang), CallbackData: prefix + "yookassa"},
		})
	}
	if h.stripe.Enabled() {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: messages.PayBtnCard(lang), CallbackData: prefix + "stripe"},
		})
	}
	return rows
}

func (h *Handlers) sendSubscriptionPayMenu(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang, productID, period string) {
	prefix := fmt.Sprintf("subpay:%s:%s:", productID, period)
	h.sendWithMarkup(ctx, b, chatID, messages.PaymentMethodPrompt(lang), &models.InlineKeyboardMarkup{InlineKeyboard: h.payMethodRows(lang, prefix)})
}

func methodAndCurrency(key string) (types.PaymentMethod, types.Currency, bool) {
	switch key {
	case "stars":
		return types.PaymentStars, types.XTR, true
	case "yookassa":
		return types.PaymentYooKassa, types.RUB, true
	case "stripe":
		return types.PaymentStripe, types.USD, true
	default:
		return "", "", false
	}
}

func (h *Handlers) startSubscriptionCheckout(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, productID string, period types.SubscriptionPeriod, methodKey string) {
	p, ok := catalog.ProductByID(productID)
	if !ok || p.Type != types.ProductSubscription {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	method, currency, ok := methodAndCurrency(methodKey)
	if !ok {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}

	discount := h.purchaseDiscount(ctx, u, p)
	base := p.Price(currency) * float64(period.Months())
	amount := catalog.SubscriptionPrice(base, period, discount, currency)

	now := time.Now().UTC()
	sub := &types.Subscription{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProductID:     p.ID,
		Tier:          p.Tier,
		Period:        period,
		Status:        types.SubscriptionWaiting,
		Currency:      currency,
		Amount:        amount,
		PaymentMethod: method,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.billing.CreateSubscription(ctx, sub); err != nil {
		h.log.Errorw("creating subscription failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}

	payload := payments.SubscriptionPayload(sub.ID)
	title := messages.InvoiceSubscriptionTitle(lang, messages.TierName(lang, p.Tier), messages.PeriodName(lang, period))
	description := messages.InvoiceSubscriptionDescription(lang, messages.TierName(lang, p.Tier))

	if method == types.PaymentStripe {
		_, url, err := h.stripe.CreateCheckoutSession(payload, title, int64(payments.MinorUnits(amount, currency)))
		if err != nil {
			h.log.Errorw("stripe session failed", "user_id", userID, "error", err)
			h.alertAdmin(ctx, b, err, "stripe checkout session")
			h.send(ctx, b, chatID, messages.ErrorDefault(lang))
			return
		}
		h.send(ctx, b, chatID, messages.CheckoutStripeLink(lang, url))
		return
	}

	err = h.invoicer.SendInvoice(ctx, b, chatID, method, currency, payments.MinorUnits(amount, currency), payload, title, description)
	if err != nil {
		h.log.Errorw("sending invoice failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
	}
}

func (h *Handlers) sendPackageMenu(ctx context.Context, b *bot.Bot, chatID int64, lang i18n.Lang) {
	var rows [][]models.InlineKeyboardButton
	for _, p := range catalog.PackageProducts() {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: messages.QuotaName(lang, p.Quota), CallbackData: "pkg:" + p.ID},
		})
	}
	h.sendWithMarkup(ctx, b, chatID, messages.PackageMenu(lang), &models.InlineKeyboardMarkup{InlineKeyboard: rows})
}

func (h *Handlers) startQuantityPrompt(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, productID string) {
	p, ok := catalog.ProductByID(productID)
	if !ok || p.Type != types.ProductPackage {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	err := h.state.SetState(&types.ConvState{
		UserID:    userID,
		Step:      types.StepAwaitQuantity,
		Data:      map[string]string{"product_id": p.ID},
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		h.log.Errorw("saving conversation state failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	h.send(ctx, b, chatID, messages.QuantityPrompt(lang, messages.QuotaName(lang, p.Quota), p.MinQuantity))
}

func (h *Handlers) sendCartView(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	cart, err := h.billing.GetCart(ctx, userID)
	if err != nil {
		h.log.Errorw("loading cart failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	if len(cart.Items) == 0 {
		h.send(ctx, b, chatID, messages.CartEmpty(lang))
		return
	}

	discount := catalog.EffectiveDiscount(u.Discount, catalog.TierDiscount(h.currentTier(ctx, u)))
	var lines []string
	total := 0.0
	for _, item := range cart.Items {
		p, ok := catalog.ProductByID(item.ProductID)
		if !ok {
			continue
		}
		price := catalog.PackagePrice(p.Price(u.Currency), item.Quantity, catalog.EffectiveDiscount(discount, p.Discount))
		total += price
		lines = append(lines, fmt.Sprintf("• %s × %d — %s %s", messages.QuotaName(lang, p.Quota), item.Quantity, catalog.FormatPrice(price), u.Currency))
	}
	markup := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: messages.CartBtnCheckout(lang), CallbackData: "cart:checkout"}},
			{{Text: messages.CartBtnClear(lang), CallbackData: "cart:clear"}},
		},
	}
	h.sendWithMarkup(ctx, b, chatID, messages.CartView(lang, lines, catalog.FormatPrice(total), string(u.Currency)), markup)
}

func (h *Handlers) sendCartPayMenu(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang) {
	cart, err := h.billing.GetCart(ctx, userID)
	if err != nil || len(cart.Items) == 0 {
		h.send(ctx, b, chatID, messages.CartEmpty(lang))
		return
	}
	h.sendWithMarkup(ctx, b, chatID, messages.PaymentMethodPrompt(lang), &models.InlineKeyboardMarkup{InlineKeyboard: h.payMethodRows(lang, "cartpay:")})
}

// startCartCheckout turns the cart into WAITING package records and sends
// one invoice for the whole cart. Starting a new checkout voids any
// earlier pending packages, so at most one live checkout exists per user.
func (h *Handlers) startCartCheckout(ctx context.Context, b *bot.Bot, chatID, userID int64, lang i18n.Lang, methodKey string) {
	method, currency, ok := methodAndCurrency(methodKey)
	if !ok {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	u, err := h.users.GetUser(ctx, userID)
	if err != nil {
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}
	cart, err := h.billing.GetCart(ctx, userID)
	if err != nil || len(cart.Items) == 0 {
		h.send(ctx, b, chatID, messages.CartEmpty(lang))
		return
	}

	if err := h.billing.CancelPendingPackages(ctx, userID); err != nil {
		h.log.Errorw("voiding pending packages failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
		return
	}

	discount := catalog.EffectiveDiscount(u.Discount, catalog.TierDiscount(h.currentTier(ctx, u)))
	now := time.Now().UTC()
	total := 0.0
	items := 0
	for _, item := range cart.Items {
		p, ok := catalog.ProductByID(item.ProductID)
		if !ok || item.Quantity < p.MinQuantity {
			continue
		}
		amount := catalog.PackagePrice(p.Price(currency), item.Quantity, catalog.EffectiveDiscount(discount, p.Discount))
		pkg := &types.Package{
			ID:            uuid.NewString(),
			UserID:        userID,
			ProductID:     p.ID,
			Status:        types.PackageWaiting,
			Currency:      currency,
			Amount:        amount,
			Quantity:      item.Quantity,
			PaymentMethod: method,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := h.billing.CreatePackage(ctx, pkg); err != nil {
			h.log.Errorw("creating package failed", "user_id", userID, "product_id", p.ID, "error", err)
			h.send(ctx, b, chatID, messages.ErrorDefault(lang))
			return
		}
		total += amount
		items++
	}
	if items == 0 {
		h.send(ctx, b, chatID, messages.CartEmpty(lang))
		return
	}

	payload := payments.CartPayload(userID)
	title := messages.InvoiceCartTitle(lang)
	description := messages.InvoiceCartDescription(lang, items)

	if method == types.PaymentStripe {
		_, url, err := h.stripe.CreateCheckoutSession(payload, title, int64(payments.MinorUnits(total, currency)))
		if err != nil {
			h.log.Errorw("stripe session failed", "user_id", userID, "error", err)
			h.alertAdmin(ctx, b, err, "stripe checkout session")
			h.send(ctx, b, chatID, messages.ErrorDefault(lang))
			return
		}
		h.send(ctx, b, chatID, messages.CheckoutStripeLink(lang, url))
		return
	}

	err = h.invoicer.SendInvoice(ctx, b, chatID, method, currency, payments.MinorUnits(total, currency), payload, title, description)
	if err != nil {
		h.log.Errorw("sending invoice failed", "user_id", userID, "error", err)
		h.send(ctx, b, chatID, messages.ErrorDefault(lang))
	}
}

func (h *Handlers) switchLanguage(ctx context.Context, b *bot.Bot, chatID, userID int64, code string) {
	lang := i18n.Parse(code)
	if err := h.state.SetLang(userID, string(lang)); err != nil {
		h.log.Errorw("saving language failed", "user_id", userID, "error", err)
	}
	h.send(ctx, b, chatID, messages.LanguageSwitched(lang))
}
