package messages

import (
	"fmt"
	"strings"
	"time"

	"nova-ai-bot/internal/i18n"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func StartWelcome(lang i18n.Lang, firstName string) string {
	name := Escape(firstName)
	if lang == i18n.RU {
		if name == "" {
			name = "друг"
		}
		return fmt.Sprintf("👋 <b>Привет, %s!</b>\nЯ помогу создавать тексты и изображения с помощью нейросетей.\n\n✍️ Просто напишите сообщение — я отвечу.\n💎 /buy — подписки и пакеты\n👤 /profile — ваши лимиты", name)
	}
	if name == "" {
		name = "friend"
	}
	return fmt.Sprintf("👋 <b>Hi, %s!</b>\nI generate texts and images with AI models.\n\n✍️ Just send a message and I will reply.\n💎 /buy — subscriptions and packages\n👤 /profile — your limits", name)
}

func ErrorDefault(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🚫 <b>Что-то пошло не так</b>\nПопробуйте ещё раз."
	}
	return "🚫 <b>Something went wrong</b>\nPlease try again."
}

func ErrorUnknownCommand(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "❓ <b>Команда не найдена</b>"
	}
	return "❓ <b>Unknown command</b>"
}

func ErrorUnsupportedUpdate(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🤖 <b>Я так не умею</b>\nОтправьте текст или команду."
	}
	return "🤖 <b>I can't handle that</b>\nSend text or a command."
}

func QuotaExhausted(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "⌛️ <b>Лимит исчерпан</b>\nКупите пакет или оформите подписку: /buy"
	}
	return "⌛️ <b>You are out of quota</b>\nBuy a package or subscribe: /buy"
}

func ComingSoon(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🛠 <b>Скоро!</b>\nЭта функция ещё в разработке."
	}
	return "🛠 <b>Coming soon!</b>\nThis feature is still in the works."
}

func GenerationFailed(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🚫 <b>Не удалось сгенерировать ответ</b>\nЛимит не списан, попробуйте ещё раз."
	}
	return "🚫 <b>Generation failed</b>\nNothing was charged, please try again."
}

func Profile(lang i18n.Lang, tier string, daily, additional map[string]int, flags []string, subUntil *time.Time) string {
	var b strings.Builder
	if lang == i18n.RU {
		b.WriteString("👤 <b>Профиль</b>\n")
		b.WriteString(fmt.Sprintf("Тариф: <b>%s</b>\n", Escape(tier)))
		if subUntil != nil {
			b.WriteString(fmt.Sprintf("Подписка до: <b>%s</b>\n", subUntil.Format("02.01.2006")))
		}
		b.WriteString("\n<b>Лимиты (период / куплено):</b>\n")
	} else {
		b.WriteString("👤 <b>Profile</b>\n")
		b.WriteString(fmt.Sprintf("Plan: <b>%s</b>\n", Escape(tier)))
		if subUntil != nil {
			b.WriteString(fmt.Sprintf("Subscribed until: <b>%s</b>\n", subUntil.Format("2006-01-02")))
		}
		b.WriteString("\n<b>Limits (periodic / purchased):</b>\n")
	}
	for name, d := range daily {
		b.WriteString(fmt.Sprintf("• %s: %d / %d\n", Escape(name), d, additional[name]))
	}
	if len(flags) > 0 {
		if lang == i18n.RU {
			b.WriteString("\n<b>Включено:</b> ")
		} else {
			b.WriteString("\n<b>Enabled:</b> ")
		}
		b.WriteString(Escape(strings.Join(flags, ", ")))
	}
	return b.String()
}

func BuyMenu(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "💎 <b>Магазин</b>\nВыберите, что хотите купить:"
	}
	return "💎 <b>Store</b>\nChoose what to buy:"
}

func BuyBtnSubscriptions(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🗓 Подписки"
	}
	return "🗓 Subscriptions"
}

func BuyBtnPackages(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "📦 Пакеты"
	}
	return "📦 Packages"
}

func BuyBtnCart(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🛒 Корзина"
	}
	return "🛒 Cart"
}

func SubscriptionMenu(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🗓 <b>Подписки</b>\nВыберите тариф и срок:"
	}
	return "🗓 <b>Subscriptions</b>\nPick a plan and a period:"
}

func PackageMenu(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "📦 <b>Пакеты</b>\nРазовые покупки, не сгорают:"
	}
	return "📦 <b>Packages</b>\nOne-time purchases that do not reset:"
}

func QuantityPrompt(lang i18n.Lang, product string, minQty int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("🔢 <b>Сколько %s?</b>\nМинимум: %d. Отправьте число.", Escape(product), minQty)
	}
	return fmt.Sprintf("🔢 <b>How many %s?</b>\nMinimum: %d. Send a number.", Escape(product), minQty)
}

func QuantityNotANumber(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "✍️ <b>Нужно число</b>\nОтправьте количество цифрами."
	}
	return "✍️ <b>That is not a number</b>\nSend the quantity as digits."
}

func QuantityBelowMinimum(lang i18n.Lang, minQty int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("⚠️ <b>Слишком мало</b>\nМинимальное количество: %d. Попробуйте ещё раз.", minQty)
	}
	return fmt.Sprintf("⚠️ <b>Too few</b>\nThe minimum quantity is %d. Try again.", minQty)
}

func CartAdded(lang i18n.Lang, product string, qty int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("🛒 <b>Добавлено в корзину</b>\n%s × %d\n\nОформить: /buy → Корзина", Escape(product), qty)
	}
	return fmt.Sprintf("🛒 <b>Added to cart</b>\n%s × %d\n\nCheckout: /buy → Cart", Escape(product), qty)
}

func CartEmpty(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🛒 <b>Корзина пуста</b>"
	}
	return "🛒 <b>Your cart is empty</b>"
}

func CartView(lang i18n.Lang, lines []string, total string, currency string) string {
	header := "🛒 <b>Cart</b>\n"
	footer := fmt.Sprintf("\n<b>Total:</b> %s %s", Escape(total), Escape(currency))
	if lang == i18n.RU {
		header = "🛒 <b>Корзина</b>\n"
		footer = fmt.Sprintf("\n<b>Итого:</b> %s %s", Escape(total), Escape(currency))
	}
	return header + strings.Join(lines, "\n") + footer
}

func PayBtnStars(_ i18n.Lang) string {
	return "⭐️ Telegram Stars"
}

func PayBtnYooKassa(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "💳 ЮKassa"
	}
	return "💳 YooKassa"
}

func PayBtnCard(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "💳 Карта (Stripe)"
	}
	return "💳 Card (Stripe)"
}

func PaymentMethodPrompt(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "💰 <b>Способ оплаты</b>\nВыберите, как оплатить:"
	}
	return "💰 <b>Payment method</b>\nChoose how to pay:"
}

func CartBtnCheckout(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "✅ Оплатить"
	}
	return "✅ Checkout"
}

func CartBtnClear(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🗑 Очистить"
	}
	return "🗑 Clear"
}

func CheckoutStripeLink(lang i18n.Lang, url string) string {
	if lang == i18n.RU {
		return fmt.Sprintf("💳 <b>Оплата картой</b>\nПерейдите по ссылке:\n%s", Escape(url))
	}
	return fmt.Sprintf("💳 <b>Card payment</b>\nFollow the link:\n%s", Escape(url))
}

func InvoiceSubscriptionTitle(lang i18n.Lang, tier, period string) string {
	return fmt.Sprintf("%s · %s", tier, period)
}

func InvoiceSubscriptionDescription(lang i18n.Lang, tier string) string {
	if lang == i18n.RU {
		return fmt.Sprintf("Подписка на тариф %s", tier)
	}
	return fmt.Sprintf("Subscription to the %s plan", tier)
}

func InvoiceCartTitle(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "Пакеты нейросетей"
	}
	return "AI packages"
}

func InvoiceCartDescription(lang i18n.Lang, items int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("Покупка пакетов: %d поз.", items)
	}
	return fmt.Sprintf("Package purchase, %d item(s)", items)
}

func PreCheckoutInvalid(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "Некорректный платёж"
	}
	return "Invalid payment"
}

func PaymentAlreadyProcessed(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "ℹ️ <b>Этот платёж уже обработан</b>"
	}
	return "ℹ️ <b>This payment has already been processed</b>"
}

func PackageApplied(lang i18n.Lang, product string, qty int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("✅ <b>Покупка зачислена</b>\n%s × %d добавлено к вашим лимитам.", Escape(product), qty)
	}
	return fmt.Sprintf("✅ <b>Purchase credited</b>\n%s × %d added to your limits.", Escape(product), qty)
}

func SubscriptionActivated(lang i18n.Lang, tier string, until time.Time, trial bool) string {
	if lang == i18n.RU {
		head := "✅ <b>Подписка активна</b>"
		if trial {
			head = "✅ <b>Пробный период начался</b>"
		}
		return fmt.Sprintf("%s\nТариф <b>%s</b> до %s.", head, Escape(tier), until.Format("02.01.2006"))
	}
	head := "✅ <b>Subscription active</b>"
	if trial {
		head = "✅ <b>Trial started</b>"
	}
	return fmt.Sprintf("%s\nPlan <b>%s</b> until %s.", head, Escape(tier), until.Format("2006-01-02"))
}

func SubscriptionCanceled(lang i18n.Lang, until time.Time) string {
	if lang == i18n.RU {
		return fmt.Sprintf("🗓 <b>Подписка отменена</b>\nДоступ сохранится до %s.", until.Format("02.01.2006"))
	}
	return fmt.Sprintf("🗓 <b>Subscription canceled</b>\nAccess remains until %s.", until.Format("2006-01-02"))
}

func NoSubscriptionToCancel(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "ℹ️ <b>У вас нет активной подписки</b>\nОформить: /buy"
	}
	return "ℹ️ <b>You have no active subscription</b>\nSubscribe: /buy"
}

func SubscriptionExpired(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "⌛️ <b>Подписка закончилась</b>\nВы переведены на бесплатный тариф. Продлить: /buy"
	}
	return "⌛️ <b>Your subscription has ended</b>\nYou are back on the free plan. Renew: /buy"
}

func LimitsRefreshed(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🔄 <b>Лимиты обновлены</b>\nМесячные лимиты вашего тарифа выданы заново."
	}
	return "🔄 <b>Limits refreshed</b>\nYour plan's monthly limits have been re-issued."
}

func PackageExpired(lang i18n.Lang, product string) string {
	if lang == i18n.RU {
		return fmt.Sprintf("⌛️ <b>Пакет закончился</b>\nСрок действия «%s» истёк. Продлить: /buy", Escape(product))
	}
	return fmt.Sprintf("⌛️ <b>Package expired</b>\nYour \"%s\" entitlement has lapsed. Renew: /buy", Escape(product))
}

func Bonus(lang i18n.Lang, balance string) string {
	if lang == i18n.RU {
		return fmt.Sprintf("🎁 <b>Бонусный баланс:</b> %s", Escape(balance))
	}
	return fmt.Sprintf("🎁 <b>Bonus balance:</b> %s", Escape(balance))
}

func LanguagePrompt(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 <b>Выберите язык</b>"
	}
	return "🌐 <b>Choose your language</b>"
}

func LanguageSwitched(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "🌐 <b>Язык переключён на русский</b>"
	}
	return "🌐 <b>Language switched to English</b>"
}

func AdminDenied(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "⛔️ <b>Недостаточно прав</b>"
	}
	return "⛔️ <b>Permission denied</b>"
}

func AdminGrantUsage(lang i18n.Lang) string {
	if lang == i18n.RU {
		return "Использование: /grant &lt;user_id&gt; &lt;quota&gt; &lt;количество&gt;"
	}
	return "Usage: /grant &lt;user_id&gt; &lt;quota&gt; &lt;amount&gt;"
}

func AdminGrantDone(lang i18n.Lang, quota string, amount int) string {
	if lang == i18n.RU {
		return fmt.Sprintf("✅ Начислено: %s × %d", Escape(quota), amount)
	}
	return fmt.Sprintf("✅ Granted: %s × %d", Escape(quota), amount)
}

func AdminAlert(err error, context string) string {
	return fmt.Sprintf("🚨 <b>Bot error</b>\n%s\n<code>%s</code>", Escape(context), Escape(err.Error()))
}
