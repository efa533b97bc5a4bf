package messages

import (
	"nova-ai-bot/internal/i18n"
	"nova-ai-bot/types"
)

var quotaNamesEN = map[types.Quota]string{
	types.QuotaTextBasic:     "basic text replies",
	types.QuotaTextAdvanced:  "advanced text replies",
	types.QuotaImageBasic:    "standard images",
	types.QuotaImagePremium:  "premium images",
	types.QuotaMusic:         "music tracks",
	types.QuotaVideo:         "videos",
	types.QuotaFaceSwap:      "face swaps",
	types.QuotaExtraChats:    "extra chats",
	types.QuotaCatalogAccess: "role catalog",
	types.QuotaVoiceReplies:  "voice replies",
	types.QuotaFastReplies:   "fast replies",
}

var quotaNamesRU = map[types.Quota]string{
	types.QuotaTextBasic:     "базовые ответы",
	types.QuotaTextAdvanced:  "продвинутые ответы",
	types.QuotaImageBasic:    "обычные изображения",
	types.QuotaImagePremium:  "премиум-изображения",
	types.QuotaMusic:         "музыкальные треки",
	types.QuotaVideo:         "видео",
	types.QuotaFaceSwap:      "замены лица",
	types.QuotaExtraChats:    "дополнительные чаты",
	types.QuotaCatalogAccess: "каталог ролей",
	types.QuotaVoiceReplies:  "голосовые ответы",
	types.QuotaFastReplies:   "быстрые ответы",
}

var tierNamesEN = map[types.SubscriptionTier]string{
	types.TierFree:     "Free",
	types.TierStandard: "Standard",
	types.TierVIP:      "VIP",
	types.TierPremium:  "Premium",
}

var tierNamesRU = map[types.SubscriptionTier]string{
	types.TierFree:     "Бесплатный",
	types.TierStandard: "Стандарт",
	types.TierVIP:      "VIP",
	types.TierPremium:  "Премиум",
}

func QuotaName(lang i18n.Lang, q types.Quota) string {
	if lang == i18n.RU {
		if n, ok := quotaNamesRU[q]; ok {
			return n
		}
	}
	if n, ok := quotaNamesEN[q]; ok {
		return n
	}
	return string(q)
}

func TierName(lang i18n.Lang, tier types.SubscriptionTier) string {
	if lang == i18n.RU {
		if n, ok := tierNamesRU[tier]; ok {
			return n
		}
	}
	if n, ok := tierNamesEN[tier]; ok {
		return n
	}
	return string(tier)
}

func PeriodName(lang i18n.Lang, p types.SubscriptionPeriod) string {
	months := p.Months()
	if lang == i18n.RU {
		switch months {
		case 1:
			return "1 месяц"
		case 3:
			return "3 месяца"
		case 6:
			return "6 месяцев"
		default:
			return "12 месяцев"
		}
	}
	if months == 1 {
		return "1 month"
	}
	return map[int]string{3: "3 months", 6: "6 months", 12: "12 months"}[months]
}
