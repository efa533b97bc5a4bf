package types

// Quota names a feature entitlement. Counter quotas hold a remaining
// number of uses, flag quotas gate a feature on or off.
type Quota string

const (
	QuotaTextBasic     Quota = "text_basic"
	QuotaTextAdvanced  Quota = "text_advanced"
	QuotaImageBasic    Quota = "image_basic"
	QuotaImagePremium  Quota = "image_premium"
	QuotaMusic         Quota = "music"
	QuotaVideo         Quota = "video"
	QuotaFaceSwap      Quota = "face_swap"
	QuotaExtraChats    Quota = "extra_chats"
	QuotaCatalogAccess Quota = "catalog_access"
	QuotaVoiceReplies  Quota = "voice_replies"
	QuotaFastReplies   Quota = "fast_replies"
)

// CounterQuotas lists every counter quota; FlagQuotas every boolean gate.
// User quota maps are built exhaustively from these two slices so no key
// is ever missing at lookup time.
var CounterQuotas = []Quota{
	QuotaTextBasic,
	QuotaTextAdvanced,
	QuotaImageBasic,
	QuotaImagePremium,
	QuotaMusic,
	QuotaVideo,
	QuotaFaceSwap,
	QuotaExtraChats,
}

var FlagQuotas = []Quota{
	QuotaCatalogAccess,
	QuotaVoiceReplies,
	QuotaFastReplies,
}

func (q Quota) IsCounter() bool {
	for _, c := range CounterQuotas {
		if q == c {
			return true
		}
	}
	return false
}

type SubscriptionTier string

const (
	TierFree     SubscriptionTier = "free"
	TierStandard SubscriptionTier = "standard"
	TierVIP      SubscriptionTier = "vip"
	TierPremium  SubscriptionTier = "premium"
)

type SubscriptionPeriod string

const (
	PeriodMonth1   SubscriptionPeriod = "month_1"
	PeriodMonths3  SubscriptionPeriod = "months_3"
	PeriodMonths6  SubscriptionPeriod = "months_6"
	PeriodMonths12 SubscriptionPeriod = "months_12"
)

// Months returns the commitment length; unknown periods count as one month.
func (p SubscriptionPeriod) Months() int {
	switch p {
	case PeriodMonths3:
		return 3
	case PeriodMonths6:
		return 6
	case PeriodMonths12:
		return 12
	default:
		return 1
	}
}

type SubscriptionStatus string

const (
	SubscriptionWaiting  SubscriptionStatus = "waiting"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrial    SubscriptionStatus = "trial"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionFinished SubscriptionStatus = "finished"
)

type PackageStatus string

const (
	PackageWaiting  PackageStatus = "waiting"
	PackageSuccess  PackageStatus = "success"
	PackageCanceled PackageStatus = "canceled"
	PackageError    PackageStatus = "error"
)

type PaymentMethod string

const (
	PaymentYooKassa PaymentMethod = "yookassa"
	PaymentStripe   PaymentMethod = "stripe"
	PaymentStars    PaymentMethod = "telegram_stars"
)

type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	XTR Currency = "XTR"
)

type ProductType string

const (
	ProductSubscription ProductType = "subscription"
	ProductPackage      ProductType = "package"
)
