package billing

import (
	"errors"
	"time"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/types"
)

var (
	ErrSubscriptionNotPending = errors.New("subscription is not pending")
	ErrSubscriptionNotActive  = errors.New("subscription is not active")
	ErrSubscriptionNotExpired = errors.New("subscription has not expired")
)

// limitRefreshInterval is how long a subscriber's periodic limits stay
// valid before the sweep re-issues them.
const limitRefreshInterval = 30 * 24 * time.Hour

// TrialEligible reports whether a first payment may open as a trial: the
// user must have no subscription history and the payment method must
// support trial invoices (Telegram Stars does not).
func TrialEligible(priorSubscriptions int, method types.PaymentMethod) bool {
	return priorSubscriptions == 0 && method != types.PaymentStars
}

// ActivateSubscription transitions WAITING -> ACTIVE (or TRIAL), stamps
// the billing window, points the user at the subscription and installs
// the tier's limit table. Caller persists both records in one transaction.
func ActivateSubscription(sub *types.Subscription, u *types.User, chargeID string, trial bool, now time.Time) error {
	if sub.Status != types.SubscriptionWaiting {
		return ErrSubscriptionNotPending
	}
	sub.Status = types.SubscriptionActive
	if trial {
		sub.Status = types.SubscriptionTrial
	}
	sub.ProviderChargeID = chargeID
	sub.StartDate = now
	sub.EndDate = now.AddDate(0, sub.Period.Months(), 0)
	sub.UpdatedAt = now

	u.SubscriptionID = sub.ID
	u.DailyLimits = catalog.TierLimits(sub.Tier)
	u.LastLimitRefresh = now
	u.UpdatedAt = now
	return nil
}

// CancelSubscription is the user-initiated, reversible-until-expiry
// transition: the record keeps granting access until its end date, after
// which the sweep finishes it.
func CancelSubscription(sub *types.Subscription, now time.Time) error {
	if sub.Status != types.SubscriptionActive && sub.Status != types.SubscriptionTrial {
		return ErrSubscriptionNotActive
	}
	sub.Status = types.SubscriptionCanceled
	sub.UpdatedAt = now
	return nil
}

// FinishSubscription closes out a subscription whose end date has passed:
// FINISHED status, free-tier limits, current pointer cleared.
func FinishSubscription(sub *types.Subscription, u *types.User, now time.Time) error {
	switch sub.Status {
	case types.SubscriptionActive, types.SubscriptionTrial, types.SubscriptionCanceled:
	default:
		return ErrSubscriptionNotActive
	}
	if now.Before(sub.EndDate) {
		return ErrSubscriptionNotExpired
	}
	sub.Status = types.SubscriptionFinished
	sub.UpdatedAt = now

	if u.SubscriptionID == sub.ID {
		u.SubscriptionID = ""
		u.DailyLimits = catalog.TierLimits(types.TierFree)
		u.LastLimitRefresh = now
		u.UpdatedAt = now
	}
	return nil
}

// NeedsLimitRefresh reports whether 30 days have elapsed since the user's
// periodic limits were last issued.
func NeedsLimitRefresh(u *types.User, now time.Time) bool {
	return now.Sub(u.LastLimitRefresh) >= limitRefreshInterval
}

// RefreshLimits re-issues the periodic tier of the user's quota from the
// subscription tier table and stamps the refresh time. The purchased tier
// is untouched.
func RefreshLimits(u *types.User, tier types.SubscriptionTier, now time.Time) {
	u.DailyLimits = catalog.TierLimits(tier)
	u.LastLimitRefresh = now
	u.UpdatedAt = now
}
