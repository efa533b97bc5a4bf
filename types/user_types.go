package types

import "time"

// UserQuota is one tier of a user's entitlements: remaining counts for
// counter quotas and on/off state for flag quotas. Both maps are built
// exhaustively, so a missing key is a bug, not a default.
type UserQuota struct {
	Counts map[Quota]int  `json:"counts"`
	Flags  map[Quota]bool `json:"flags"`
}

func NewUserQuota() UserQuota {
	q := UserQuota{
		Counts: make(map[Quota]int, len(CounterQuotas)),
		Flags:  make(map[Quota]bool, len(FlagQuotas)),
	}
	for _, c := range CounterQuotas {
		q.Counts[c] = 0
	}
	for _, f := range FlagQuotas {
		q.Flags[f] = false
	}
	return q
}

// Clone returns a deep copy, so tier templates can be handed out without
// aliasing the shared table.
func (q UserQuota) Clone() UserQuota {
	out := UserQuota{
		Counts: make(map[Quota]int, len(q.Counts)),
		Flags:  make(map[Quota]bool, len(q.Flags)),
	}
	for k, v := range q.Counts {
		out.Counts[k] = v
	}
	for k, v := range q.Flags {
		out.Flags[k] = v
	}
	return out
}

type User struct {
	ID               int64     `json:"id"`
	ChatID           int64     `json:"chat_id"`
	Username         string    `json:"username"`
	FirstName        string    `json:"first_name"`
	LanguageCode     string    `json:"language_code"`
	Currency         Currency  `json:"currency"`
	Balance          float64   `json:"balance"`
	Discount         int       `json:"discount"`
	SubscriptionID   string    `json:"subscription_id"`
	DailyLimits      UserQuota `json:"daily_limits"`
	AdditionalQuota  UserQuota `json:"additional_quota"`
	LastLimitRefresh time.Time `json:"last_limit_refresh"`
	IsBlocked        bool      `json:"is_blocked"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasSubscription reports whether the user currently points at a
// subscription record.
func (u *User) HasSubscription() bool {
	return u.SubscriptionID != ""
}
