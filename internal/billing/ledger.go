package billing

import (
	"errors"
	"fmt"

	"nova-ai-bot/types"
)

var ErrInsufficientQuota = errors.New("insufficient quota")

// Available reports whether one unit of the quota can be spent. Flag
// quotas are available when either tier has the gate open; consuming a
// flag quota never decrements anything.
func Available(u *types.User, quota types.Quota) bool {
	if !quota.IsCounter() {
		return u.DailyLimits.Flags[quota] || u.AdditionalQuota.Flags[quota]
	}
	return u.DailyLimits.Counts[quota]+u.AdditionalQuota.Counts[quota] > 0
}

// Remaining returns the two tiers of a counter quota, daily first.
func Remaining(u *types.User, quota types.Quota) (daily, additional int) {
	return u.DailyLimits.Counts[quota], u.AdditionalQuota.Counts[quota]
}

// Spend consumes n units of a counter quota, draining the periodic tier
// before the purchased one so paid quota is saved for later. Neither tier
// ever goes below zero; a spend that cannot be covered fails without
// mutating the user.
func Spend(u *types.User, quota types.Quota, n int) error {
	if n <= 0 {
		return fmt.Errorf("spend of %d units", n)
	}
	if !quota.IsCounter() {
		if !Available(u, quota) {
			return ErrInsufficientQuota
		}
		return nil
	}
	daily, additional := Remaining(u, quota)
	if daily+additional < n {
		return ErrInsufficientQuota
	}
	fromDaily := n
	if fromDaily > daily {
		fromDaily = daily
	}
	u.DailyLimits.Counts[quota] = daily - fromDaily
	u.AdditionalQuota.Counts[quota] = additional - (n - fromDaily)
	return nil
}
