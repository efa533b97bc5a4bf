package catalog

import "nova-ai-bot/types"

// tierLimits is the daily/monthly limit table per subscription tier.
// Values are handed out as clones so callers can mutate freely.
var tierLimits = map[types.SubscriptionTier]types.UserQuota{
	types.TierFree: {
		Counts: map[types.Quota]int{
			types.QuotaTextBasic:    10,
			types.QuotaTextAdvanced: 0,
			types.QuotaImageBasic:   3,
			types.QuotaImagePremium: 0,
			types.QuotaMusic:        0,
			types.QuotaVideo:        0,
			types.QuotaFaceSwap:     0,
			types.QuotaExtraChats:   1,
		},
		Flags: map[types.Quota]bool{
			types.QuotaCatalogAccess: false,
			types.QuotaVoiceReplies:  false,
			types.QuotaFastReplies:   false,
		},
	},
	types.TierStandard: {
		Counts: map[types.Quota]int{
			types.QuotaTextBasic:    100,
			types.QuotaTextAdvanced: 10,
			types.QuotaImageBasic:   20,
			types.QuotaImagePremium: 5,
			types.QuotaMusic:        5,
			types.QuotaVideo:        1,
			types.QuotaFaceSwap:     10,
			types.QuotaExtraChats:   5,
		},
		Flags: map[types.Quota]bool{
			types.QuotaCatalogAccess: true,
			types.QuotaVoiceReplies:  false,
			types.QuotaFastReplies:   false,
		},
	},
	types.TierVIP: {
		Counts: map[types.Quota]int{
			types.QuotaTextBasic:    300,
			types.QuotaTextAdvanced: 30,
			types.QuotaImageBasic:   50,
			types.QuotaImagePremium: 15,
			types.QuotaMusic:        15,
			types.QuotaVideo:        3,
			types.QuotaFaceSwap:     30,
			types.QuotaExtraChats:   10,
		},
		Flags: map[types.Quota]bool{
			types.QuotaCatalogAccess: true,
			types.QuotaVoiceReplies:  true,
			types.QuotaFastReplies:   false,
		},
	},
	types.TierPremium: {
		Counts: map[types.Quota]int{
			types.QuotaTextBasic:    1000,
			types.QuotaTextAdvanced: 100,
			types.QuotaImageBasic:   150,
			types.QuotaImagePremium: 50,
			types.QuotaMusic:        50,
			types.QuotaVideo:        10,
			types.QuotaFaceSwap:     100,
			types.QuotaExtraChats:   20,
		},
		Flags: map[types.Quota]bool{
			types.QuotaCatalogAccess: true,
			types.QuotaVoiceReplies:  true,
			types.QuotaFastReplies:   true,
		},
	},
}

// tierDiscount is the storewide package discount a subscriber enjoys.
var tierDiscount = map[types.SubscriptionTier]int{
	types.TierFree:     0,
	types.TierStandard: 5,
	types.TierVIP:      10,
	types.TierPremium:  15,
}

// TierLimits returns the limit table for a tier; unknown tiers fall back
// to the free tier.
func TierLimits(tier types.SubscriptionTier) types.UserQuota {
	if q, ok := tierLimits[tier]; ok {
		return q.Clone()
	}
	return tierLimits[types.TierFree].Clone()
}

func TierDiscount(tier types.SubscriptionTier) int {
	return tierDiscount[tier]
}
