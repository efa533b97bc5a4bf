package catalog

import (
	"fmt"

	"nova-ai-bot/types"
)

// Product is a sellable catalog entry. Subscription products carry a Tier
// and per-month base prices; package products carry the Quota they credit.
// FlagDays is the entitlement length, in days, of one purchased unit of a
// boolean package.
type Product struct {
	ID          string
	Type        types.ProductType
	Quota       types.Quota
	Tier        types.SubscriptionTier
	Prices      map[types.Currency]float64
	Discount    int
	MinQuantity int
	FlagDays    int
}

// IsFlag reports whether the product grants a time-boxed boolean
// entitlement rather than a counter top-up.
func (p Product) IsFlag() bool {
	return p.Type == types.ProductPackage && !p.Quota.IsCounter()
}

// Price returns the unit price in the given currency. Completeness across
// currencies is checked once by Validate, so a miss here is a programming
// error.
func (p Product) Price(currency types.Currency) float64 {
	return p.Prices[currency]
}

var products = []Product{
	{
		ID:     "sub_standard",
		Type:   types.ProductSubscription,
		Tier:   types.TierStandard,
		Prices: map[types.Currency]float64{types.RUB: 499, types.USD: 4.99, types.XTR: 250},
	},
	{
		ID:     "sub_vip",
		Type:   types.ProductSubscription,
		Tier:   types.TierVIP,
		Prices: map[types.Currency]float64{types.RUB: 999, types.USD: 9.99, types.XTR: 500},
	},
	{
		ID:     "sub_premium",
		Type:   types.ProductSubscription,
		Tier:   types.TierPremium,
		Prices: map[types.Currency]float64{types.RUB: 1999, types.USD: 19.99, types.XTR: 1000},
	},
	{
		ID:          "pkg_text_basic",
		Type:        types.ProductPackage,
		Quota:       types.QuotaTextBasic,
		Prices:      map[types.Currency]float64{types.RUB: 1, types.USD: 0.01, types.XTR: 1},
		MinQuantity: 50,
	},
	{
		ID:          "pkg_text_advanced",
		Type:        types.ProductPackage,
		Quota:       types.QuotaTextAdvanced,
		Prices:      map[types.Currency]float64{types.RUB: 10, types.USD: 0.1, types.XTR: 5},
		MinQuantity: 10,
	},
	{
		ID:          "pkg_image_basic",
		Type:        types.ProductPackage,
		Quota:       types.QuotaImageBasic,
		Prices:      map[types.Currency]float64{types.RUB: 5, types.USD: 0.05, types.XTR: 3},
		MinQuantity: 10,
	},
	{
		ID:          "pkg_image_premium",
		Type:        types.ProductPackage,
		Quota:       types.QuotaImagePremium,
		Prices:      map[types.Currency]float64{types.RUB: 20, types.USD: 0.2, types.XTR: 10},
		MinQuantity: 5,
	},
	{
		ID:          "pkg_music",
		Type:        types.ProductPackage,
		Quota:       types.QuotaMusic,
		Prices:      map[types.Currency]float64{types.RUB: 20, types.USD: 0.2, types.XTR: 10},
		MinQuantity: 5,
	},
	{
		ID:          "pkg_video",
		Type:        types.ProductPackage,
		Quota:       types.QuotaVideo,
		Prices:      map[types.Currency]float64{types.RUB: 100, types.USD: 1, types.XTR: 50},
		MinQuantity: 1,
	},
	{
		ID:          "pkg_face_swap",
		Type:        types.ProductPackage,
		Quota:       types.QuotaFaceSwap,
		Prices:      map[types.Currency]float64{types.RUB: 5, types.USD: 0.05, types.XTR: 3},
		MinQuantity: 10,
	},
	{
		ID:          "pkg_extra_chats",
		Type:        types.ProductPackage,
		Quota:       types.QuotaExtraChats,
		Prices:      map[types.Currency]float64{types.RUB: 50, types.USD: 0.5, types.XTR: 25},
		MinQuantity: 1,
	},
	{
		ID:          "pkg_catalog_access",
		Type:        types.ProductPackage,
		Quota:       types.QuotaCatalogAccess,
		Prices:      map[types.Currency]float64{types.RUB: 100, types.USD: 1, types.XTR: 50},
		MinQuantity: 1,
		FlagDays:    30,
	},
	{
		ID:          "pkg_voice_replies",
		Type:        types.ProductPackage,
		Quota:       types.QuotaVoiceReplies,
		Prices:      map[types.Currency]float64{types.RUB: 150, types.USD: 1.5, types.XTR: 75},
		MinQuantity: 1,
		FlagDays:    30,
	},
	{
		ID:          "pkg_fast_replies",
		Type:        types.ProductPackage,
		Quota:       types.QuotaFastReplies,
		Prices:      map[types.Currency]float64{types.RUB: 150, types.USD: 1.5, types.XTR: 75},
		MinQuantity: 1,
		FlagDays:    30,
	},
}

var byID = func() map[string]Product {
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}()

func Products() []Product {
	return products
}

func ProductByID(id string) (Product, bool) {
	p, ok := byID[id]
	return p, ok
}

func SubscriptionProducts() []Product {
	out := make([]Product, 0, 3)
	for _, p := range products {
		if p.Type == types.ProductSubscription {
			out = append(out, p)
		}
	}
	return out
}

func PackageProducts() []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Type == types.ProductPackage {
			out = append(out, p)
		}
	}
	return out
}

// PackageByQuota maps a quota key back to the package product that sells
// it. Exactly one package exists per sellable quota.
func PackageByQuota(q types.Quota) (Product, bool) {
	for _, p := range products {
		if p.Type == types.ProductPackage && p.Quota == q {
			return p, true
		}
	}
	return Product{}, false
}

var currencies = []types.Currency{types.RUB, types.USD, types.XTR}

// Validate checks the catalog tables for completeness at startup: every
// product priced in every currency, exactly one package per quota, every
// subscription tier present in the limit tables. A broken catalog is a
// configuration error, not a runtime branch.
func Validate() error {
	seen := make(map[types.Quota]string)
	for _, p := range products {
		for _, c := range currencies {
			if _, ok := p.Prices[c]; !ok {
				return fmt.Errorf("catalog: product %s has no %s price", p.ID, c)
			}
		}
		switch p.Type {
		case types.ProductSubscription:
			if _, ok := tierLimits[p.Tier]; !ok {
				return fmt.Errorf("catalog: product %s references unknown tier %s", p.ID, p.Tier)
			}
		case types.ProductPackage:
			if prev, dup := seen[p.Quota]; dup {
				return fmt.Errorf("catalog: quota %s sold by both %s and %s", p.Quota, prev, p.ID)
			}
			seen[p.Quota] = p.ID
			if p.MinQuantity <= 0 {
				return fmt.Errorf("catalog: product %s has no minimum quantity", p.ID)
			}
			if p.IsFlag() && p.FlagDays <= 0 {
				return fmt.Errorf("catalog: flag product %s has no entitlement length", p.ID)
			}
		default:
			return fmt.Errorf("catalog: product %s has unknown type %s", p.ID, p.Type)
		}
	}
	for _, tier := range []types.SubscriptionTier{types.TierFree, types.TierStandard, types.TierVIP, types.TierPremium} {
		q, ok := tierLimits[tier]
		if !ok {
			return fmt.Errorf("catalog: tier %s missing from limit table", tier)
		}
		for _, c := range types.CounterQuotas {
			if _, ok := q.Counts[c]; !ok {
				return fmt.Errorf("catalog: tier %s missing counter %s", tier, c)
			}
		}
		for _, f := range types.FlagQuotas {
			if _, ok := q.Flags[f]; !ok {
				return fmt.Errorf("catalog: tier %s missing flag %s", tier, f)
			}
		}
	}
	return nil
}
