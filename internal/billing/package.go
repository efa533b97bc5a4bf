package billing

import (
	"errors"
	"time"

	"nova-ai-bot/internal/catalog"
	"nova-ai-bot/types"
)

var (
	ErrPackageNotPending = errors.New("package is not pending")
	ErrUnknownProduct    = errors.New("unknown product")
)

// ApplyPackage transitions a WAITING package to SUCCESS and credits the
// user's purchased quota tier: counters gain the bought quantity, flags
// switch on with an until_at expiry of quantity * FlagDays. The caller
// persists both records inside one transaction; a package that already
// left WAITING is rejected so the credit happens exactly once.
func ApplyPackage(pkg *types.Package, u *types.User, chargeID string, now time.Time) error {
	if pkg.Status != types.PackageWaiting {
		return ErrPackageNotPending
	}
	prod, ok := catalog.ProductByID(pkg.ProductID)
	if !ok || prod.Type != types.ProductPackage {
		return ErrUnknownProduct
	}

	pkg.Status = types.PackageSuccess
	pkg.ProviderChargeID = chargeID
	pkg.UpdatedAt = now

	if prod.IsFlag() {
		until := now.AddDate(0, 0, prod.FlagDays*pkg.Quantity)
		pkg.UntilAt = &until
		u.AdditionalQuota.Flags[prod.Quota] = true
	} else {
		u.AdditionalQuota.Counts[prod.Quota] += pkg.Quantity
	}
	u.UpdatedAt = now
	return nil
}

// CancelPackage voids a still-pending package superseded by a newer
// checkout.
func CancelPackage(pkg *types.Package, now time.Time) error {
	if pkg.Status != types.PackageWaiting {
		return ErrPackageNotPending
	}
	pkg.Status = types.PackageCanceled
	pkg.UpdatedAt = now
	return nil
}

// ExpireFlagPackage marks a time-boxed boolean entitlement expired once
// its until_at has passed. covered says another unexpired package still
// grants the same quota; overlapping purchases then keep the flag on.
// It reports whether the user actually lost the flag, so the caller
// notifies at most once per lapse.
func ExpireFlagPackage(pkg *types.Package, u *types.User, covered bool, now time.Time) bool {
	if pkg.Status != types.PackageSuccess || pkg.Expired {
		return false
	}
	if pkg.UntilAt == nil || now.Before(*pkg.UntilAt) {
		return false
	}
	prod, ok := catalog.ProductByID(pkg.ProductID)
	if !ok || !prod.IsFlag() {
		return false
	}
	pkg.Expired = true
	pkg.UpdatedAt = now
	if covered {
		return false
	}
	u.AdditionalQuota.Flags[prod.Quota] = false
	u.UpdatedAt = now
	return true
}
