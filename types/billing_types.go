package types

import (
	"context"
	"time"
)

type Package struct {
	ID               string        `json:"id"`
	UserID           int64         `json:"user_id"`
	ProductID        string        `json:"product_id"`
	Status           PackageStatus `json:"status"`
	Currency         Currency      `json:"currency"`
	Amount           float64       `json:"amount"`
	Quantity         int           `json:"quantity"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	ProviderChargeID string        `json:"provider_charge_id"`
	UntilAt          *time.Time    `json:"until_at,omitempty"`
	Expired          bool          `json:"expired"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type Subscription struct {
	ID               string             `json:"id"`
	UserID           int64              `json:"user_id"`
	ProductID        string             `json:"product_id"`
	Tier             SubscriptionTier   `json:"tier"`
	Period           SubscriptionPeriod `json:"period"`
	Status           SubscriptionStatus `json:"status"`
	Currency         Currency           `json:"currency"`
	Amount           float64            `json:"amount"`
	PaymentMethod    PaymentMethod      `json:"payment_method"`
	ProviderChargeID string             `json:"provider_charge_id"`
	StartDate        time.Time          `json:"start_date"`
	EndDate          time.Time          `json:"end_date"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Granting reports whether the subscription still grants access. A
// canceled subscription keeps granting until its end date passes.
func (s *Subscription) Granting(now time.Time) bool {
	switch s.Status {
	case SubscriptionActive, SubscriptionTrial:
		return true
	case SubscriptionCanceled:
		return now.Before(s.EndDate)
	default:
		return false
	}
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Payment struct {
	UserID                int64
	Method                PaymentMethod
	Currency              Currency
	TotalAmount           float64
	InvoicePayload        string
	TelegramPaymentCharge string
	ProviderPaymentCharge string
	CreatedAt             time.Time
}

type UserStore interface {
	GetUser(ctx context.Context, userID int64) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	SetBlocked(ctx context.Context, userID int64, blocked bool) error
	// ListUsersAfter pages through users ordered by id for batch sweeps.
	ListUsersAfter(ctx context.Context, afterID int64, limit int) ([]*User, error)
	// SpendQuota consumes n units of a counter quota inside a transaction,
	// daily tier first, and returns the updated user.
	SpendQuota(ctx context.Context, userID int64, quota Quota, n int) (*User, error)
}

type BillingStore interface {
	CreatePackage(ctx context.Context, p *Package) error
	GetPackage(ctx context.Context, id string) (*Package, error)
	// ListPendingPackages returns the user's WAITING packages, the items
	// of the single live checkout.
	ListPendingPackages(ctx context.Context, userID int64) ([]*Package, error)
	// CancelPendingPackages voids every WAITING package of the user; a new
	// checkout supersedes older ones.
	CancelPendingPackages(ctx context.Context, userID int64) error
	// ApplyPackagePayment transitions WAITING -> SUCCESS and credits the
	// user's additional quota in one transaction. Applying twice is a no-op
	// returning billing.ErrPackageNotPending.
	ApplyPackagePayment(ctx context.Context, packageID, chargeID string) (*Package, error)
	MarkPackageError(ctx context.Context, packageID string) error
	ListExpiredFlagPackages(ctx context.Context, now time.Time) ([]*Package, error)
	// ExpireFlagPackage marks the package expired once until_at has
	// passed and clears the granted flag unless another unexpired package
	// still covers it. It reports whether the user lost the flag.
	ExpireFlagPackage(ctx context.Context, packageID string) (bool, error)

	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CountSubscriptions(ctx context.Context, userID int64) (int, error)
	ActivateSubscriptionPayment(ctx context.Context, subscriptionID, chargeID string, trial bool) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// FinishExpiredSubscription marks the subscription FINISHED, resets the
	// user to free-tier limits and clears the current pointer.
	FinishExpiredSubscription(ctx context.Context, subscriptionID string) error

	RecordPayment(ctx context.Context, p Payment) (inserted bool, err error)

	GetCart(ctx context.Context, userID int64) (*Cart, error)
	SaveCart(ctx context.Context, cart *Cart) error
	ClearCart(ctx context.Context, userID int64) error
}
