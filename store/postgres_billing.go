package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"nova-ai-bot/internal/billing"
	"nova-ai-bot/types"
)

const packageColumns = `id, user_id, product_id, status, currency, amount, quantity, payment_method,
provider_charge_id, until_at, expired, created_at, updated_at`

func scanPackage(row pgx.Row) (*types.Package, error) {
	var p types.Package
	err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.Status, &p.Currency, &p.Amount, &p.Quantity,
		&p.PaymentMethod, &p.ProviderChargeID, &p.UntilAt, &p.Expired, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func updatePackage(ctx context.Context, q db, p *types.Package) error {
	_, err := q.Exec(ctx, `
UPDATE packages SET
  status = $2, provider_charge_id = $3, until_at = $4, expired = $5, updated_at = NOW()
WHERE id = $1
`, p.ID, string(p.Status), p.ProviderChargeID, p.UntilAt, p.Expired)
	return err
}

func (s *PostgresStore) CreatePackage(ctx context.Context, p *types.Package) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO packages (id, user_id, product_id, status, currency, amount, quantity, payment_method, provider_charge_id, until_at, expired)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`, p.ID, p.UserID, p.ProductID, string(p.Status), string(p.Currency), p.Amount, p.Quantity,
		string(p.PaymentMethod), p.ProviderChargeID, p.UntilAt, p.Expired)
	return err
}

func (s *PostgresStore) GetPackage(ctx context.Context, id string) (*types.Package, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	return scanPackage(s.pool.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id))
}

func (s *PostgresStore) ListPendingPackages(ctx context.Context, userID int64) ([]*types.Package, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT `+packageColumns+` FROM packages
WHERE user_id = $1 AND status = $2
ORDER BY created_at
`, userID, string(types.PackageWaiting))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []*types.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

func (s *PostgresStore) CancelPendingPackages(ctx context.Context, userID int64) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE packages SET status = $2, updated_at = NOW()
WHERE user_id = $1 AND status = $3
`, userID, string(types.PackageCanceled), string(types.PackageWaiting))
	return err
}

// ApplyPackagePayment runs the WAITING -> SUCCESS transition inside one
// transaction: the package row and the user row are both locked, the
// quota credit happens in memory via the billing rules, and both rows are
// written back before commit. A replayed payment callback finds the
// package already SUCCESS and backs off without touching quota.
func (s *PostgresStore) ApplyPackagePayment(ctx context.Context, packageID, chargeID string) (*types.Package, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pkg, err := scanPackage(tx.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1 FOR UPDATE`, packageID))
	if err != nil {
		return nil, err
	}
	u, err := getUserForUpdate(ctx, tx, pkg.UserID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := billing.ApplyPackage(pkg, u, chargeID, now); err != nil {
		return nil, err
	}
	if err := updatePackage(ctx, tx, pkg); err != nil {
		return nil, err
	}
	if err := updateUser(ctx, tx, u); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (s *PostgresStore) MarkPackageError(ctx context.Context, packageID string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE packages SET status = $2, updated_at = NOW()
WHERE id = $1 AND status = $3
`, packageID, string(types.PackageError), string(types.PackageWaiting))
	return err
}

func (s *PostgresStore) ListExpiredFlagPackages(ctx context.Context, now time.Time) ([]*types.Package, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT `+packageColumns+` FROM packages
WHERE status = $1 AND NOT expired AND until_at IS NOT NULL AND until_at <= $2
ORDER BY until_at
`, string(types.PackageSuccess), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pkgs []*types.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

func (s *PostgresStore) ExpireFlagPackage(ctx context.Context, packageID string) (bool, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	pkg, err := scanPackage(tx.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1 FOR UPDATE`, packageID))
	if err != nil {
		return false, err
	}
	u, err := getUserForUpdate(ctx, tx, pkg.UserID)
	if err != nil {
		return false, err
	}
	// An overlapping purchase of the same product keeps the flag on.
	var covered bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM packages
  WHERE user_id = $1 AND product_id = $2 AND status = $3
    AND NOT expired AND until_at > $4 AND id <> $5
)`, pkg.UserID, pkg.ProductID, string(types.PackageSuccess), now, pkg.ID).Scan(&covered)
	if err != nil {
		return false, err
	}
	wasExpired := pkg.Expired
	cleared := billing.ExpireFlagPackage(pkg, u, covered, now)
	if pkg.Expired != wasExpired {
		if err := updatePackage(ctx, tx, pkg); err != nil {
			return false, err
		}
	}
	if cleared {
		if err := updateUser(ctx, tx, u); err != nil {
			return false, err
		}
	}
	return cleared, tx.Commit(ctx)
}

const subscriptionColumns = `id, user_id, product_id, tier, period, status, currency, amount, payment_method,
provider_charge_id, start_date, end_date, created_at, updated_at`

func scanSubscription(row pgx.Row) (*types.Subscription, error) {
	var sub types.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.ProductID, &sub.Tier, &sub.Period, &sub.Status,
		&sub.Currency, &sub.Amount, &sub.PaymentMethod, &sub.ProviderChargeID,
		&sub.StartDate, &sub.EndDate, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func updateSubscription(ctx context.Context, q db, sub *types.Subscription) error {
	_, err := q.Exec(ctx, `
UPDATE subscriptions SET
  status = $2, provider_charge_id = $3, start_date = $4, end_date = $5, updated_at = NOW()
WHERE id = $1
`, sub.ID, string(sub.Status), sub.ProviderChargeID, sub.StartDate, sub.EndDate)
	return err
}

func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *types.Subscription) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO subscriptions (id, user_id, product_id, tier, period, status, currency, amount, payment_method, provider_charge_id, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`, sub.ID, sub.UserID, sub.ProductID, string(sub.Tier), string(sub.Period), string(sub.Status),
		string(sub.Currency), sub.Amount, string(sub.PaymentMethod), sub.ProviderChargeID, sub.StartDate, sub.EndDate)
	return err
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id string) (*types.Subscription, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	return scanSubscription(s.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
}

// CountSubscriptions counts the user's whole subscription history;
// trial eligibility checks scan it.
func (s *PostgresStore) CountSubscriptions(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	var n int
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM subscriptions
WHERE user_id = $1 AND status <> $2
`, userID, string(types.SubscriptionWaiting)).Scan(&n)
	return n, err
}

func (s *PostgresStore) ActivateSubscriptionPayment(ctx context.Context, subscriptionID, chargeID string, trial bool) (*types.Subscription, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub, err := scanSubscription(tx.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, subscriptionID))
	if err != nil {
		return nil, err
	}
	u, err := getUserForUpdate(ctx, tx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if err := billing.ActivateSubscription(sub, u, chargeID, trial, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := updateSubscription(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err := updateUser(ctx, tx, u); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *PostgresStore) CancelSubscription(ctx context.Context, subscriptionID string) (*types.Subscription, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub, err := scanSubscription(tx.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, subscriptionID))
	if err != nil {
		return nil, err
	}
	if err := billing.CancelSubscription(sub, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := updateSubscription(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *PostgresStore) FinishExpiredSubscription(ctx context.Context, subscriptionID string) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub, err := scanSubscription(tx.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, subscriptionID))
	if err != nil {
		return err
	}
	u, err := getUserForUpdate(ctx, tx, sub.UserID)
	if err != nil {
		return err
	}
	if err := billing.FinishSubscription(sub, u, time.Now().UTC()); err != nil {
		return err
	}
	if err := updateSubscription(ctx, tx, sub); err != nil {
		return err
	}
	if err := updateUser(ctx, tx, u); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecordPayment is idempotent on the charge id (telegram charge for
// invoice payments, provider charge for Stripe); a replayed confirmation
// inserts nothing.
func (s *PostgresStore) RecordPayment(ctx context.Context, p types.Payment) (inserted bool, err error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	chargeID := p.TelegramPaymentCharge
	if chargeID == "" {
		chargeID = p.ProviderPaymentCharge
	}
	tag, err := s.pool.Exec(ctx, `
INSERT INTO payments (user_id, method, currency, total_amount, invoice_payload, charge_id, telegram_payment_charge_id, provider_payment_charge_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (charge_id) DO NOTHING
`, p.UserID, string(p.Method), string(p.Currency), p.TotalAmount, p.InvoicePayload, chargeID, p.TelegramPaymentCharge, p.ProviderPaymentCharge)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
