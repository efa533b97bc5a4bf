package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"nova-ai-bot/internal/billing"
	"nova-ai-bot/types"
)

// PostgresStore holds all billing state. Every mutation of a user's quota
// or a payment record runs inside a transaction with row locks, so two
// rapid button presses cannot interleave a read-modify-write.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var ErrNotFound = errors.New("not found")

// db is the subset of pgxpool.Pool and pgx.Tx the store queries through.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 10*time.Second)
}

const userColumns = `id, chat_id, username, first_name, language_code, currency, balance, discount,
COALESCE(subscription_id, ''), daily_limits, additional_quota, last_limit_refresh, is_blocked, created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var daily, additional []byte
	err := row.Scan(&u.ID, &u.ChatID, &u.Username, &u.FirstName, &u.LanguageCode, &u.Currency,
		&u.Balance, &u.Discount, &u.SubscriptionID, &daily, &additional,
		&u.LastLimitRefresh, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(daily, &u.DailyLimits); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(additional, &u.AdditionalQuota); err != nil {
		return nil, err
	}
	return &u, nil
}

func getUserForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*types.User, error) {
	return scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *types.User) error {
	daily, err := json.Marshal(u.DailyLimits)
	if err != nil {
		return err
	}
	additional, err := json.Marshal(u.AdditionalQuota)
	if err != nil {
		return err
	}
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err = s.pool.Exec(ctx, `
INSERT INTO users (id, chat_id, username, first_name, language_code, currency, balance, discount,
  subscription_id, daily_limits, additional_quota, last_limit_refresh, is_blocked)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING
`, u.ID, u.ChatID, u.Username, u.FirstName, u.LanguageCode, string(u.Currency), u.Balance, u.Discount,
		u.SubscriptionID, daily, additional, u.LastLimitRefresh, u.IsBlocked)
	return err
}

func updateUser(ctx context.Context, q db, u *types.User) error {
	daily, err := json.Marshal(u.DailyLimits)
	if err != nil {
		return err
	}
	additional, err := json.Marshal(u.AdditionalQuota)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
UPDATE users SET
  chat_id = $2, username = $3, first_name = $4, language_code = $5, currency = $6,
  balance = $7, discount = $8, subscription_id = NULLIF($9, ''),
  daily_limits = $10, additional_quota = $11, last_limit_refresh = $12,
  is_blocked = $13, updated_at = NOW()
WHERE id = $1
`, u.ID, u.ChatID, u.Username, u.FirstName, u.LanguageCode, string(u.Currency),
		u.Balance, u.Discount, u.SubscriptionID, daily, additional, u.LastLimitRefresh, u.IsBlocked)
	return err
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *types.User) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	return updateUser(ctx, s.pool, u)
}

func (s *PostgresStore) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `UPDATE users SET is_blocked = $2, updated_at = NOW() WHERE id = $1`, userID, blocked)
	return err
}

func (s *PostgresStore) ListUsersAfter(ctx context.Context, afterID int64, limit int) ([]*types.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SpendQuota serializes quota consumption through a row lock: read the
// user FOR UPDATE, apply the ledger rules, write back, commit.
func (s *PostgresStore) SpendQuota(ctx context.Context, userID int64, quota types.Quota, n int) (*types.User, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := getUserForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := billing.Spend(u, quota, n); err != nil {
		return nil, err
	}
	if err := updateUser(ctx, tx, u); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}
