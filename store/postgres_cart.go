package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"nova-ai-bot/types"
)

func (s *PostgresStore) GetCart(ctx context.Context, userID int64) (*types.Cart, error) {
	ctx, cancel := opCtx(ctx)
	defer cancel()

	var items []byte
	cart := &types.Cart{UserID: userID}
	err := s.pool.QueryRow(ctx, `SELECT items, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&items, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &types.Cart{UserID: userID, UpdatedAt: time.Now().UTC()}, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *PostgresStore) SaveCart(ctx context.Context, cart *types.Cart) error {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err = s.pool.Exec(ctx, `
INSERT INTO carts (user_id, items)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
`, cart.UserID, items)
	return err
}

func (s *PostgresStore) ClearCart(ctx context.Context, userID int64) error {
	ctx, cancel := opCtx(ctx)
	defer cancel()
	_, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
