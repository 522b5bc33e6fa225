package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	model "voltbay/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func (s *Store) GetWallet(ctx context.Context, userID string) (model.Wallet, error) {
	const query = `SELECT user_id, balance, locked_balance, updated_at FROM wallets WHERE user_id = $1`

	var w model.Wallet
	err := s.queryRow(ctx, query, userID).Scan(&w.UserID, &w.Balance, &w.LockedBalance, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return model.Wallet{UserID: userID}, nil
		}
		return model.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

func (s *Store) AdjustWallet(ctx context.Context, userID string, balanceDelta, lockedDelta decimal.Decimal, at time.Time) (model.Wallet, error) {
	const stmt = `
INSERT INTO wallets (user_id, balance, locked_balance, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET balance = wallets.balance + EXCLUDED.balance,
	locked_balance = wallets.locked_balance + EXCLUDED.locked_balance,
	updated_at = EXCLUDED.updated_at
RETURNING user_id, balance, locked_balance, updated_at`

	var w model.Wallet
	err := s.queryRow(ctx, stmt, userID, balanceDelta, lockedDelta, at).Scan(&w.UserID, &w.Balance, &w.LockedBalance, &w.UpdatedAt)
	if err != nil {
		return model.Wallet{}, fmt.Errorf("adjust wallet %s: %w", userID, err)
	}
	return w, nil
}

func (s *Store) CreateWalletTransaction(ctx context.Context, tx model.WalletTransaction) error {
	const stmt = `
INSERT INTO wallet_transactions (id, user_id, order_id, type, amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.exec(ctx, stmt, tx.ID, tx.UserID, tx.OrderID, tx.Type, tx.Amount, tx.CreatedAt); err != nil {
		return fmt.Errorf("create wallet transaction: %w", err)
	}
	return nil
}

func (s *Store) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error) {
	query := `
SELECT id, user_id, order_id, type, amount, created_at FROM wallet_transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var out []model.WalletTransaction
	for rows.Next() {
		var (
			t     model.WalletTransaction
			ttype string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.OrderID, &ttype, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		t.Type = model.WalletTransactionType(ttype)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	return out, nil
}
