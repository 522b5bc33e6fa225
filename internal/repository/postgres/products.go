package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, title, description, owner_id, price, is_auction, minimum_bid, current_bid,
auction_end_date, status, winner_id, settled_at, created_at, updated_at`

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p       model.Product
		status  string
		current decimal.NullDecimal
		endDate *time.Time
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.OwnerID,
		&p.Price,
		&p.IsAuction,
		&p.MinimumBid,
		&current,
		&endDate,
		&status,
		&p.WinnerID,
		&p.SettledAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return model.Product{}, err
	}
	p.Status = model.ProductStatus(status)
	if current.Valid {
		v := current.Decimal
		p.CurrentBid = &v
	}
	if endDate != nil {
		p.AuctionEndDate = *endDate
	}
	return p, nil
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (s *Store) CreateProduct(ctx context.Context, p model.Product) error {
	const stmt = `
INSERT INTO products (id, title, description, owner_id, price, is_auction, minimum_bid, current_bid,
	auction_end_date, status, winner_id, settled_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	var endDate *time.Time
	if !p.AuctionEndDate.IsZero() {
		endDate = &p.AuctionEndDate
	}
	_, err := s.exec(ctx, stmt,
		p.ID,
		p.Title,
		p.Description,
		p.OwnerID,
		p.Price,
		p.IsAuction,
		p.MinimumBid,
		nullableDecimal(p.CurrentBid),
		endDate,
		p.Status,
		p.WinnerID,
		p.SettledAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create product %s: %w", p.ID, auctionerrors.ErrConflict)
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (s *Store) getProduct(ctx context.Context, query, id string) (model.Product, error) {
	p, err := scanProduct(s.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, fmt.Errorf("get product %s: %w", id, auctionerrors.ErrAuctionNotFound)
		}
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (model.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (s *Store) GetProductForUpdate(ctx context.Context, id string) (model.Product, error) {
	return s.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (s *Store) ClaimAuctionForSettlement(ctx context.Context, id string) (model.Product, bool, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE SKIP LOCKED`
	p, err := scanProduct(s.queryRow(ctx, query, id))
	if err == nil {
		return p, true, nil
	}
	if isInvalidUUID(err) {
		return model.Product{}, false, fmt.Errorf("claim auction %s: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, false, fmt.Errorf("claim auction: %w", err)
	}

	// no row: either missing or locked by another settlement
	var exists bool
	if err := s.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return model.Product{}, false, fmt.Errorf("claim auction: %w", err)
	}
	if !exists {
		return model.Product{}, false, fmt.Errorf("claim auction %s: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	return model.Product{}, false, nil
}

func (s *Store) ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id FROM products
WHERE is_auction AND status = 'ACTIVE' AND settled_at IS NULL AND auction_end_date <= $1
ORDER BY auction_end_date, id
LIMIT $2`

	rows, err := s.query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	return ids, nil
}

func (s *Store) UpdateAuctionState(ctx context.Context, p model.Product) error {
	const stmt = `
UPDATE products
SET status = $2, current_bid = $3, winner_id = $4, settled_at = $5, updated_at = $6
WHERE id = $1`

	tag, err := s.exec(ctx, stmt, p.ID, p.Status, nullableDecimal(p.CurrentBid), p.WinnerID, p.SettledAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update auction state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update auction %s: %w", p.ID, auctionerrors.ErrAuctionNotFound)
	}
	return nil
}

func (s *Store) ListProductsByBidder(ctx context.Context, userID string) ([]model.Product, error) {
	query := `
SELECT ` + productColumns + ` FROM products
WHERE id IN (SELECT DISTINCT auction_id FROM bids WHERE bidder_id = $1)
ORDER BY auction_end_date`

	rows, err := s.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list products by bidder: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
