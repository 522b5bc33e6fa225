package postgres

import (
	"context"
	"errors"
	"fmt"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"

	"github.com/jackc/pgx/v5"
)

const bidColumns = `id, auction_id, bidder_id, amount, is_winning, created_at`

// ties on amount go to the leading bid, then the earliest
const bidOrder = `ORDER BY amount DESC, is_winning DESC, created_at ASC, id ASC`

func scanBid(row pgx.Row) (model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.IsWinning, &b.CreatedAt)
	return b, err
}

func (s *Store) CreateBid(ctx context.Context, bid model.Bid) error {
	const stmt = `
INSERT INTO bids (id, auction_id, bidder_id, amount, is_winning, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.exec(ctx, stmt, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.IsWinning, bid.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		return fmt.Errorf("create bid: %w", err)
	}
	return nil
}

func (s *Store) SetWinningBid(ctx context.Context, auctionID, bidID string) error {
	// clear first: bids_one_winner_idx allows a single winning row per auction
	const clear = `UPDATE bids SET is_winning = FALSE WHERE auction_id = $1 AND id <> $2 AND is_winning`
	if _, err := s.exec(ctx, clear, auctionID, bidID); err != nil {
		return fmt.Errorf("clear winning bids: %w", err)
	}

	const set = `UPDATE bids SET is_winning = TRUE WHERE id = $1 AND auction_id = $2`
	tag, err := s.exec(ctx, set, bidID, auctionID)
	if err != nil {
		return fmt.Errorf("set winning bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set winning bid %s: %w", bidID, auctionerrors.New(auctionerrors.ErrNotFound, "bid not found"))
	}
	return nil
}

func (s *Store) GetHighestBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = $1 ` + bidOrder + ` LIMIT 1`

	b, err := scanBid(s.queryRow(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isInvalidUUID(err) {
			return nil, fmt.Errorf("get highest bid for %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return nil, fmt.Errorf("get highest bid: %w", err)
	}
	return &b, nil
}

func (s *Store) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = $1 ` + bidOrder

	rows, err := s.query(ctx, query, auctionID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, fmt.Errorf("list bids for %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, fmt.Errorf("list bids for %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return bids, nil
}
