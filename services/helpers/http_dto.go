package helpers

import (
	"time"

	model "voltbay/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CreateAuctionRequest struct {
	Title          string           `json:"title" binding:"required"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	MinimumBid     *decimal.Decimal `json:"minimum_bid"`
	AuctionEndDate time.Time        `json:"auction_end_date"`
}

type AuctionPaymentRequest struct {
	AuctionID       string                `json:"auctionId" binding:"required"`
	WinnerID        string                `json:"winnerId" binding:"required"`
	WinningBid      decimal.Decimal       `json:"winningBid"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
}

type BidResponse struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsWinning bool            `json:"is_winning"`
	CreatedAt string          `json:"created_at"`
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		IsWinning: b.IsWinning,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

type NotificationsQuery struct {
	Unread bool `form:"unread"`
	Limit  int  `form:"limit" binding:"omitempty,min=1"`
}
