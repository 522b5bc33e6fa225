package bidding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/clock"
	model "voltbay/internal/models"
	"voltbay/internal/notify"
	"voltbay/internal/repository"
	"voltbay/utils"

	"github.com/shopspring/decimal"
)

// BidIncrement is the fixed step over the current highest bid
var BidIncrement = decimal.NewFromInt(1)

var cent = decimal.New(1, -2)

// CreateAuctionInput describes a new auction listing
type CreateAuctionInput struct {
	Title          string
	Description    string
	Price          decimal.Decimal
	MinimumBid     *decimal.Decimal
	AuctionEndDate time.Time
}

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	store repository.Store
	clock clock.Clock
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(store repository.Store, clk clock.Clock) *BiddingService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &BiddingService{
		store: store,
		clock: clk,
	}
}

// CreateAuction lists a new ACTIVE auction owned by ownerID
func (s *BiddingService) CreateAuction(ctx context.Context, ownerID string, in CreateAuctionInput) (model.Product, error) {
	now := s.clock.Now()
	title := strings.TrimSpace(in.Title)

	switch {
	case ownerID == "":
		return model.Product{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidProduct, "missing owner")
	case title == "":
		return model.Product{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidProduct, "title is required")
	case !in.Price.IsPositive() || !isCents(in.Price):
		return model.Product{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidProduct, "price must be positive with at most two decimals")
	case !in.AuctionEndDate.After(now):
		return model.Product{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidProduct, "auction end date must be in the future")
	}

	minimum := in.Price
	if in.MinimumBid != nil {
		minimum = *in.MinimumBid
		if minimum.IsNegative() || !isCents(minimum) {
			return model.Product{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidProduct, "minimum bid must be non-negative with at most two decimals")
		}
	}

	p := model.Product{
		ID:             utils.GenerateID(),
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		OwnerID:        ownerID,
		Price:          in.Price,
		IsAuction:      true,
		MinimumBid:     minimum,
		AuctionEndDate: in.AuctionEndDate.UTC(),
		Status:         model.ProductActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return model.Product{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return p, nil
}

// GetAuction returns an auction listing
func (s *BiddingService) GetAuction(ctx context.Context, auctionID string) (model.Product, error) {
	if auctionID == "" {
		return model.Product{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "empty auction ID")
	}
	p, err := s.store.GetProduct(ctx, auctionID)
	if err != nil {
		return model.Product{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return p, nil
}

// PlaceBid validates and records a user's bid on an auction.
//
// Validation runs on a snapshot first and again under the auction row lock.
// A bid that passed the snapshot check but was overtaken by a concurrent bid is
// recorded with IsWinning=false and returned without error.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return model.Bid{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "missing auctionID or bidderID")
	}

	now := s.clock.Now()
	p, err := s.store.GetProduct(ctx, auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	highest, err := s.store.GetHighestBid(ctx, auctionID)
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to check highest bid: %w", err)
	}
	if err := validateBid(p, highest, bidderID, amount, now); err != nil {
		return model.Bid{}, err
	}

	bid := model.Bid{
		ID:        utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.store.GetProductForUpdate(ctx, auctionID)
		if err != nil {
			return err
		}
		if err := validateState(p, bidderID, now); err != nil {
			return err
		}
		highest, err := s.store.GetHighestBid(ctx, auctionID)
		if err != nil {
			return err
		}

		bid.IsWinning = leads(p, highest, amount)
		if err := s.store.CreateBid(ctx, bid); err != nil {
			return err
		}
		if !bid.IsWinning {
			utils.Warn("bid overtaken by a concurrent bid", map[string]any{
				"auction_id": auctionID,
				"bid_id":     bid.ID,
				"amount":     amount.String(),
			})
			return nil
		}

		if err := s.store.SetWinningBid(ctx, auctionID, bid.ID); err != nil {
			return err
		}
		current := amount
		p.CurrentBid = &current
		p.UpdatedAt = now
		if err := s.store.UpdateAuctionState(ctx, p); err != nil {
			return err
		}
		return s.notifyBid(ctx, p, highest, bid)
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
	}

	return bid, nil
}

func (s *BiddingService) notifyBid(ctx context.Context, p model.Product, previous *model.Bid, bid model.Bid) error {
	data := map[string]any{
		"auction_id": p.ID,
		"bid_id":     bid.ID,
		"amount":     bid.Amount,
	}
	if previous != nil && previous.BidderID != bid.BidderID {
		outbid := notify.Message(previous.BidderID, model.NotificationOutbid, "You have been outbid",
			fmt.Sprintf("A higher bid of %s was placed on %q.", bid.Amount.StringFixed(2), p.Title), data, bid.CreatedAt)
		if err := s.store.CreateNotification(ctx, outbid); err != nil {
			return err
		}
	}
	placed := notify.Message(p.OwnerID, model.NotificationBidPlaced, "New bid on your auction",
		fmt.Sprintf("A bid of %s was placed on %q.", bid.Amount.StringFixed(2), p.Title), data, bid.CreatedAt)
	return s.store.CreateNotification(ctx, placed)
}

// validateBid applies every acceptance rule in order; each failure has its own error
func validateBid(p model.Product, highest *model.Bid, bidderID string, amount decimal.Decimal, now time.Time) error {
	if err := validateState(p, bidderID, now); err != nil {
		return err
	}
	if !amount.IsPositive() || !isCents(amount) {
		return auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "amount must be positive with at most two decimals")
	}
	if floor := minimumAcceptable(p, highest); amount.LessThan(floor) {
		return auctionerrors.Wrapf(auctionerrors.ErrBidTooLow, "minimum acceptable bid is %s", floor.StringFixed(2))
	}
	return nil
}

// validateState covers the rules that do not depend on other bids
func validateState(p model.Product, bidderID string, now time.Time) error {
	if !p.IsAuction {
		return auctionerrors.ErrNotAnAuction
	}
	if p.Status != model.ProductActive || p.Settled() {
		return auctionerrors.Wrapf(auctionerrors.ErrAuctionNotActive, "status is %s", p.Status)
	}
	if !p.AuctionEndDate.After(now) {
		return auctionerrors.ErrAuctionEnded
	}
	if p.OwnerID == bidderID {
		return auctionerrors.ErrOwnerBid
	}
	return nil
}

// minimumAcceptable is the lowest amount that can become the leading bid:
// strictly above the minimum bid, and at least one increment above the current
// highest, which counts as zero while the auction has no bids
func minimumAcceptable(p model.Product, highest *model.Bid) decimal.Decimal {
	current := decimal.Zero
	if highest != nil {
		current = highest.Amount
	}
	floor := p.MinimumBid.Add(cent)
	if next := current.Add(BidIncrement); next.GreaterThan(floor) {
		floor = next
	}
	return floor
}

// leads decides the winner under the row lock. The increment only gates the
// snapshot check; here a bid leads when it beats the highest recorded amount.
func leads(p model.Product, highest *model.Bid, amount decimal.Decimal) bool {
	if !amount.GreaterThan(p.MinimumBid) {
		return false
	}
	return highest == nil || amount.GreaterThan(highest.Amount)
}

func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// ListBids returns all bids for an auction, highest first
func (s *BiddingService) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if auctionID == "" {
		return nil, auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "empty auction ID")
	}
	if _, err := s.store.GetProduct(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	bids, err := s.store.ListBids(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	if bids == nil {
		bids = []model.Bid{}
	}
	return bids, nil
}

// ListAuctionsByBidder returns all auctions a user has placed bids on
func (s *BiddingService) ListAuctionsByBidder(ctx context.Context, userID string) ([]model.Product, error) {
	if userID == "" {
		return nil, auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "empty user ID")
	}

	auctions, err := s.store.ListProductsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for user %s: %w", userID, err)
	}
	if auctions == nil {
		auctions = []model.Product{}
	}
	return auctions, nil
}
