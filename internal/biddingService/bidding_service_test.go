package bidding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/clock"
	model "voltbay/internal/models"
	"voltbay/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedAuction(repo *repository.MemoryRepo, mutate func(p *model.Product)) model.Product {
	p := model.Product{
		ID:             uuid.NewString(),
		Title:          "Hybrid inverter 5kW",
		OwnerID:        "seller",
		Price:          dec("50"),
		IsAuction:      true,
		MinimumBid:     dec("50"),
		AuctionEndDate: testNow.Add(time.Hour),
		Status:         model.ProductActive,
		CreatedAt:      testNow.Add(-time.Hour),
		UpdatedAt:      testNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(&p)
	}
	repo.AddProduct(p)
	return p
}

func seedBid(repo *repository.MemoryRepo, auctionID, bidderID, amount string, winning bool) model.Bid {
	b := model.Bid{
		ID:        uuid.NewString(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    dec(amount),
		IsWinning: winning,
		CreatedAt: testNow.Add(-time.Minute),
	}
	repo.AddBid(b)
	return b
}

func winners(t *testing.T, repo *repository.MemoryRepo, auctionID string) []model.Bid {
	t.Helper()
	bids, err := repo.ListBids(context.Background(), auctionID)
	require.NoError(t, err)
	var out []model.Bid
	for _, b := range bids {
		if b.IsWinning {
			out = append(out, b)
		}
	}
	return out
}

// Tests PlaceBid
func TestBiddingService_PlaceBid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		setup         func(repo *repository.MemoryRepo) string
		bidder        string
		amount        string
		expectedError error
	}{
		{
			name:   "valid_first_bid",
			setup:  func(repo *repository.MemoryRepo) string { return seedAuction(repo, nil).ID },
			bidder: "alice",
			amount: "50.01",
		},
		{
			name:          "first_bid_equal_to_minimum",
			setup:         func(repo *repository.MemoryRepo) string { return seedAuction(repo, nil).ID },
			bidder:        "alice",
			amount:        "50",
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "equal_to_highest",
			setup: func(repo *repository.MemoryRepo) string {
				p := seedAuction(repo, nil)
				seedBid(repo, p.ID, "bob", "100", true)
				return p.ID
			},
			bidder:        "alice",
			amount:        "100",
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "below_increment",
			setup: func(repo *repository.MemoryRepo) string {
				p := seedAuction(repo, nil)
				seedBid(repo, p.ID, "bob", "100", true)
				return p.ID
			},
			bidder:        "alice",
			amount:        "100.99",
			expectedError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "highest_plus_increment",
			setup: func(repo *repository.MemoryRepo) string {
				p := seedAuction(repo, nil)
				seedBid(repo, p.ID, "bob", "100", true)
				return p.ID
			},
			bidder: "alice",
			amount: "101",
		},
		{
			name:          "unknown_auction",
			setup:         func(repo *repository.MemoryRepo) string { return uuid.NewString() },
			bidder:        "alice",
			amount:        "60",
			expectedError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name: "not_an_auction",
			setup: func(repo *repository.MemoryRepo) string {
				return seedAuction(repo, func(p *model.Product) { p.IsAuction = false }).ID
			},
			bidder:        "alice",
			amount:        "60",
			expectedError: auctionerrors.ErrNotAnAuction,
		},
		{
			name: "draft_auction",
			setup: func(repo *repository.MemoryRepo) string {
				return seedAuction(repo, func(p *model.Product) { p.Status = model.ProductDraft }).ID
			},
			bidder:        "alice",
			amount:        "60",
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name: "settled_auction",
			setup: func(repo *repository.MemoryRepo) string {
				return seedAuction(repo, func(p *model.Product) {
					settled := testNow.Add(-time.Minute)
					p.SettledAt = &settled
				}).ID
			},
			bidder:        "alice",
			amount:        "60",
			expectedError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name: "ended_auction",
			setup: func(repo *repository.MemoryRepo) string {
				return seedAuction(repo, func(p *model.Product) { p.AuctionEndDate = testNow }).ID
			},
			bidder:        "alice",
			amount:        "60",
			expectedError: auctionerrors.ErrAuctionEnded,
		},
		{
			name:          "owner_bid",
			setup:         func(repo *repository.MemoryRepo) string { return seedAuction(repo, nil).ID },
			bidder:        "seller",
			amount:        "60",
			expectedError: auctionerrors.ErrOwnerBid,
		},
		{
			name:          "negative_amount",
			setup:         func(repo *repository.MemoryRepo) string { return seedAuction(repo, nil).ID },
			bidder:        "alice",
			amount:        "-5",
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "three_decimals",
			setup:         func(repo *repository.MemoryRepo) string { return seedAuction(repo, nil).ID },
			bidder:        "alice",
			amount:        "60.001",
			expectedError: auctionerrors.ErrInvalidBid,
		},
		{
			name:          "empty_bidder",
			setup:         func(repo *repository.MemoryRepo) string { return seedAuction(repo, nil).ID },
			bidder:        "",
			amount:        "60",
			expectedError: auctionerrors.ErrInvalidBid,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := repository.NewMemoryRepo()
			service := NewBiddingService(repo, clock.NewFixed(testNow))
			auctionID := tc.setup(repo)

			bid, err := service.PlaceBid(context.Background(), auctionID, tc.bidder, dec(tc.amount))

			if tc.expectedError != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				return
			}
			require.NoError(t, err)
			_, parseErr := uuid.Parse(bid.ID)
			require.NoError(t, parseErr, "bid ID should be a valid UUID")
			require.True(t, bid.IsWinning)
			require.Equal(t, tc.bidder, bid.BidderID)
			require.Equal(t, testNow, bid.CreatedAt)

			p, err := repo.GetProduct(context.Background(), auctionID)
			require.NoError(t, err)
			require.NotNil(t, p.CurrentBid)
			require.True(t, p.CurrentBid.Equal(dec(tc.amount)))

			w := winners(t, repo, auctionID)
			require.Len(t, w, 1)
			require.Equal(t, bid.ID, w[0].ID)
		})
	}
}

func TestBiddingService_PlaceBid_ErrorKinds(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	service := NewBiddingService(repo, clock.NewFixed(testNow))
	ctx := context.Background()

	p := seedAuction(repo, nil)
	_, err := service.PlaceBid(ctx, p.ID, "seller", dec("60"))
	require.ErrorIs(t, err, auctionerrors.ErrForbidden)

	_, err = service.PlaceBid(ctx, uuid.NewString(), "alice", dec("60"))
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)

	_, err = service.PlaceBid(ctx, p.ID, "alice", dec("10"))
	require.ErrorIs(t, err, auctionerrors.ErrInvalidInput)
	require.Contains(t, err.Error(), "minimum acceptable bid is 50.01")

	ended := seedAuction(repo, func(p *model.Product) { p.AuctionEndDate = testNow.Add(-time.Second) })
	_, err = service.PlaceBid(ctx, ended.ID, "alice", dec("60"))
	require.ErrorIs(t, err, auctionerrors.ErrInvalidOperation)
	require.Contains(t, err.Error(), "auction has ended")
}

func TestBiddingService_PlaceBid_Notifications(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	service := NewBiddingService(repo, clock.NewFixed(testNow))
	ctx := context.Background()
	p := seedAuction(repo, nil)

	_, err := service.PlaceBid(ctx, p.ID, "alice", dec("60"))
	require.NoError(t, err)
	_, err = service.PlaceBid(ctx, p.ID, "alice", dec("70"))
	require.NoError(t, err)
	_, err = service.PlaceBid(ctx, p.ID, "bob", dec("80"))
	require.NoError(t, err)

	seller, err := repo.ListNotifications(ctx, "seller", false, 0)
	require.NoError(t, err)
	require.Len(t, seller, 3)
	for _, n := range seller {
		require.Equal(t, model.NotificationBidPlaced, n.Type)
	}

	// raising your own bid does not notify you
	alice, err := repo.ListNotifications(ctx, "alice", false, 0)
	require.NoError(t, err)
	require.Len(t, alice, 1)
	require.Equal(t, model.NotificationOutbid, alice[0].Type)
	require.JSONEq(t, fmt.Sprintf(`{"auction_id":%q,"bid_id":%q,"amount":80}`, p.ID, mustHighest(t, repo, p.ID).ID), string(alice[0].Data))
}

func mustHighest(t *testing.T, repo *repository.MemoryRepo, auctionID string) model.Bid {
	t.Helper()
	b, err := repo.GetHighestBid(context.Background(), auctionID)
	require.NoError(t, err)
	require.NotNil(t, b)
	return *b
}

// racingStore lets another bid commit between the snapshot check and the locked write
type racingStore struct {
	*repository.MemoryRepo
	once   sync.Once
	before func()
}

func (r *racingStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.once.Do(r.before)
	return r.MemoryRepo.WithTx(ctx, fn)
}

func TestBiddingService_PlaceBid_OvertakenBidIsRecorded(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	p := seedAuction(repo, nil)
	seedBid(repo, p.ID, "carol", "100", true)

	other := NewBiddingService(repo, clock.NewFixed(testNow))
	store := &racingStore{MemoryRepo: repo}
	store.before = func() {
		_, err := other.PlaceBid(context.Background(), p.ID, "bob", dec("200"))
		require.NoError(t, err)
	}
	service := NewBiddingService(store, clock.NewFixed(testNow))

	bid, err := service.PlaceBid(context.Background(), p.ID, "alice", dec("150"))
	require.NoError(t, err)
	require.False(t, bid.IsWinning)

	bids, err := repo.ListBids(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, bids, 3)

	w := winners(t, repo, p.ID)
	require.Len(t, w, 1)
	require.Equal(t, "bob", w[0].BidderID)
	require.True(t, w[0].Amount.Equal(dec("200")))

	got, err := repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentBid.Equal(dec("200")))
}

func TestBiddingService_PlaceBid_OvertakingStillWins(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	p := seedAuction(repo, nil)

	other := NewBiddingService(repo, clock.NewFixed(testNow))
	store := &racingStore{MemoryRepo: repo}
	store.before = func() {
		_, err := other.PlaceBid(context.Background(), p.ID, "bob", dec("150"))
		require.NoError(t, err)
	}
	service := NewBiddingService(store, clock.NewFixed(testNow))

	bid, err := service.PlaceBid(context.Background(), p.ID, "alice", dec("200"))
	require.NoError(t, err)
	require.True(t, bid.IsWinning)

	w := winners(t, repo, p.ID)
	require.Len(t, w, 1)
	require.Equal(t, bid.ID, w[0].ID)
}

func TestBiddingService_PlaceBid_OvertakingByLessThanIncrement(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	p := seedAuction(repo, nil)
	seedBid(repo, p.ID, "carol", "100", true)

	other := NewBiddingService(repo, clock.NewFixed(testNow))
	store := &racingStore{MemoryRepo: repo}
	store.before = func() {
		_, err := other.PlaceBid(context.Background(), p.ID, "bob", dec("150"))
		require.NoError(t, err)
	}
	service := NewBiddingService(store, clock.NewFixed(testNow))

	bid, err := service.PlaceBid(context.Background(), p.ID, "alice", dec("150.50"))
	require.NoError(t, err)
	require.True(t, bid.IsWinning)

	w := winners(t, repo, p.ID)
	require.Len(t, w, 1)
	require.Equal(t, "alice", w[0].BidderID)
	require.Equal(t, w[0].ID, mustHighest(t, repo, p.ID).ID)

	got, err := repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentBid.Equal(dec("150.50")))

	_, err = other.PlaceBid(context.Background(), p.ID, "dave", dec("151"))
	require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
	require.Contains(t, err.Error(), "minimum acceptable bid is 151.50")

	next, err := other.PlaceBid(context.Background(), p.ID, "dave", dec("151.50"))
	require.NoError(t, err)
	require.True(t, next.IsWinning)
}

func TestBiddingService_PlaceBid_EqualRaceKeepsLeader(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	p := seedAuction(repo, nil)

	// bob commits first but with a later timestamp than alice's snapshot
	other := NewBiddingService(repo, clock.NewFixed(testNow.Add(time.Second)))
	store := &racingStore{MemoryRepo: repo}
	store.before = func() {
		_, err := other.PlaceBid(context.Background(), p.ID, "bob", dec("150"))
		require.NoError(t, err)
	}
	service := NewBiddingService(store, clock.NewFixed(testNow))

	bid, err := service.PlaceBid(context.Background(), p.ID, "alice", dec("150"))
	require.NoError(t, err)
	require.False(t, bid.IsWinning)

	top := mustHighest(t, repo, p.ID)
	require.Equal(t, "bob", top.BidderID)
	require.True(t, top.IsWinning)

	w := winners(t, repo, p.ID)
	require.Len(t, w, 1)
	require.Equal(t, top.ID, w[0].ID)
}

func TestBiddingService_PlaceBid_FirstBidFloor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		minimum       string
		amount        string
		expectedError error
	}{
		{name: "zero_minimum_below_increment", minimum: "0", amount: "0.50", expectedError: auctionerrors.ErrBidTooLow},
		{name: "zero_minimum_at_increment", minimum: "0", amount: "1"},
		{name: "minimum_above_increment", minimum: "50", amount: "50.01"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := repository.NewMemoryRepo()
			service := NewBiddingService(repo, clock.NewFixed(testNow))
			p := seedAuction(repo, func(p *model.Product) { p.MinimumBid = dec(tc.minimum) })

			_, err := service.PlaceBid(context.Background(), p.ID, "alice", dec(tc.amount))
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBiddingService_PlaceBid_Concurrent(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	service := NewBiddingService(repo, clock.NewFixed(testNow))
	p := seedAuction(repo, nil)

	const bidders = 20
	errs := make(chan error, bidders)
	var wg sync.WaitGroup
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			amount := decimal.NewFromInt(int64(100 + i*5))
			_, err := service.PlaceBid(context.Background(), p.ID, fmt.Sprintf("bidder-%d", i), amount)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
		}
	}

	bids, err := repo.ListBids(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, bids)

	w := winners(t, repo, p.ID)
	require.Len(t, w, 1)
	require.Equal(t, bids[0].ID, w[0].ID, "the winning bid must be the highest recorded bid")

	got, err := repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, got.CurrentBid.Equal(w[0].Amount))
}

func TestBiddingService_ListBids(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	service := NewBiddingService(repo, clock.NewFixed(testNow))
	ctx := context.Background()

	p := seedAuction(repo, nil)
	seedBid(repo, p.ID, "a", "80", false)
	seedBid(repo, p.ID, "b", "95", true)
	seedBid(repo, p.ID, "c", "90", false)

	bids, err := service.ListBids(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, bids, 3)
	require.Equal(t, []string{"b", "c", "a"}, []string{bids[0].BidderID, bids[1].BidderID, bids[2].BidderID})

	empty := seedAuction(repo, nil)
	bids, err = service.ListBids(ctx, empty.ID)
	require.NoError(t, err)
	require.Equal(t, []model.Bid{}, bids)

	_, err = service.ListBids(ctx, "")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)

	_, err = service.ListBids(ctx, uuid.NewString())
	require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
}

func TestBiddingService_CreateAuction(t *testing.T) {
	t.Parallel()
	minimum := dec("10")
	zero := dec("0")

	tests := []struct {
		name        string
		owner       string
		input       CreateAuctionInput
		expectError bool
		wantMinimum string
	}{
		{
			name:        "defaults_minimum_to_price",
			owner:       "seller",
			input:       CreateAuctionInput{Title: " Battery ", Price: dec("250"), AuctionEndDate: testNow.Add(24 * time.Hour)},
			wantMinimum: "250",
		},
		{
			name:        "explicit_minimum",
			owner:       "seller",
			input:       CreateAuctionInput{Title: "Battery", Price: dec("250"), MinimumBid: &minimum, AuctionEndDate: testNow.Add(time.Hour)},
			wantMinimum: "10",
		},
		{
			name:        "zero_minimum",
			owner:       "seller",
			input:       CreateAuctionInput{Title: "Battery", Price: dec("250"), MinimumBid: &zero, AuctionEndDate: testNow.Add(time.Hour)},
			wantMinimum: "0",
		},
		{
			name:        "missing_title",
			owner:       "seller",
			input:       CreateAuctionInput{Title: "  ", Price: dec("250"), AuctionEndDate: testNow.Add(time.Hour)},
			expectError: true,
		},
		{
			name:        "zero_price",
			owner:       "seller",
			input:       CreateAuctionInput{Title: "Battery", Price: dec("0"), AuctionEndDate: testNow.Add(time.Hour)},
			expectError: true,
		},
		{
			name:        "end_in_past",
			owner:       "seller",
			input:       CreateAuctionInput{Title: "Battery", Price: dec("250"), AuctionEndDate: testNow.Add(-time.Hour)},
			expectError: true,
		},
		{
			name:        "missing_owner",
			input:       CreateAuctionInput{Title: "Battery", Price: dec("250"), AuctionEndDate: testNow.Add(time.Hour)},
			expectError: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := repository.NewMemoryRepo()
			service := NewBiddingService(repo, clock.NewFixed(testNow))

			p, err := service.CreateAuction(context.Background(), tc.owner, tc.input)
			if tc.expectError {
				require.ErrorIs(t, err, auctionerrors.ErrInvalidProduct)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Battery", p.Title)
			require.Equal(t, model.ProductActive, p.Status)
			require.True(t, p.IsAuction)
			require.Equal(t, tc.wantMinimum, p.MinimumBid.String())

			stored, err := service.GetAuction(context.Background(), p.ID)
			require.NoError(t, err)
			require.Equal(t, p.ID, stored.ID)
		})
	}
}

func TestBiddingService_ListAuctionsByBidder(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	service := NewBiddingService(repo, clock.NewFixed(testNow))
	ctx := context.Background()

	first := seedAuction(repo, nil)
	second := seedAuction(repo, func(p *model.Product) { p.AuctionEndDate = testNow.Add(2 * time.Hour) })
	seedAuction(repo, nil)
	seedBid(repo, first.ID, "alice", "60", true)
	seedBid(repo, second.ID, "alice", "60", true)
	seedBid(repo, second.ID, "alice", "70", false)

	auctions, err := service.ListAuctionsByBidder(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, auctions, 2)
	require.Equal(t, first.ID, auctions[0].ID)
	require.Equal(t, second.ID, auctions[1].ID)

	none, err := service.ListAuctionsByBidder(ctx, "nobody")
	require.NoError(t, err)
	require.Equal(t, []model.Product{}, none)

	_, err = service.ListAuctionsByBidder(ctx, "")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidBid)
}
