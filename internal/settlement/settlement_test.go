package settlement

import (
	"context"
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

func seedExpired(repo *repository.MemoryRepo, mutate func(p *model.Product)) model.Product {
	p := model.Product{
		ID:             uuid.NewString(),
		Title:          "Charge controller",
		OwnerID:        "seller",
		Price:          decimal.NewFromInt(50),
		IsAuction:      true,
		MinimumBid:     decimal.NewFromInt(50),
		AuctionEndDate: testNow.Add(-time.Minute),
		Status:         model.ProductActive,
		CreatedAt:      testNow.Add(-24 * time.Hour),
		UpdatedAt:      testNow.Add(-24 * time.Hour),
	}
	if mutate != nil {
		mutate(&p)
	}
	repo.AddProduct(p)
	return p
}

func seedBid(repo *repository.MemoryRepo, auctionID, bidder string, amount int64, at time.Time) model.Bid {
	b := model.Bid{
		ID:        uuid.NewString(),
		AuctionID: auctionID,
		BidderID:  bidder,
		Amount:    decimal.NewFromInt(amount),
		CreatedAt: at,
	}
	repo.AddBid(b)
	return b
}

func countNotifications(t *testing.T, repo *repository.MemoryRepo) int {
	t.Helper()
	all, err := repo.ListUnpublishedNotifications(context.Background(), 0)
	require.NoError(t, err)
	return len(all)
}

func TestEngine_SettleExpired_HighestBidWins(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	engine := NewEngine(repo, clock.NewFixed(testNow))
	ctx := context.Background()

	p := seedExpired(repo, nil)
	seedBid(repo, p.ID, "a", 80, testNow.Add(-50*time.Minute))
	top := seedBid(repo, p.ID, "b", 95, testNow.Add(-40*time.Minute))
	seedBid(repo, p.ID, "c", 90, testNow.Add(-30*time.Minute))

	res, err := engine.SettleExpired(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, res.Applied)
	require.Equal(t, OutcomeWon, res.Outcome)
	require.NotNil(t, res.WinnerID)
	require.Equal(t, "b", *res.WinnerID)
	require.True(t, res.Amount.Equal(decimal.NewFromInt(95)))

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, model.ProductActive, got.Status)
	require.NotNil(t, got.SettledAt)
	require.Equal(t, "b", *got.WinnerID)
	require.True(t, got.CurrentBid.Equal(decimal.NewFromInt(95)))

	bids, err := repo.ListBids(ctx, p.ID)
	require.NoError(t, err)
	for _, b := range bids {
		require.Equal(t, b.ID == top.ID, b.IsWinning)
	}

	won, err := repo.ListNotifications(ctx, "b", false, 0)
	require.NoError(t, err)
	require.Len(t, won, 1)
	require.Equal(t, model.NotificationAuctionWon, won[0].Type)

	seller, err := repo.ListNotifications(ctx, "seller", false, 0)
	require.NoError(t, err)
	require.Len(t, seller, 1)
	require.Equal(t, model.NotificationAuctionEnded, seller[0].Type)
}

func TestEngine_SettleExpired_IsIdempotent(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	engine := NewEngine(repo, clock.NewFixed(testNow))
	ctx := context.Background()

	p := seedExpired(repo, nil)
	seedBid(repo, p.ID, "a", 120, testNow.Add(-time.Hour))

	first, err := engine.SettleExpired(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, first.Applied)
	notified := countNotifications(t, repo)

	second, err := engine.SettleExpired(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, second.Applied)
	require.Equal(t, first.Outcome, second.Outcome)
	require.Equal(t, *first.WinnerID, *second.WinnerID)
	require.True(t, first.Amount.Equal(second.Amount))
	require.Equal(t, notified, countNotifications(t, repo))
}

func TestEngine_SettleExpired_NoQualifyingBid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bids []int64
	}{
		{name: "no_bids"},
		{name: "below_minimum", bids: []int64{40, 45}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := repository.NewMemoryRepo()
			engine := NewEngine(repo, clock.NewFixed(testNow))
			ctx := context.Background()

			p := seedExpired(repo, nil)
			for i, amount := range tc.bids {
				seedBid(repo, p.ID, "bidder", amount, testNow.Add(-time.Duration(i+1)*time.Minute))
			}

			res, err := engine.SettleExpired(ctx, p.ID)
			require.NoError(t, err)
			require.True(t, res.Applied)
			require.Equal(t, OutcomeExpired, res.Outcome)
			require.Nil(t, res.WinnerID)
			require.True(t, res.Amount.IsZero())

			got, err := repo.GetProduct(ctx, p.ID)
			require.NoError(t, err)
			require.Equal(t, model.ProductExpired, got.Status)
			require.NotNil(t, got.SettledAt)
			require.Nil(t, got.WinnerID)

			bidder, err := repo.ListNotifications(ctx, "bidder", false, 0)
			require.NoError(t, err)
			require.Empty(t, bidder)
			seller, err := repo.ListNotifications(ctx, "seller", false, 0)
			require.NoError(t, err)
			require.Len(t, seller, 1)

			again, err := engine.SettleExpired(ctx, p.ID)
			require.NoError(t, err)
			require.False(t, again.Applied)
			require.Equal(t, OutcomeExpired, again.Outcome)
		})
	}
}

func TestEngine_SettleExpired_TieGoesToEarliestBid(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	engine := NewEngine(repo, clock.NewFixed(testNow))

	p := seedExpired(repo, nil)
	seedBid(repo, p.ID, "late", 100, testNow.Add(-10*time.Minute))
	seedBid(repo, p.ID, "early", 100, testNow.Add(-20*time.Minute))

	res, err := engine.SettleExpired(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "early", *res.WinnerID)
}

func TestEngine_SettleExpired_TieGoesToLeadingBid(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	engine := NewEngine(repo, clock.NewFixed(testNow))

	p := seedExpired(repo, nil)
	seedBid(repo, p.ID, "overtaken", 100, testNow.Add(-20*time.Minute))
	repo.AddBid(model.Bid{
		ID:        uuid.NewString(),
		AuctionID: p.ID,
		BidderID:  "leader",
		Amount:    decimal.NewFromInt(100),
		IsWinning: true,
		CreatedAt: testNow.Add(-10 * time.Minute),
	})

	res, err := engine.SettleExpired(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, "leader", *res.WinnerID)
}

func TestEngine_SettleExpired_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		setup         func(repo *repository.MemoryRepo) string
		expectedError error
		kind          error
	}{
		{
			name:          "unknown_auction",
			setup:         func(repo *repository.MemoryRepo) string { return uuid.NewString() },
			expectedError: auctionerrors.ErrAuctionNotFound,
			kind:          auctionerrors.ErrNotFound,
		},
		{
			name: "not_an_auction",
			setup: func(repo *repository.MemoryRepo) string {
				return seedExpired(repo, func(p *model.Product) { p.IsAuction = false }).ID
			},
			expectedError: auctionerrors.ErrNotAnAuction,
			kind:          auctionerrors.ErrInvalidOperation,
		},
		{
			name: "not_expired",
			setup: func(repo *repository.MemoryRepo) string {
				return seedExpired(repo, func(p *model.Product) { p.AuctionEndDate = testNow.Add(time.Second) }).ID
			},
			expectedError: auctionerrors.ErrNotExpired,
			kind:          auctionerrors.ErrInvalidOperation,
		},
		{
			name: "suspended",
			setup: func(repo *repository.MemoryRepo) string {
				return seedExpired(repo, func(p *model.Product) { p.Status = model.ProductSuspended }).ID
			},
			expectedError: auctionerrors.ErrAuctionNotActive,
			kind:          auctionerrors.ErrInvalidOperation,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := repository.NewMemoryRepo()
			engine := NewEngine(repo, clock.NewFixed(testNow))

			_, err := engine.SettleExpired(context.Background(), tc.setup(repo))
			require.ErrorIs(t, err, tc.expectedError)
			require.ErrorIs(t, err, tc.kind)
			require.Zero(t, countNotifications(t, repo))
		})
	}
}

// lockedStore reports every claim as held by another worker
type lockedStore struct {
	*repository.MemoryRepo
}

func (lockedStore) ClaimAuctionForSettlement(context.Context, string) (model.Product, bool, error) {
	return model.Product{}, false, nil
}

func TestEngine_SettleExpired_InFlight(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo()
	p := seedExpired(repo, nil)
	engine := NewEngine(lockedStore{repo}, clock.NewFixed(testNow))

	_, err := engine.SettleExpired(context.Background(), p.ID)
	require.ErrorIs(t, err, auctionerrors.ErrSettlementInFlight)
	require.ErrorIs(t, err, auctionerrors.ErrConflict)
}
