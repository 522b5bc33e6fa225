package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// Helper to create a new auction
func newAuction(id string, end time.Time) model.Product {
	return model.Product{
		ID:             id,
		Title:          fmt.Sprintf("%s title", id),
		OwnerID:        "seller",
		Price:          decimal.NewFromInt(10),
		IsAuction:      true,
		MinimumBid:     decimal.NewFromInt(10),
		AuctionEndDate: end,
		Status:         model.ProductActive,
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	}
}

// Helper to create a new Bid
func newBid(id, auctionID, bidderID string, amount int64, createdAt time.Time) model.Bid {
	return model.Bid{
		ID:        id,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    decimal.NewFromInt(amount),
		CreatedAt: createdAt,
	}
}

func TestMemoryRepo_CreateBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddProduct(newAuction("a1", baseTime.Add(time.Hour)))

	tests := []struct {
		name    string
		bid     model.Bid
		wantErr error
	}{
		{name: "valid_bid", bid: newBid("b1", "a1", "u1", 100, baseTime)},
		{name: "auction_not_found", bid: newBid("b2", "missing", "u1", 50, baseTime), wantErr: auctionerrors.ErrAuctionNotFound},
		{name: "empty_auction_id", bid: newBid("b3", "", "u1", 50, baseTime), wantErr: auctionerrors.ErrNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := repo.CreateBid(ctx, tc.bid)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMemoryRepo_BidOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddProduct(newAuction("a1", baseTime.Add(time.Hour)))

	for _, b := range []model.Bid{
		newBid("b-late-tie", "a1", "u3", 90, baseTime.Add(3*time.Minute)),
		newBid("b-low", "a1", "u1", 80, baseTime.Add(time.Minute)),
		newBid("b-early-tie", "a1", "u2", 90, baseTime.Add(2*time.Minute)),
		newBid("b-high", "a1", "u4", 95, baseTime.Add(4*time.Minute)),
	} {
		require.NoError(t, repo.CreateBid(ctx, b))
	}

	bids, err := repo.ListBids(ctx, "a1")
	require.NoError(t, err)
	ids := make([]string, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.ID)
	}
	require.Equal(t, []string{"b-high", "b-early-tie", "b-late-tie", "b-low"}, ids)

	highest, err := repo.GetHighestBid(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "b-high", highest.ID)

	none, err := repo.GetHighestBid(ctx, "no-bids")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestMemoryRepo_HighestBidPrefersLeaderOnTie(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddProduct(newAuction("a1", baseTime.Add(time.Hour)))

	early := newBid("b-early", "a1", "u1", 90, baseTime)
	leader := newBid("b-leader", "a1", "u2", 90, baseTime.Add(time.Minute))
	leader.IsWinning = true
	require.NoError(t, repo.CreateBid(ctx, early))
	require.NoError(t, repo.CreateBid(ctx, leader))

	highest, err := repo.GetHighestBid(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, "b-leader", highest.ID)
}

func TestMemoryRepo_SetWinningBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddProduct(newAuction("a1", baseTime.Add(time.Hour)))
	require.NoError(t, repo.CreateBid(ctx, newBid("b1", "a1", "u1", 20, baseTime)))
	require.NoError(t, repo.CreateBid(ctx, newBid("b2", "a1", "u2", 30, baseTime.Add(time.Second))))

	require.NoError(t, repo.SetWinningBid(ctx, "a1", "b1"))
	require.NoError(t, repo.SetWinningBid(ctx, "a1", "b2"))

	bids, err := repo.ListBids(ctx, "a1")
	require.NoError(t, err)
	winners := 0
	for _, b := range bids {
		if b.IsWinning {
			winners++
			require.Equal(t, "b2", b.ID)
		}
	}
	require.Equal(t, 1, winners)

	require.ErrorIs(t, repo.SetWinningBid(ctx, "a1", "nope"), auctionerrors.ErrNotFound)
}

func TestMemoryRepo_WithTxRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddProduct(newAuction("a1", baseTime.Add(time.Hour)))

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.CreateBid(ctx, newBid("b1", "a1", "u1", 20, baseTime)))
		// nested calls join the outer transaction
		require.NoError(t, repo.WithTx(ctx, func(ctx context.Context) error {
			p, err := repo.GetProductForUpdate(ctx, "a1")
			require.NoError(t, err)
			current := decimal.NewFromInt(20)
			p.CurrentBid = &current
			return repo.UpdateAuctionState(ctx, p)
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	bids, err := repo.ListBids(ctx, "a1")
	require.NoError(t, err)
	require.Empty(t, bids)

	p, err := repo.GetProduct(ctx, "a1")
	require.NoError(t, err)
	require.Nil(t, p.CurrentBid)
}

func TestMemoryRepo_ConcurrentTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddProduct(newAuction("a1", baseTime.Add(time.Hour)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.WithTx(ctx, func(ctx context.Context) error {
				return repo.CreateBid(ctx, newBid(fmt.Sprintf("b%02d", i), "a1", fmt.Sprintf("u%d", i), int64(10+i), baseTime))
			})
		}(i)
	}
	wg.Wait()

	bids, err := repo.ListBids(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, bids, 50)
	require.True(t, bids[0].Amount.Equal(decimal.NewFromInt(59)))
}

func TestMemoryRepo_ListExpiredAuctionIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	now := baseTime.Add(24 * time.Hour)

	repo.AddProduct(newAuction("later", now.Add(-time.Minute)))
	repo.AddProduct(newAuction("earlier", now.Add(-time.Hour)))
	repo.AddProduct(newAuction("exactly-now", now))
	repo.AddProduct(newAuction("future", now.Add(time.Minute)))

	settled := newAuction("settled", now.Add(-time.Hour))
	settledAt := now
	settled.SettledAt = &settledAt
	repo.AddProduct(settled)

	suspended := newAuction("suspended", now.Add(-time.Hour))
	suspended.Status = model.ProductSuspended
	repo.AddProduct(suspended)

	listing := newAuction("listing", now.Add(-time.Hour))
	listing.IsAuction = false
	repo.AddProduct(listing)

	ids, err := repo.ListExpiredAuctionIDs(ctx, now, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"earlier", "later", "exactly-now"}, ids)

	ids, err = repo.ListExpiredAuctionIDs(ctx, now, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"earlier", "later"}, ids)
}

func TestMemoryRepo_Orders(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()

	order := model.Order{ID: "o1", ProductID: "a1", BuyerID: "b", SellerID: "s", Status: model.OrderPending, PaymentIntentID: "pi_1"}
	require.NoError(t, repo.CreateOrder(ctx, order))

	second := order
	second.ID = "o2"
	second.PaymentIntentID = "pi_2"
	require.ErrorIs(t, repo.CreateOrder(ctx, second), auctionerrors.ErrAlreadyPaid)

	reserved := model.Order{ID: "o3", ProductID: "a2", Status: model.OrderPending}
	require.NoError(t, repo.CreateOrder(ctx, reserved))
	_, err := repo.GetOrderByPaymentIntentForUpdate(ctx, "")
	require.ErrorIs(t, err, auctionerrors.ErrOrderNotFound, "orders without an intent are never matched")
	require.ErrorIs(t, repo.AttachPaymentIntent(ctx, "o3", "pi_1", baseTime), auctionerrors.ErrConflict)
	require.NoError(t, repo.AttachPaymentIntent(ctx, "o3", "pi_3", baseTime))
	require.ErrorIs(t, repo.AttachPaymentIntent(ctx, "missing", "pi_4", baseTime), auctionerrors.ErrOrderNotFound)

	got, err := repo.GetOrderByPaymentIntentForUpdate(ctx, "pi_1")
	require.NoError(t, err)
	require.Equal(t, "o1", got.ID)

	_, err = repo.GetOrderByPaymentIntentForUpdate(ctx, "pi_unknown")
	require.ErrorIs(t, err, auctionerrors.ErrOrderNotFound)

	require.NoError(t, repo.UpdateOrderStatus(ctx, "o1", model.OrderCancelled, baseTime))
	require.NoError(t, repo.CreateOrder(ctx, second), "a cancelled order frees the product")

	fresh, err := repo.RecordWebhookEvent(ctx, "evt_1", "payment_intent.succeeded", baseTime)
	require.NoError(t, err)
	require.True(t, fresh)
	fresh, err = repo.RecordWebhookEvent(ctx, "evt_1", "payment_intent.succeeded", baseTime)
	require.NoError(t, err)
	require.False(t, fresh)
}

func TestMemoryRepo_Notifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateNotification(ctx, model.Notification{
			ID:        fmt.Sprintf("n%d", i),
			UserID:    "u1",
			Type:      model.NotificationBidPlaced,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.CreateNotification(ctx, model.Notification{ID: "other", UserID: "u2", Type: model.NotificationOutbid}))
	require.ErrorIs(t, repo.CreateNotification(ctx, model.Notification{ID: "bad", UserID: "u1", Data: []byte("{not json")}), auctionerrors.ErrInvalidInput)

	require.NoError(t, repo.MarkNotificationRead(ctx, "u1", "n2"))
	require.ErrorIs(t, repo.MarkNotificationRead(ctx, "u1", "other"), auctionerrors.ErrNotificationNotFound)

	all, err := repo.ListNotifications(ctx, "u1", false, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "n2", all[0].ID)

	unread, err := repo.ListNotifications(ctx, "u1", true, 1)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	require.Equal(t, "n1", unread[0].ID)

	pending, err := repo.ListUnpublishedNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 4)
	require.Equal(t, "n0", pending[0].ID)

	require.NoError(t, repo.MarkNotificationPublished(ctx, "n0", baseTime))
	pending, err = repo.ListUnpublishedNotifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestMemoryRepo_Wallet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()

	w, err := repo.GetWallet(ctx, "seller")
	require.NoError(t, err)
	require.True(t, w.Balance.IsZero())
	require.True(t, w.LockedBalance.IsZero())

	_, err = repo.AdjustWallet(ctx, "seller", decimal.Zero, decimal.RequireFromString("90.50"), baseTime)
	require.NoError(t, err)
	w, err = repo.AdjustWallet(ctx, "seller", decimal.RequireFromString("90.50"), decimal.RequireFromString("-90.50"), baseTime)
	require.NoError(t, err)
	require.True(t, w.Balance.Equal(decimal.RequireFromString("90.50")))
	require.True(t, w.LockedBalance.IsZero())

	require.NoError(t, repo.CreateWalletTransaction(ctx, model.WalletTransaction{ID: "t1", UserID: "seller", Type: model.TxEscrowHold}))
	require.NoError(t, repo.CreateWalletTransaction(ctx, model.WalletTransaction{ID: "t2", UserID: "seller", Type: model.TxEscrowRelease}))

	txs, err := repo.ListWalletTransactions(ctx, "seller", 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "t2", txs[0].ID)
}
