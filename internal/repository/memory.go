package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"

	"github.com/shopspring/decimal"
)

type memTxKey struct{}

type memState struct {
	products      map[string]model.Product
	bids          map[string][]model.Bid // key: auctionID -> bids in insertion order
	orders        map[string]model.Order
	notifications []model.Notification
	webhookEvents map[string]string
	wallets       map[string]model.Wallet
	walletTxs     map[string][]model.WalletTransaction // key: userID
}

func newMemState() *memState {
	return &memState{
		products:      make(map[string]model.Product),
		bids:          make(map[string][]model.Bid),
		orders:        make(map[string]model.Order),
		webhookEvents: make(map[string]string),
		wallets:       make(map[string]model.Wallet),
		walletTxs:     make(map[string][]model.WalletTransaction),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.bids {
		c.bids[k] = append([]model.Bid(nil), v...)
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	c.notifications = append([]model.Notification(nil), s.notifications...)
	for k, v := range s.webhookEvents {
		c.webhookEvents[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.walletTxs {
		c.walletTxs[k] = append([]model.WalletTransaction(nil), v...)
	}
	return c
}

// MemoryRepo is a concurrency-safe in-memory Store used by tests and local runs.
// Transactions are serialized and rolled back by restoring a snapshot.
type MemoryRepo struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{state: newMemState()}
}

// WithTx runs fn with exclusive access to the repository
func (r *MemoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) == r {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.state.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, r)); err != nil {
		r.state = snapshot
		return err
	}
	return nil
}

// do runs fn under the repository lock unless ctx already belongs to a transaction
func (r *MemoryRepo) do(ctx context.Context, fn func(s *memState) error) error {
	if ctx.Value(memTxKey{}) == r {
		return fn(r.state)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

// CreateProduct stores a new listing
func (r *MemoryRepo) CreateProduct(ctx context.Context, p model.Product) error {
	return r.do(ctx, func(s *memState) error {
		if _, exists := s.products[p.ID]; exists {
			return fmt.Errorf("create product %s: %w", p.ID, auctionerrors.ErrConflict)
		}
		s.products[p.ID] = p
		return nil
	})
}

// GetProduct returns a listing by id
func (r *MemoryRepo) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var out model.Product
	err := r.do(ctx, func(s *memState) error {
		p, ok := s.products[id]
		if !ok {
			return fmt.Errorf("get product %s: %w", id, auctionerrors.ErrAuctionNotFound)
		}
		out = p
		return nil
	})
	return out, err
}

// GetProductForUpdate is GetProduct; the transaction lock already excludes other writers
func (r *MemoryRepo) GetProductForUpdate(ctx context.Context, id string) (model.Product, error) {
	return r.GetProduct(ctx, id)
}

// ClaimAuctionForSettlement never reports contention because transactions are serialized
func (r *MemoryRepo) ClaimAuctionForSettlement(ctx context.Context, id string) (model.Product, bool, error) {
	p, err := r.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, false, err
	}
	return p, true, nil
}

// ListExpiredAuctionIDs returns unsettled active auctions whose end date is not after now
func (r *MemoryRepo) ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.do(ctx, func(s *memState) error {
		expired := make([]model.Product, 0)
		for _, p := range s.products {
			if p.IsAuction && p.Status == model.ProductActive && p.SettledAt == nil && !p.AuctionEndDate.After(now) {
				expired = append(expired, p)
			}
		}
		sort.Slice(expired, func(i, j int) bool {
			if expired[i].AuctionEndDate.Equal(expired[j].AuctionEndDate) {
				return expired[i].ID < expired[j].ID
			}
			return expired[i].AuctionEndDate.Before(expired[j].AuctionEndDate)
		})
		if limit > 0 && len(expired) > limit {
			expired = expired[:limit]
		}
		for _, p := range expired {
			ids = append(ids, p.ID)
		}
		return nil
	})
	return ids, err
}

// UpdateAuctionState writes the mutable auction columns
func (r *MemoryRepo) UpdateAuctionState(ctx context.Context, p model.Product) error {
	return r.do(ctx, func(s *memState) error {
		cur, ok := s.products[p.ID]
		if !ok {
			return fmt.Errorf("update auction %s: %w", p.ID, auctionerrors.ErrAuctionNotFound)
		}
		cur.Status = p.Status
		cur.CurrentBid = p.CurrentBid
		cur.WinnerID = p.WinnerID
		cur.SettledAt = p.SettledAt
		cur.UpdatedAt = p.UpdatedAt
		s.products[p.ID] = cur
		return nil
	})
}

// ListProductsByBidder returns every auction the user has bid on
func (r *MemoryRepo) ListProductsByBidder(ctx context.Context, userID string) ([]model.Product, error) {
	var out []model.Product
	err := r.do(ctx, func(s *memState) error {
		for auctionID, bids := range s.bids {
			for _, b := range bids {
				if b.BidderID == userID {
					if p, ok := s.products[auctionID]; ok {
						out = append(out, p)
					}
					break
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].AuctionEndDate.Before(out[j].AuctionEndDate) })
		return nil
	})
	return out, err
}

// CreateBid records a bid on an existing auction
func (r *MemoryRepo) CreateBid(ctx context.Context, bid model.Bid) error {
	return r.do(ctx, func(s *memState) error {
		if _, ok := s.products[bid.AuctionID]; !ok {
			return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		s.bids[bid.AuctionID] = append(s.bids[bid.AuctionID], bid)
		return nil
	})
}

// SetWinningBid flags one bid as winning and clears the rest
func (r *MemoryRepo) SetWinningBid(ctx context.Context, auctionID, bidID string) error {
	return r.do(ctx, func(s *memState) error {
		bids := s.bids[auctionID]
		found := false
		for i := range bids {
			bids[i].IsWinning = bids[i].ID == bidID
			found = found || bids[i].IsWinning
		}
		if !found {
			return fmt.Errorf("set winning bid %s: %w", bidID, auctionerrors.New(auctionerrors.ErrNotFound, "bid not found"))
		}
		return nil
	})
}

// GetHighestBid returns the highest bid; on ties the leading bid, then the earliest
func (r *MemoryRepo) GetHighestBid(ctx context.Context, auctionID string) (*model.Bid, error) {
	var out *model.Bid
	err := r.do(ctx, func(s *memState) error {
		bids := sortedBids(s.bids[auctionID])
		if len(bids) > 0 {
			top := bids[0]
			out = &top
		}
		return nil
	})
	return out, err
}

// ListBids returns bids by amount descending
func (r *MemoryRepo) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	var out []model.Bid
	err := r.do(ctx, func(s *memState) error {
		out = sortedBids(s.bids[auctionID])
		return nil
	})
	return out, err
}

func sortedBids(bids []model.Bid) []model.Bid {
	out := append([]model.Bid(nil), bids...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		if out[i].IsWinning != out[j].IsWinning {
			return out[i].IsWinning
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CreateOrder stores a new order
func (r *MemoryRepo) CreateOrder(ctx context.Context, o model.Order) error {
	return r.do(ctx, func(s *memState) error {
		if _, exists := s.orders[o.ID]; exists {
			return fmt.Errorf("create order %s: %w", o.ID, auctionerrors.ErrConflict)
		}
		for _, existing := range s.orders {
			if existing.ProductID == o.ProductID && existing.Status != model.OrderCancelled {
				return fmt.Errorf("create order for product %s: %w", o.ProductID, auctionerrors.ErrAlreadyPaid)
			}
		}
		s.orders[o.ID] = o
		return nil
	})
}

// GetOrder returns an order by id
func (r *MemoryRepo) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var out model.Order
	err := r.do(ctx, func(s *memState) error {
		o, ok := s.orders[id]
		if !ok {
			return fmt.Errorf("get order %s: %w", id, auctionerrors.ErrOrderNotFound)
		}
		out = o
		return nil
	})
	return out, err
}

func (r *MemoryRepo) GetOrderForUpdate(ctx context.Context, id string) (model.Order, error) {
	return r.GetOrder(ctx, id)
}

// GetOrderByPaymentIntentForUpdate finds the order created for a payment intent
func (r *MemoryRepo) GetOrderByPaymentIntentForUpdate(ctx context.Context, intentID string) (model.Order, error) {
	var out model.Order
	err := r.do(ctx, func(s *memState) error {
		for _, o := range s.orders {
			if intentID != "" && o.PaymentIntentID == intentID {
				out = o
				return nil
			}
		}
		return fmt.Errorf("get order by intent %s: %w", intentID, auctionerrors.ErrOrderNotFound)
	})
	return out, err
}

func (r *MemoryRepo) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	return r.do(ctx, func(s *memState) error {
		o, ok := s.orders[id]
		if !ok {
			return fmt.Errorf("update order %s: %w", id, auctionerrors.ErrOrderNotFound)
		}
		o.Status = status
		o.UpdatedAt = at
		s.orders[id] = o
		return nil
	})
}

// AttachPaymentIntent records the provider intent created for a reserved order
func (r *MemoryRepo) AttachPaymentIntent(ctx context.Context, id, intentID string, at time.Time) error {
	return r.do(ctx, func(s *memState) error {
		o, ok := s.orders[id]
		if !ok {
			return fmt.Errorf("attach intent to order %s: %w", id, auctionerrors.ErrOrderNotFound)
		}
		for _, other := range s.orders {
			if other.ID != id && other.PaymentIntentID == intentID {
				return fmt.Errorf("attach intent %s: %w", intentID, auctionerrors.ErrConflict)
			}
		}
		o.PaymentIntentID = intentID
		o.UpdatedAt = at
		s.orders[id] = o
		return nil
	})
}

func (r *MemoryRepo) RecordWebhookEvent(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	inserted := false
	err := r.do(ctx, func(s *memState) error {
		if _, seen := s.webhookEvents[eventID]; seen {
			return nil
		}
		s.webhookEvents[eventID] = eventType
		inserted = true
		return nil
	})
	return inserted, err
}

// CreateNotification appends a notification to the feed and the outbox
func (r *MemoryRepo) CreateNotification(ctx context.Context, n model.Notification) error {
	return r.do(ctx, func(s *memState) error {
		if n.Data != nil && !json.Valid(n.Data) {
			return fmt.Errorf("create notification: %w", auctionerrors.New(auctionerrors.ErrInvalidInput, "notification data is not valid JSON"))
		}
		s.notifications = append(s.notifications, n)
		return nil
	})
}

// ListNotifications returns a user's notifications, newest first
func (r *MemoryRepo) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := r.do(ctx, func(s *memState) error {
		for i := len(s.notifications) - 1; i >= 0; i-- {
			n := s.notifications[i]
			if n.UserID != userID || (unreadOnly && n.IsRead) {
				continue
			}
			out = append(out, n)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepo) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return r.do(ctx, func(s *memState) error {
		for i := range s.notifications {
			if s.notifications[i].ID == id && s.notifications[i].UserID == userID {
				s.notifications[i].IsRead = true
				return nil
			}
		}
		return fmt.Errorf("mark notification %s read: %w", id, auctionerrors.ErrNotificationNotFound)
	})
}

// ListUnpublishedNotifications returns the outbox, oldest first
func (r *MemoryRepo) ListUnpublishedNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := r.do(ctx, func(s *memState) error {
		for _, n := range s.notifications {
			if n.PublishedAt != nil {
				continue
			}
			out = append(out, n)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *MemoryRepo) MarkNotificationPublished(ctx context.Context, id string, at time.Time) error {
	return r.do(ctx, func(s *memState) error {
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				published := at
				s.notifications[i].PublishedAt = &published
				return nil
			}
		}
		return fmt.Errorf("mark notification %s published: %w", id, auctionerrors.ErrNotificationNotFound)
	})
}

// GetWallet returns a zero wallet for users that never received funds
func (r *MemoryRepo) GetWallet(ctx context.Context, userID string) (model.Wallet, error) {
	var out model.Wallet
	err := r.do(ctx, func(s *memState) error {
		w, ok := s.wallets[userID]
		if !ok {
			w = model.Wallet{UserID: userID}
		}
		out = w
		return nil
	})
	return out, err
}

func (r *MemoryRepo) AdjustWallet(ctx context.Context, userID string, balanceDelta, lockedDelta decimal.Decimal, at time.Time) (model.Wallet, error) {
	var out model.Wallet
	err := r.do(ctx, func(s *memState) error {
		w, ok := s.wallets[userID]
		if !ok {
			w = model.Wallet{UserID: userID}
		}
		w.Balance = w.Balance.Add(balanceDelta)
		w.LockedBalance = w.LockedBalance.Add(lockedDelta)
		w.UpdatedAt = at
		s.wallets[userID] = w
		out = w
		return nil
	})
	return out, err
}

func (r *MemoryRepo) CreateWalletTransaction(ctx context.Context, tx model.WalletTransaction) error {
	return r.do(ctx, func(s *memState) error {
		s.walletTxs[tx.UserID] = append(s.walletTxs[tx.UserID], tx)
		return nil
	})
}

// ListWalletTransactions returns ledger entries, newest first
func (r *MemoryRepo) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error) {
	var out []model.WalletTransaction
	err := r.do(ctx, func(s *memState) error {
		txs := s.walletTxs[userID]
		for i := len(txs) - 1; i >= 0; i-- {
			out = append(out, txs[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// AddProduct seeds a listing. This method is intended for tests and local runs only.
func (r *MemoryRepo) AddProduct(p model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.products[p.ID] = p
}

// AddBid seeds a bid without any validation. This method is intended for tests only.
func (r *MemoryRepo) AddBid(b model.Bid) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.bids[b.AuctionID] = append(r.state.bids[b.AuctionID], b)
}
