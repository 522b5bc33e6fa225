package repository

import (
	"context"
	"time"

	model "voltbay/internal/models"

	"github.com/shopspring/decimal"
)

// Transactor runs fn inside one storage transaction. Calls made with the
// context passed to fn join that transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductStore persists listings and auction state
type ProductStore interface {
	CreateProduct(ctx context.Context, p model.Product) error
	GetProduct(ctx context.Context, id string) (model.Product, error)
	// GetProductForUpdate locks the row until the surrounding transaction ends.
	GetProductForUpdate(ctx context.Context, id string) (model.Product, error)
	// ClaimAuctionForSettlement locks the row unless another transaction holds it,
	// in which case ok is false.
	ClaimAuctionForSettlement(ctx context.Context, id string) (p model.Product, ok bool, err error)
	ListExpiredAuctionIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
	UpdateAuctionState(ctx context.Context, p model.Product) error
	ListProductsByBidder(ctx context.Context, userID string) ([]model.Product, error)
}

// BidStore persists bids
type BidStore interface {
	CreateBid(ctx context.Context, bid model.Bid) error
	// SetWinningBid flags bidID as winning and clears the flag on every other bid of the auction.
	SetWinningBid(ctx context.Context, auctionID, bidID string) error
	// GetHighestBid returns nil when the auction has no bids. Ties go to the leading
	// (isWinning) bid, then the earliest.
	GetHighestBid(ctx context.Context, auctionID string) (*model.Bid, error)
	ListBids(ctx context.Context, auctionID string) ([]model.Bid, error)
}

// OrderStore persists orders and processed webhook events
type OrderStore interface {
	CreateOrder(ctx context.Context, o model.Order) error
	GetOrder(ctx context.Context, id string) (model.Order, error)
	GetOrderForUpdate(ctx context.Context, id string) (model.Order, error)
	GetOrderByPaymentIntentForUpdate(ctx context.Context, intentID string) (model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error
	AttachPaymentIntent(ctx context.Context, id, intentID string, at time.Time) error
	// RecordWebhookEvent returns false when the event id was already recorded.
	RecordWebhookEvent(ctx context.Context, eventID, eventType string, at time.Time) (bool, error)
}

// NotificationStore persists notifications and their outbox state
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	ListUnpublishedNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationPublished(ctx context.Context, id string, at time.Time) error
}

// WalletStore persists balances and the ledger
type WalletStore interface {
	GetWallet(ctx context.Context, userID string) (model.Wallet, error)
	AdjustWallet(ctx context.Context, userID string, balanceDelta, lockedDelta decimal.Decimal, at time.Time) (model.Wallet, error)
	CreateWalletTransaction(ctx context.Context, tx model.WalletTransaction) error
	ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error)
}

// Store is everything the auction service persists
type Store interface {
	Transactor
	ProductStore
	BidStore
	OrderStore
	NotificationStore
	WalletStore
}
