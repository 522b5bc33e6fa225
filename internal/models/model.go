package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductStatus is the lifecycle state of a listing
type ProductStatus string

const (
	ProductDraft     ProductStatus = "DRAFT"
	ProductActive    ProductStatus = "ACTIVE"
	ProductSold      ProductStatus = "SOLD"
	ProductExpired   ProductStatus = "EXPIRED"
	ProductSuspended ProductStatus = "SUSPENDED"
)

// Role of an authenticated caller
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Product is a marketplace listing; auctions are products with IsAuction set
type Product struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	OwnerID        string           `json:"owner_id"`
	Price          decimal.Decimal  `json:"price"`
	IsAuction      bool             `json:"is_auction"`
	MinimumBid     decimal.Decimal  `json:"minimum_bid"`
	CurrentBid     *decimal.Decimal `json:"current_bid"`
	AuctionEndDate time.Time        `json:"auction_end_date"`
	Status         ProductStatus    `json:"status"`
	WinnerID       *string          `json:"winner_id"`
	SettledAt      *time.Time       `json:"settled_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Settled reports whether the auction has been resolved by settlement
func (p Product) Settled() bool {
	return p.SettledAt != nil || p.Status == ProductSold || p.Status == ProductExpired
}

// Bid represents a user's bid on an auction
type Bid struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsWinning bool            `json:"is_winning"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// ShippingAddress is where a won item is sent
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is created once a buyer is determined
type Order struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	BuyerID         string          `json:"buyer_id"`
	SellerID        string          `json:"seller_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	Status          OrderStatus     `json:"status"`
	Shipping        ShippingAddress `json:"shipping_address"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SellerNet is what the seller receives once escrow is released
func (o Order) SellerNet() decimal.Decimal {
	return o.TotalAmount.Sub(o.PlatformFee)
}

// NotificationType enumerates business events users are told about
type NotificationType string

const (
	NotificationBidPlaced       NotificationType = "BID_PLACED"
	NotificationOutbid          NotificationType = "OUTBID"
	NotificationAuctionWon      NotificationType = "AUCTION_WON"
	NotificationAuctionEnded    NotificationType = "AUCTION_ENDED"
	NotificationOrderCreated    NotificationType = "ORDER_CREATED"
	NotificationPaymentReceived NotificationType = "PAYMENT_RECEIVED"
	NotificationPaymentFailed   NotificationType = "PAYMENT_FAILED"
	NotificationOrderShipped    NotificationType = "ORDER_SHIPPED"
	NotificationOrderDelivered  NotificationType = "ORDER_DELIVERED"
	NotificationOrderRefunded   NotificationType = "ORDER_REFUNDED"
)

// Notification is an in-app message; PublishedAt marks outbox delivery
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        json.RawMessage  `json:"data,omitempty"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
	PublishedAt *time.Time       `json:"-"`
}

// Wallet holds a user's available and escrowed funds
type Wallet struct {
	UserID        string          `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	LockedBalance decimal.Decimal `json:"locked_balance"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// WalletTransactionType classifies ledger entries
type WalletTransactionType string

const (
	TxEscrowHold    WalletTransactionType = "ESCROW_HOLD"
	TxEscrowRelease WalletTransactionType = "ESCROW_RELEASE"
	TxEscrowRefund  WalletTransactionType = "ESCROW_REFUND"
)

// WalletTransaction is one ledger entry
type WalletTransaction struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	OrderID   string                `json:"order_id"`
	Type      WalletTransactionType `json:"type"`
	Amount    decimal.Decimal       `json:"amount"`
	CreatedAt time.Time             `json:"created_at"`
}
