package payment

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

// AuctionPaymentRequest is the winner's request to pay for a settled auction
type AuctionPaymentRequest struct {
	AuctionID       string
	WinnerID        string
	WinningBid      decimal.Decimal
	ShippingAddress model.ShippingAddress
}

// AuctionPaymentResult is what the client needs to confirm the charge
type AuctionPaymentResult struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	OrderID         string `json:"orderId"`
}

// Options configure pricing of auction payments
type Options struct {
	Currency   string
	FeePercent decimal.Decimal
}

// Service hands settled auctions off to the payment provider and applies its results
type Service struct {
	store   repository.Store
	gateway Gateway
	clock   clock.Clock
	opts    Options
}

func NewService(store repository.Store, gateway Gateway, clk clock.Clock, opts Options) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &Service{store: store, gateway: gateway, clock: clk, opts: opts}
}

// PlatformFee is the marketplace cut of amount, rounded to cents
func (s *Service) PlatformFee(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(s.opts.FeePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// ProcessAuctionPayment creates the order and payment intent for a settled auction.
// The order is reserved first, so the auction is SOLD and a second call is rejected
// instead of charging twice. The provider is called outside any row lock; if it
// fails the reservation is released and the winner may try again.
func (s *Service) ProcessAuctionPayment(ctx context.Context, req AuctionPaymentRequest) (AuctionPaymentResult, error) {
	if req.AuctionID == "" || req.WinnerID == "" {
		return AuctionPaymentResult{}, auctionerrors.Wrapf(auctionerrors.ErrInvalidBid, "missing auction or winner")
	}

	order, title, err := s.reserveOrder(ctx, req)
	if err != nil {
		return AuctionPaymentResult{}, fmt.Errorf("payment: failed to process payment for auction %s: %w", req.AuctionID, err)
	}
	fields := map[string]any{"auction_id": req.AuctionID, "order_id": order.ID}

	intent, err := s.gateway.CreatePaymentIntent(ctx, IntentRequest{
		Amount:         order.TotalAmount.Shift(2).IntPart(),
		PlatformFee:    order.PlatformFee.Shift(2).IntPart(),
		Currency:       s.opts.Currency,
		Description:    fmt.Sprintf("VoltBay auction: %s", title),
		IdempotencyKey: order.ID,
		Metadata: map[string]string{
			"order_id":   order.ID,
			"auction_id": order.ProductID,
			"buyer_id":   order.BuyerID,
			"seller_id":  order.SellerID,
		},
	})
	if err != nil {
		s.releaseOrder(ctx, order, fields)
		return AuctionPaymentResult{}, fmt.Errorf("payment: failed to process payment for auction %s: %w", req.AuctionID, err)
	}
	fields["intent_id"] = intent.ID

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		if err := s.store.AttachPaymentIntent(ctx, order.ID, intent.ID, now); err != nil {
			return err
		}
		data := map[string]any{"order_id": order.ID, "auction_id": order.ProductID, "amount": order.TotalAmount}
		for _, n := range []model.Notification{
			notify.Message(order.BuyerID, model.NotificationOrderCreated, "Order created",
				fmt.Sprintf("Your order for %q was created. Complete payment to confirm it.", title), data, now),
			notify.Message(order.SellerID, model.NotificationOrderCreated, "New order",
				fmt.Sprintf("The winner of %q placed an order.", title), data, now),
		} {
			if err := s.store.CreateNotification(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.releaseOrder(ctx, order, fields)
		return AuctionPaymentResult{}, fmt.Errorf("payment: failed to record intent for auction %s: %w", req.AuctionID, err)
	}

	utils.Info("auction payment initiated", fields)
	return AuctionPaymentResult{PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret, OrderID: order.ID}, nil
}

// reserveOrder checks the auction under its row lock, creates a PENDING order
// without an intent and marks the auction SOLD
func (s *Service) reserveOrder(ctx context.Context, req AuctionPaymentRequest) (model.Order, string, error) {
	var (
		order model.Order
		title string
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.store.GetProductForUpdate(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := checkPayable(p, req, now); err != nil {
			return err
		}

		amount := *p.CurrentBid
		order = model.Order{
			ID:          utils.GenerateID(),
			ProductID:   p.ID,
			BuyerID:     req.WinnerID,
			SellerID:    p.OwnerID,
			TotalAmount: amount,
			PlatformFee: s.PlatformFee(amount),
			Status:      model.OrderPending,
			Shipping:    trimAddress(req.ShippingAddress),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.store.CreateOrder(ctx, order); err != nil {
			return err
		}

		p.Status = model.ProductSold
		p.UpdatedAt = now
		title = p.Title
		return s.store.UpdateAuctionState(ctx, p)
	})
	return order, title, err
}

// releaseOrder cancels a reservation whose intent could not be created or recorded
func (s *Service) releaseOrder(ctx context.Context, order model.Order, fields map[string]any) {
	ctx = context.WithoutCancel(ctx)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateOrderStatus(ctx, order.ID, model.OrderCancelled, s.clock.Now()); err != nil {
			return err
		}
		_, err := s.reopenAuction(ctx, order.ProductID, s.clock.Now())
		return err
	})
	if err != nil {
		utils.Error("failed to release order reservation", mergeFields(fields, map[string]any{"error": err.Error()}))
		return
	}
	utils.Warn("order reservation released", fields)
}

// reopenAuction moves a SOLD auction back to ACTIVE; it stays settled, so only the winner can pay
func (s *Service) reopenAuction(ctx context.Context, productID string, now time.Time) (model.Product, error) {
	p, err := s.store.GetProductForUpdate(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}
	if p.Status != model.ProductSold {
		return p, nil
	}
	p.Status = model.ProductActive
	p.UpdatedAt = now
	return p, s.store.UpdateAuctionState(ctx, p)
}

func mergeFields(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// checkPayable gates payment on a confirmed winning bid
func checkPayable(p model.Product, req AuctionPaymentRequest, now time.Time) error {
	switch {
	case !p.IsAuction:
		return auctionerrors.ErrNotAnAuction
	case p.Status == model.ProductSold:
		return auctionerrors.ErrAlreadyPaid
	case p.Status != model.ProductActive:
		return auctionerrors.Wrapf(auctionerrors.ErrAuctionNotActive, "status is %s", p.Status)
	case p.AuctionEndDate.After(now):
		return auctionerrors.ErrAuctionNotEnded
	case p.SettledAt == nil || p.WinnerID == nil || p.CurrentBid == nil:
		return auctionerrors.ErrNotSettled
	case *p.WinnerID != req.WinnerID:
		return auctionerrors.ErrNotWinner
	case !p.CurrentBid.Equal(req.WinningBid):
		return auctionerrors.Wrapf(auctionerrors.ErrBidMismatch, "winning bid is %s", p.CurrentBid.StringFixed(2))
	}
	return validateAddress(req.ShippingAddress)
}

func validateAddress(a model.ShippingAddress) error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"fullName", a.FullName},
		{"line1", a.Line1},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return auctionerrors.Wrapf(auctionerrors.ErrInvalidShipping, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func trimAddress(a model.ShippingAddress) model.ShippingAddress {
	return model.ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}
