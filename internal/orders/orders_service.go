package orders

import (
	"context"
	"fmt"
	"time"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/clock"
	model "voltbay/internal/models"
	"voltbay/internal/notify"
	"voltbay/internal/repository"
	"voltbay/utils"

	"github.com/shopspring/decimal"
)

const recentTransactions = 20

// Refunder returns a captured payment to the buyer
type Refunder interface {
	Refund(ctx context.Context, intentID, idempotencyKey string) error
}

// WalletView is a wallet with its most recent ledger entries
type WalletView struct {
	model.Wallet
	Transactions []model.WalletTransaction `json:"transactions"`
}

// Service moves orders through fulfilment and the escrow ledger
type Service struct {
	store    repository.Store
	refunder Refunder
	clock    clock.Clock
}

func NewService(store repository.Store, refunder Refunder, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{store: store, refunder: refunder, clock: clk}
}

// GetOrder returns an order to its buyer, its seller or an admin
func (s *Service) GetOrder(ctx context.Context, actor model.Actor, orderID string) (model.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, fmt.Errorf("orders: failed to get order %s: %w", orderID, err)
	}
	if !actor.IsAdmin() && actor.UserID != o.BuyerID && actor.UserID != o.SellerID {
		return model.Order{}, auctionerrors.ErrOrderAccess
	}
	return o, nil
}

// Ship marks a confirmed order as shipped by its seller
func (s *Service) Ship(ctx context.Context, sellerID, orderID string) (model.Order, error) {
	return s.transition(ctx, orderID, func(ctx context.Context, o *model.Order, now time.Time) error {
		if o.SellerID != sellerID {
			return auctionerrors.ErrOrderAccess
		}
		if err := requireStatus(*o, model.OrderConfirmed); err != nil {
			return err
		}
		o.Status = model.OrderShipped
		return s.store.CreateNotification(ctx, notify.Message(o.BuyerID, model.NotificationOrderShipped,
			"Your order has shipped", "The seller has shipped your item.", map[string]any{"order_id": o.ID}, now))
	})
}

// ConfirmDelivery completes a shipped order and releases escrow to the seller
func (s *Service) ConfirmDelivery(ctx context.Context, buyerID, orderID string) (model.Order, error) {
	return s.transition(ctx, orderID, func(ctx context.Context, o *model.Order, now time.Time) error {
		if o.BuyerID != buyerID {
			return auctionerrors.ErrOrderAccess
		}
		if err := requireStatus(*o, model.OrderShipped); err != nil {
			return err
		}
		o.Status = model.OrderDelivered

		net := o.SellerNet()
		if err := s.moveEscrow(ctx, *o, net, net.Neg(), model.TxEscrowRelease, now); err != nil {
			return err
		}
		return s.store.CreateNotification(ctx, notify.Message(o.SellerID, model.NotificationOrderDelivered,
			"Delivery confirmed", fmt.Sprintf("The buyer confirmed delivery. %s was added to your balance.", net.StringFixed(2)),
			map[string]any{"order_id": o.ID, "amount": net}, now))
	})
}

// Refund returns the payment to the buyer and drops the seller's escrow hold
func (s *Service) Refund(ctx context.Context, orderID string) (model.Order, error) {
	return s.transition(ctx, orderID, func(ctx context.Context, o *model.Order, now time.Time) error {
		if err := requireStatus(*o, model.OrderConfirmed, model.OrderShipped); err != nil {
			return err
		}
		if err := s.refunder.Refund(ctx, o.PaymentIntentID, "refund-"+o.ID); err != nil {
			return err
		}
		o.Status = model.OrderRefunded

		net := o.SellerNet()
		if err := s.moveEscrow(ctx, *o, decimal.Zero, net.Neg(), model.TxEscrowRefund, now); err != nil {
			return err
		}
		return s.store.CreateNotification(ctx, notify.Message(o.BuyerID, model.NotificationOrderRefunded,
			"Order refunded", fmt.Sprintf("%s was refunded to your payment method.", o.TotalAmount.StringFixed(2)),
			map[string]any{"order_id": o.ID, "amount": o.TotalAmount}, now))
	})
}

// GetWallet returns balances and recent ledger entries
func (s *Service) GetWallet(ctx context.Context, userID string) (WalletView, error) {
	w, err := s.store.GetWallet(ctx, userID)
	if err != nil {
		return WalletView{}, fmt.Errorf("orders: failed to get wallet for %s: %w", userID, err)
	}
	txs, err := s.store.ListWalletTransactions(ctx, userID, recentTransactions)
	if err != nil {
		return WalletView{}, fmt.Errorf("orders: failed to list wallet transactions for %s: %w", userID, err)
	}
	if txs == nil {
		txs = []model.WalletTransaction{}
	}
	return WalletView{Wallet: w, Transactions: txs}, nil
}

// transition locks the order, lets apply mutate it and persists the new status
func (s *Service) transition(ctx context.Context, orderID string, apply func(ctx context.Context, o *model.Order, now time.Time) error) (model.Order, error) {
	var out model.Order
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		o, err := s.store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		from := o.Status
		if err := apply(ctx, &o, now); err != nil {
			return err
		}
		if err := s.store.UpdateOrderStatus(ctx, o.ID, o.Status, now); err != nil {
			return err
		}
		o.UpdatedAt = now
		out = o

		utils.Info("order status changed", map[string]any{"order_id": o.ID, "from": from, "to": o.Status})
		return nil
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("orders: failed to update order %s: %w", orderID, err)
	}
	return out, nil
}

func (s *Service) moveEscrow(ctx context.Context, o model.Order, balanceDelta, lockedDelta decimal.Decimal, typ model.WalletTransactionType, now time.Time) error {
	if _, err := s.store.AdjustWallet(ctx, o.SellerID, balanceDelta, lockedDelta, now); err != nil {
		return err
	}
	return s.store.CreateWalletTransaction(ctx, model.WalletTransaction{
		ID:        utils.GenerateID(),
		UserID:    o.SellerID,
		OrderID:   o.ID,
		Type:      typ,
		Amount:    lockedDelta.Abs(),
		CreatedAt: now,
	})
}

func requireStatus(o model.Order, allowed ...model.OrderStatus) error {
	for _, st := range allowed {
		if o.Status == st {
			return nil
		}
	}
	return auctionerrors.Wrapf(auctionerrors.ErrInvalidTransition, "order is %s", o.Status)
}
