package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"
	"voltbay/internal/notify"
	"voltbay/utils"

	"github.com/shopspring/decimal"
)

// HandleWebhook verifies and applies a provider event. Redelivered events,
// unknown event types and unknown intents are acknowledged without changes.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if !errors.Is(err, auctionerrors.ErrInvalidInput) {
			err = fmt.Errorf("%w: %v", auctionerrors.ErrInvalidSignature, err)
		}
		return fmt.Errorf("payment: rejected webhook: %w", err)
	}

	fields := map[string]any{"event_id": ev.ID, "event_type": ev.Type, "intent_id": ev.PaymentIntentID}
	switch ev.Type {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled:
	default:
		utils.Debug("ignoring webhook event", fields)
		return nil
	}

	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		fresh, err := s.store.RecordWebhookEvent(ctx, ev.ID, ev.Type, now)
		if err != nil {
			return err
		}
		if !fresh {
			utils.Info("duplicate webhook event", fields)
			return nil
		}

		order, err := s.store.GetOrderByPaymentIntentForUpdate(ctx, ev.PaymentIntentID)
		if errors.Is(err, auctionerrors.ErrNotFound) {
			utils.Warn("webhook for unknown payment intent", fields)
			return nil
		}
		if err != nil {
			return err
		}
		fields["order_id"] = order.ID

		if order.Status != model.OrderPending {
			if ev.Type == EventPaymentSucceeded && order.Status == model.OrderCancelled {
				return s.refundLateCapture(ctx, order, fields)
			}
			utils.Warn("webhook for order that is no longer pending", fields)
			return nil
		}
		switch ev.Type {
		case EventPaymentSucceeded:
			return s.confirmOrder(ctx, order, now)
		case EventPaymentFailed:
			return s.notifyFailedAttempt(ctx, order, now)
		default:
			return s.cancelOrder(ctx, order, now)
		}
	})
	if err != nil {
		return fmt.Errorf("payment: failed to apply webhook %s: %w", ev.ID, err)
	}

	utils.Info("webhook processed", fields)
	return nil
}

// confirmOrder holds the seller's net amount in escrow
func (s *Service) confirmOrder(ctx context.Context, order model.Order, now time.Time) error {
	if err := s.store.UpdateOrderStatus(ctx, order.ID, model.OrderConfirmed, now); err != nil {
		return err
	}

	net := order.SellerNet()
	if _, err := s.store.AdjustWallet(ctx, order.SellerID, decimal.Zero, net, now); err != nil {
		return err
	}
	if err := s.store.CreateWalletTransaction(ctx, model.WalletTransaction{
		ID:        utils.GenerateID(),
		UserID:    order.SellerID,
		OrderID:   order.ID,
		Type:      model.TxEscrowHold,
		Amount:    net,
		CreatedAt: now,
	}); err != nil {
		return err
	}

	data := map[string]any{"order_id": order.ID, "amount": order.TotalAmount}
	for _, n := range []model.Notification{
		notify.Message(order.SellerID, model.NotificationPaymentReceived, "Payment received",
			fmt.Sprintf("Payment of %s was received and is held until delivery.", order.TotalAmount.StringFixed(2)), data, now),
		notify.Message(order.BuyerID, model.NotificationPaymentReceived, "Payment confirmed",
			"Your payment was confirmed. The seller will ship your item.", data, now),
	} {
		if err := s.store.CreateNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// notifyFailedAttempt leaves the order PENDING: the intent stays usable and the
// buyer may retry with the same client secret
func (s *Service) notifyFailedAttempt(ctx context.Context, order model.Order, now time.Time) error {
	n := notify.Message(order.BuyerID, model.NotificationPaymentFailed, "Payment failed",
		"Your payment did not go through. You can try again with another payment method.",
		map[string]any{"order_id": order.ID, "auction_id": order.ProductID}, now)
	return s.store.CreateNotification(ctx, n)
}

// cancelOrder reopens the settled auction so the winner can start a new checkout
func (s *Service) cancelOrder(ctx context.Context, order model.Order, now time.Time) error {
	if err := s.store.UpdateOrderStatus(ctx, order.ID, model.OrderCancelled, now); err != nil {
		return err
	}

	p, err := s.reopenAuction(ctx, order.ProductID, now)
	if err != nil {
		return err
	}

	n := notify.Message(order.BuyerID, model.NotificationPaymentFailed, "Payment cancelled",
		fmt.Sprintf("Payment for %q was cancelled. You can start checkout again.", p.Title),
		map[string]any{"order_id": order.ID, "auction_id": p.ID}, now)
	return s.store.CreateNotification(ctx, n)
}

// refundLateCapture returns money captured for an order that was already cancelled.
// A refund failure rolls back the event record so the provider redelivers it.
func (s *Service) refundLateCapture(ctx context.Context, order model.Order, fields map[string]any) error {
	utils.Error("payment captured for cancelled order, refunding", fields)
	return s.gateway.Refund(ctx, order.PaymentIntentID, "late-capture-"+order.ID)
}
