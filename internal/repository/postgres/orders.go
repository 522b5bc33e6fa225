package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, product_id, buyer_id, seller_id, total_amount, platform_fee, status,
shipping_address, payment_intent_id, created_at, updated_at`

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o        model.Order
		status   string
		shipping []byte
		intentID *string
	)
	err := row.Scan(
		&o.ID,
		&o.ProductID,
		&o.BuyerID,
		&o.SellerID,
		&o.TotalAmount,
		&o.PlatformFee,
		&status,
		&shipping,
		&intentID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}
	o.Status = model.OrderStatus(status)
	if intentID != nil {
		o.PaymentIntentID = *intentID
	}
	if len(shipping) > 0 {
		if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
			return model.Order{}, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	return o, nil
}

func (s *Store) CreateOrder(ctx context.Context, o model.Order) error {
	const stmt = `
INSERT INTO orders (id, product_id, buyer_id, seller_id, total_amount, platform_fee, status,
	shipping_address, payment_intent_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	shipping, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}
	var intentID *string
	if o.PaymentIntentID != "" {
		intentID = &o.PaymentIntentID
	}

	_, err = s.exec(ctx, stmt,
		o.ID,
		o.ProductID,
		o.BuyerID,
		o.SellerID,
		o.TotalAmount,
		o.PlatformFee,
		o.Status,
		shipping,
		intentID,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// orders_live_product_idx: one non-cancelled order per product
			return fmt.Errorf("create order for product %s: %w", o.ProductID, auctionerrors.ErrAlreadyPaid)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *Store) getOrder(ctx context.Context, query, key string) (model.Order, error) {
	o, err := scanOrder(s.queryRow(ctx, query, key))
	if err != nil {
		if isInvalidUUID(err) || errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, fmt.Errorf("get order %s: %w", key, auctionerrors.ErrOrderNotFound)
		}
		return model.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (model.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (s *Store) GetOrderForUpdate(ctx context.Context, id string) (model.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (s *Store) GetOrderByPaymentIntentForUpdate(ctx context.Context, intentID string) (model.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1 FOR UPDATE`, intentID)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	tag, err := s.exec(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update order %s: %w", id, auctionerrors.ErrOrderNotFound)
	}
	return nil
}

func (s *Store) AttachPaymentIntent(ctx context.Context, id, intentID string, at time.Time) error {
	tag, err := s.exec(ctx, `UPDATE orders SET payment_intent_id = $2, updated_at = $3 WHERE id = $1`, id, intentID, at)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("attach intent %s: %w", intentID, auctionerrors.ErrConflict)
		}
		return fmt.Errorf("attach payment intent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attach intent to order %s: %w", id, auctionerrors.ErrOrderNotFound)
	}
	return nil
}

func (s *Store) RecordWebhookEvent(ctx context.Context, eventID, eventType string, at time.Time) (bool, error) {
	const stmt = `
INSERT INTO webhook_events (id, type, received_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING`

	tag, err := s.exec(ctx, stmt, eventID, eventType, at)
	if err != nil {
		return false, fmt.Errorf("record webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
