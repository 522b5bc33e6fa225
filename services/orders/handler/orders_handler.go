package handler

import (
	"context"
	"net/http"

	model "voltbay/internal/models"
	"voltbay/internal/orders"
	"voltbay/services/helpers"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=orders_handler.go -destination=mock_orders_handler.go -package=handler

type OrdersServiceInterface interface {
	GetOrder(ctx context.Context, actor model.Actor, orderID string) (model.Order, error)
	Ship(ctx context.Context, sellerID, orderID string) (model.Order, error)
	ConfirmDelivery(ctx context.Context, buyerID, orderID string) (model.Order, error)
	Refund(ctx context.Context, orderID string) (model.Order, error)
	GetWallet(ctx context.Context, userID string) (orders.WalletView, error)
}

type OrdersHandler struct {
	service OrdersServiceInterface
}

func NewOrdersHandler(service OrdersServiceInterface) *OrdersHandler {
	return &OrdersHandler{service: service}
}

// GetOrderHandler handles GET /api/orders/:id
func (h *OrdersHandler) GetOrderHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	orderID := c.Param("id")
	order, err := h.service.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		helpers.RespondError(c, "GetOrderHandler", "error retrieving order", err, map[string]any{
			"order_id": orderID,
			"user_id":  actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, order, "order retrieved successfully")
}

// ShipHandler handles POST /api/orders/:id/ship
func (h *OrdersHandler) ShipHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}
	h.respondTransition(c, "ShipHandler", "order shipped", actor, func(ctx context.Context, orderID string) (model.Order, error) {
		return h.service.Ship(ctx, actor.UserID, orderID)
	})
}

// ConfirmDeliveryHandler handles POST /api/orders/:id/confirm-delivery
func (h *OrdersHandler) ConfirmDeliveryHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}
	h.respondTransition(c, "ConfirmDeliveryHandler", "delivery confirmed", actor, func(ctx context.Context, orderID string) (model.Order, error) {
		return h.service.ConfirmDelivery(ctx, actor.UserID, orderID)
	})
}

// RefundHandler handles POST /api/orders/:id/refund
func (h *OrdersHandler) RefundHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}
	h.respondTransition(c, "RefundHandler", "order refunded", actor, h.service.Refund)
}

func (h *OrdersHandler) respondTransition(c *gin.Context, handlerName, message string, actor model.Actor, apply func(ctx context.Context, orderID string) (model.Order, error)) {
	orderID := c.Param("id")
	order, err := apply(c.Request.Context(), orderID)
	if err != nil {
		helpers.RespondError(c, handlerName, "order transition failed", err, map[string]any{
			"order_id": orderID,
			"user_id":  actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, order, message)
	helpers.LogSuccess(handlerName, message, map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
		"user_id":  actor.UserID,
	})
}

// WalletHandler handles GET /api/wallet
func (h *OrdersHandler) WalletHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	wallet, err := h.service.GetWallet(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondError(c, "WalletHandler", "error retrieving wallet", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, wallet, "wallet retrieved successfully")
}
