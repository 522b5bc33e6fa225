package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/payment"
	"voltbay/internal/settlement"
	"voltbay/services/helpers"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=payments_handler.go -destination=mock_payments_handler.go -package=handler

// maxWebhookBytes bounds the provider payload read into memory
const maxWebhookBytes = 64 << 10

type PaymentServiceInterface interface {
	ProcessAuctionPayment(ctx context.Context, req payment.AuctionPaymentRequest) (payment.AuctionPaymentResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type SettlementInterface interface {
	SettleExpired(ctx context.Context, auctionID string) (settlement.Result, error)
}

type PaymentsHandler struct {
	payments PaymentServiceInterface
	settler  SettlementInterface
}

func NewPaymentsHandler(payments PaymentServiceInterface, settler SettlementInterface) *PaymentsHandler {
	return &PaymentsHandler{payments: payments, settler: settler}
}

// AuctionPaymentHandler handles POST /api/payments/auction-payment
func (h *PaymentsHandler) AuctionPaymentHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	var req helpers.AuctionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AuctionPaymentHandler", err)
		return
	}
	if req.WinnerID != actor.UserID {
		helpers.RespondError(c, "AuctionPaymentHandler", "caller is not the winner", auctionerrors.ErrNotWinner, map[string]any{
			"auction_id": req.AuctionID,
			"user_id":    actor.UserID,
		})
		return
	}

	res, err := h.payments.ProcessAuctionPayment(c.Request.Context(), payment.AuctionPaymentRequest{
		AuctionID:       req.AuctionID,
		WinnerID:        req.WinnerID,
		WinningBid:      req.WinningBid,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		helpers.RespondError(c, "AuctionPaymentHandler", "failed to process auction payment", err, map[string]any{
			"auction_id": req.AuctionID,
			"user_id":    actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, res, "payment intent created")
	helpers.LogSuccess("AuctionPaymentHandler", "payment intent created", map[string]any{
		"auction_id": req.AuctionID,
		"order_id":   res.OrderID,
		"intent_id":  res.PaymentIntentID,
	})
}

// ExpireAuctionHandler handles POST /api/payments/auction/:auctionId/expire
func (h *PaymentsHandler) ExpireAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auctionId")
	res, err := h.settler.SettleExpired(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "ExpireAuctionHandler", "failed to settle auction", err, map[string]any{"auction_id": auctionID})
		return
	}

	message := "auction settled"
	if !res.Applied {
		message = "auction already settled"
	}
	utils.JSONResponse(c, http.StatusOK, res, message)
	helpers.LogSuccess("ExpireAuctionHandler", message, map[string]any{
		"auction_id": auctionID,
		"outcome":    res.Outcome,
		"applied":    res.Applied,
	})
}

// WebhookHandler handles POST /api/payments/webhook
func (h *PaymentsHandler) WebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err, "unable to read webhook body")
		utils.Warn("WebhookHandler: failed to read body", map[string]any{"error": err.Error()})
		return
	}

	err = h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, auctionerrors.ErrInvalidSignature) {
			utils.JSONError(c, http.StatusBadRequest, err, "invalid webhook signature")
			utils.Warn("WebhookHandler: signature rejected", map[string]any{"error": err.Error()})
			return
		}
		// non-2xx makes the provider redeliver
		helpers.RespondError(c, "WebhookHandler", "failed to apply webhook", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"received": true}, "webhook received")
}
