package handler

import (
	"context"
	"net/http"

	bidding "voltbay/internal/biddingService"
	model "voltbay/internal/models"
	"voltbay/services/helpers"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_handler.go -package=handler

type BiddingServiceInterface interface {
	CreateAuction(ctx context.Context, ownerID string, in bidding.CreateAuctionInput) (model.Product, error)
	GetAuction(ctx context.Context, auctionID string) (model.Product, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (model.Bid, error)
	ListBids(ctx context.Context, auctionID string) ([]model.Bid, error)
	ListAuctionsByBidder(ctx context.Context, userID string) ([]model.Product, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// CreateAuctionHandler handles POST /api/products
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	product, err := h.service.CreateAuction(c.Request.Context(), actor.UserID, bidding.CreateAuctionInput{
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		MinimumBid:     req.MinimumBid,
		AuctionEndDate: req.AuctionEndDate,
	})
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", "failed to create auction", err, map[string]any{
			"owner_id": actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, product, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": product.ID,
		"owner_id":   product.OwnerID,
		"end_date":   product.AuctionEndDate,
	})
}

// GetAuctionHandler handles GET /api/products/:id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("id")
	product, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionHandler", "error retrieving auction", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, product, "auction retrieved successfully")
}

// PlaceBidHandler handles POST /api/products/:id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	auctionID := c.Param("id")
	bid, err := h.service.PlaceBid(c.Request.Context(), auctionID, actor.UserID, req.Amount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", "failed to place bid", err, map[string]any{
			"auction_id": auctionID,
			"bidder_id":  actor.UserID,
			"amount":     req.Amount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.ID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
		"is_winning": bid.IsWinning,
	})
}

// ListBidsHandler handles GET /api/products/:id/bids
func (h *BiddingHandler) ListBidsHandler(c *gin.Context) {
	auctionID := c.Param("id")
	bids, err := h.service.ListBids(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "ListBidsHandler", "error retrieving bids", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("ListBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// MyAuctionsHandler handles GET /api/users/me/auctions
func (h *BiddingHandler) MyAuctionsHandler(c *gin.Context) {
	actor, ok := helpers.MustActor(c)
	if !ok {
		return
	}

	products, err := h.service.ListAuctionsByBidder(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondError(c, "MyAuctionsHandler", "error retrieving auctions", err, map[string]any{"user_id": actor.UserID})
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "auctions retrieved successfully")
	helpers.LogSuccess("MyAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"user_id":        actor.UserID,
		"auctions_count": len(products),
	})
}
