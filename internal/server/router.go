package server

import (
	"context"
	"net/http"

	"voltbay/internal/auth"
	model "voltbay/internal/models"
	adminhandler "voltbay/services/admin/handler"
	biddinghandler "voltbay/services/bidding/handler"
	notificationshandler "voltbay/services/notifications/handler"
	ordershandler "voltbay/services/orders/handler"
	paymentshandler "voltbay/services/payments/handler"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Issuer        *auth.Issuer
	Bidding       biddinghandler.BiddingServiceInterface
	Payments      paymentshandler.PaymentServiceInterface
	Settlement    paymentshandler.SettlementInterface
	Orders        ordershandler.OrdersServiceInterface
	Notifications notificationshandler.NotificationServiceInterface
	Scheduler     adminhandler.SchedulerInterface
	// Health reports whether storage is reachable; nil means always healthy.
	Health func(ctx context.Context) error
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := biddinghandler.NewBiddingHandler(deps.Bidding)
	paymentsHandler := paymentshandler.NewPaymentsHandler(deps.Payments, deps.Settlement)
	ordersHandler := ordershandler.NewOrdersHandler(deps.Orders)
	notificationsHandler := notificationshandler.NewNotificationsHandler(deps.Notifications)
	adminHandler := adminhandler.NewAdminHandler(deps.Scheduler)

	authed := AuthMiddleware(deps.Issuer)
	adminOnly := RequireRole(model.RoleAdmin)

	api := router.Group("/api")
	api.GET("/health", healthHandler(deps.Health))

	products := api.Group("/products")
	{
		products.POST("", authed, biddingHandler.CreateAuctionHandler)
		products.GET("/:id", biddingHandler.GetAuctionHandler)
		products.GET("/:id/bids", biddingHandler.ListBidsHandler)
		products.POST("/:id/bids", authed, biddingHandler.PlaceBidHandler)
	}

	users := api.Group("/users", authed)
	{
		users.GET("/me/auctions", biddingHandler.MyAuctionsHandler)
	}

	payments := api.Group("/payments")
	{
		// authenticated by the provider signature, not a bearer token
		payments.POST("/webhook", paymentsHandler.WebhookHandler)
		payments.POST("/auction-payment", authed, paymentsHandler.AuctionPaymentHandler)
		payments.POST("/auction/:auctionId/expire", authed, adminOnly, paymentsHandler.ExpireAuctionHandler)
	}

	orders := api.Group("/orders", authed)
	{
		orders.GET("/:id", ordersHandler.GetOrderHandler)
		orders.POST("/:id/ship", ordersHandler.ShipHandler)
		orders.POST("/:id/confirm-delivery", ordersHandler.ConfirmDeliveryHandler)
		orders.POST("/:id/refund", adminOnly, ordersHandler.RefundHandler)
	}

	api.GET("/wallet", authed, ordersHandler.WalletHandler)

	notifications := api.Group("/notifications", authed)
	{
		notifications.GET("", notificationsHandler.ListHandler)
		notifications.POST("/:id/read", notificationsHandler.MarkReadHandler)
	}

	admin := api.Group("/admin", authed, adminOnly)
	{
		admin.GET("/scheduler", adminHandler.SchedulerStatusHandler)
		admin.POST("/scheduler/run", adminHandler.RunSchedulerHandler)
	}

	return router
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				utils.JSONError(c, http.StatusServiceUnavailable, err, "storage unavailable")
				utils.Error("health check failed", map[string]any{"error": err.Error()})
				return
			}
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service healthy")
	}
}
