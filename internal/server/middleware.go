package server

import (
	"net/http"
	"strings"
	"time"

	"voltbay/internal/auctionerrors"
	"voltbay/internal/auth"
	model "voltbay/internal/models"
	"voltbay/services/helpers"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if actor, ok := helpers.CurrentActor(c); ok {
		fields["user_id"] = actor.UserID
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware requires a valid bearer token and stores its caller on the request
func AuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := issuer.ParseToken(strings.TrimSpace(token))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "invalid or expired token")
			utils.Warn("AuthMiddleware: token rejected", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Abort()
			return
		}

		helpers.SetActor(c, model.Actor{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// RequireRole lets only callers with role through. It must run after AuthMiddleware.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := helpers.MustActor(c)
		if !ok {
			return
		}
		if actor.Role != role {
			utils.JSONError(c, http.StatusForbidden, auctionerrors.ErrForbidden, "insufficient role")
			utils.Warn("RequireRole: access denied", map[string]any{
				"path":    c.Request.URL.Path,
				"user_id": actor.UserID,
				"role":    actor.Role,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
