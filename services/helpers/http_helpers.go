package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"voltbay/internal/auctionerrors"
	model "voltbay/internal/models"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
)

const actorKey = "voltbay.actor"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auctionerrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auctionerrors.ErrInvalidInput), errors.Is(err, auctionerrors.ErrInvalidOperation):
		status = http.StatusBadRequest
	case errors.Is(err, auctionerrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, auctionerrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, auctionerrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, auctionerrors.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		return status, "internal server error"
	}

	message, ok := auctionerrors.Message(err)
	if !ok {
		message = http.StatusText(status)
	}
	return status, message
}

// RespondError writes the mapped error response and logs the failure
func RespondError(c *gin.Context, handlerName, logMessage string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+logMessage, fields)
		return
	}
	utils.Warn(handlerName+": "+logMessage, fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// SetActor stores the authenticated caller on the request
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// CurrentActor returns the caller stored by the auth middleware
func CurrentActor(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok && actor.UserID != ""
}

// MustActor returns the caller or writes 401 and returns false
func MustActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthorized, "authentication required")
		c.Abort()
	}
	return actor, ok
}
