package utils

import (
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var exposeErrors atomic.Bool

func init() {
	exposeErrors.Store(true)
}

// ExposeErrors toggles the raw error detail in error responses. Production turns it off.
func ExposeErrors(on bool) {
	exposeErrors.Store(on)
}

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"success": status < 400,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	body := gin.H{
		"success": false,
		"message": message,
	}
	if err != nil && exposeErrors.Load() {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}
