// Package middleware provides the gin middleware chain of the query API.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"portraits/internal/core/apperror"
	"portraits/pkg/logger"
)

// Recovery turns a handler panic into an INTERNAL_ERROR. The stack is logged,
// never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"path", c.FullPath(),
					"error", err,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(
					apperror.NewInternal(fmt.Errorf("panic: %v", err)).
						WithDetail("request_id", c.GetString(KeyRequestID)),
				)
				c.Abort()
			}
		}()
		c.Next()
	}
}
