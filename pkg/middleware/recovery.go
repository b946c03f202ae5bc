package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/pkg/utils/errors"
	"github.com/orphadx-io/orphadx/pkg/utils/response"
)

// RecoveryConfig defines the config for the Recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace includes the stack trace in the error response.
	// Only for development.
	EnableStackTrace bool
}

// Recovery converts panics into JSON error responses using the error code
// system, so a misbehaving handler never takes the process down.
func Recovery() gin.HandlerFunc {
	return RecoveryWithConfig(RecoveryConfig{})
}

// RecoveryWithConfig returns a Recovery middleware with custom config.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Errorw("panic recovered",
					"error", fmt.Sprintf("%v", r),
					"path", c.Request.URL.Path,
					"request_id", GetRequestID(c))

				err := errors.ErrInternal
				if config.EnableStackTrace {
					err = err.WithMessage(fmt.Sprintf("panic: %v\n%s", r, stack))
				}

				c.Abort()
				response.WriteError(c, err)
			}
		}()
		c.Next()
	}
}
