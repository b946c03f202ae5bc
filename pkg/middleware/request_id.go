package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDConfig defines the config for the RequestID middleware.
type RequestIDConfig struct {
	// Header is the header carrying the request ID.
	Header string
	// Generator produces new request IDs.
	Generator func() string
}

// DefaultRequestIDConfig is the default RequestID middleware config.
var DefaultRequestIDConfig = RequestIDConfig{
	Header:    HeaderXRequestID,
	Generator: func() string { return uuid.NewString() },
}

// RequestID attaches a unique ID to every request. An incoming ID from the
// client is kept, so IDs stay stable across service hops.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(DefaultRequestIDConfig)
}

// RequestIDWithConfig returns a RequestID middleware with custom config.
func RequestIDWithConfig(config RequestIDConfig) gin.HandlerFunc {
	if config.Header == "" {
		config.Header = HeaderXRequestID
	}
	if config.Generator == nil {
		config.Generator = DefaultRequestIDConfig.Generator
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(config.Header)
		if requestID == "" {
			requestID = config.Generator()
		}

		c.Set(ContextKeyRequestID, requestID)
		c.Writer.Header().Set(config.Header, requestID)
		c.Next()
	}
}

// GetRequestID returns the request ID from the gin context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
