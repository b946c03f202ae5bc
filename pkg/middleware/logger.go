package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
)

// LoggerConfig defines the config for the Logger middleware.
type LoggerConfig struct {
	// SkipPaths lists paths that are not logged, typically health probes.
	SkipPaths []string
}

// Logger logs one structured line per request.
func Logger() gin.HandlerFunc {
	return LoggerWithConfig(LoggerConfig{SkipPaths: []string{"/health"}})
}

// LoggerWithConfig returns a Logger middleware with custom config.
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", GetRequestID(c),
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Errorw("request completed", fields...)
		case c.Writer.Status() >= 400:
			logger.Warnw("request completed", fields...)
		default:
			logger.Infow("request completed", fields...)
		}
	}
}
