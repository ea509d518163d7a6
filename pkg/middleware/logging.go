package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/will-chou/capstone-community/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request at info, or warn for 5xx.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 500 {
			logger.L().Warn("request", fields...)
			return
		}
		logger.L().Info("request", fields...)
	}
}

// CORS sets permissive cross-origin headers for browser clients and answers
// preflight requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+LoginTokenHeader+", "+TwoFactorTokenHeader)
		h.Set("Access-Control-Expose-Headers", "Content-Length, Retry-After")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}
