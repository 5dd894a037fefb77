package server

import (
	"net/http"
	"time"

	"github.com/careerforge/careerforge/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDHeader carries the authenticated caller, set by the auth layer in
// front of this service.
const UserIDHeader = "X-User-ID"

const userIDKey = "userID"

// DefaultMaxBodyBytes caps request bodies unless SetMaxBodyBytes says otherwise
const DefaultMaxBodyBytes int64 = 1 << 20

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := c.GetString(userIDKey); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// recovery turns a panic into a generic 500. The panic is logged, never sent.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.Envelope{
					Status:  models.StatusError,
					Message: "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.Envelope{
				Status:  models.StatusError,
				Message: "Authentication required",
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// limitBody makes reads past limit() fail with *http.MaxBytesError
func limitBody(limit func() int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit())
		}
		c.Next()
	}
}
