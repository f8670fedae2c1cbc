package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/pkg/middleware/requestid"
)

// Audit logs successful mutations with the acting user. action names the operation, e.g. "availability.copy".
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if actor, ok := ActorFromContext(c); ok {
			fields = append(fields, zap.String("user_id", actor.UserID), zap.String("role", string(actor.Role)))
		}
		logger.Info("audit", fields...)
	}
}
