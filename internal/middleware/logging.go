package middleware

import (
	"time"

	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// RequestLogger logs one line per request after the rest of the chain ran.
func RequestLogger(log *logger.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		start := time.Now()
		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if userID := GetUserID(c); userID != uuid.Nil {
			kv = append(kv, "user_id", userID.String())
		}
		log.Info("request", kv...)
	}
}
