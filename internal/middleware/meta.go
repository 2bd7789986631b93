package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/recruiting-crm-api/pkg/middleware/requestid"
)

const requestStartKey = "request_started_at"

// WithResponseMeta records when the request started so handlers can report timing.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// ResponseMeta builds the envelope meta block for the current request.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	meta := map[string]interface{}{}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	if value, ok := c.Get(requestStartKey); ok {
		if started, ok := value.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(started).Milliseconds()
		}
	}
	return meta
}
