package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderXRequestID carries the request id across service hops.
	HeaderXRequestID = "X-Request-ID"
	// ContextRequestID is the gin context key the logger and recovery
	// middleware read.
	ContextRequestID = "request_id"
)

// RequestID honors an inbound X-Request-ID and assigns a fresh UUID
// otherwise, echoing the id back so callers can correlate log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
