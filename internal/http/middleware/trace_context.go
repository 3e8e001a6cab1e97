package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/skillbridge-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientIDLen = 128
)

// AttachTraceContext puts request and trace ids on the request context and echoes them
// back. An active span's trace id wins over one supplied by the client.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := &ctxutil.TraceData{
			RequestID: clientID(c.GetHeader(headerRequestID)),
			TraceID:   spanTraceID(c.Request.Context()),
		}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		if td.TraceID == "" {
			td.TraceID = clientID(c.GetHeader(headerTraceID))
		}
		if td.TraceID == "" {
			td.TraceID = td.RequestID
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}

func spanTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// clientID drops ids that are oversized or could split a header or log line.
func clientID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxClientIDLen || strings.ContainsAny(raw, "\r\n\t") {
		return ""
	}
	return raw
}
