package middleware

import (
	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	TraceIDHeader   = "X-Trace-ID"
	traceIDLocalKey = "traceID"
)

// TraceID tags every request with a trace id. A caller-supplied header
// wins so a client can correlate its own retries; otherwise one is
// generated. The id is echoed on the response and threaded into the
// request context for TraceFromContext loggers downstream.
func (m *Middleware) TraceID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDHeader, traceID)
		c.Locals(traceIDLocalKey, traceID)
		c.SetUserContext(logger.ContextWithTraceID(c.Context(), traceID))

		return c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" outside the
// middleware chain. Handlers include it in failure responses so clients
// have something to quote.
func GetTraceID(c *fiber.Ctx) string {
	if traceID, ok := c.Locals(traceIDLocalKey).(string); ok {
		return traceID
	}
	return ""
}
