package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const CtxRequestID = "request_id"

const maxRequestIDLen = 64

// RequestIDMiddleware propagates a caller's X-Request-ID or mints one.
// Oversized or non-printable ids are replaced so they are safe to log.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if !validRequestID(reqID) {
			reqID = uuid.New().String()
		}
		c.Locals(CtxRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

func GetRequestID(c *fiber.Ctx) string {
	reqID, _ := c.Locals(CtxRequestID).(string)
	return reqID
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
