package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"propagated", "req-123", true},
		{"missing", "", false},
		{"too long", strings.Repeat("a", 65), false},
		{"whitespace", "abc def", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			got := resp.Header.Get("X-Request-ID")
			if tt.keep && got != tt.incoming {
				t.Errorf("X-Request-ID = %q, want %q", got, tt.incoming)
			}
			if !tt.keep && (got == "" || got == tt.incoming) {
				t.Errorf("X-Request-ID = %q, want a fresh id", got)
			}
		})
	}
}
