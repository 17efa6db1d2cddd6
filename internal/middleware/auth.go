package middleware

import (
	"strings"

	"github.com/foodvlog/backend/internal/auth"
	"github.com/foodvlog/backend/internal/rbac"
	"github.com/foodvlog/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CtxActorID = "actor_id"
	CtxRole    = "role"
)

func AuthMiddleware(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "missing authorization header")
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return unauthorized(c, "invalid authorization format")
		}

		claims, err := auth.ParseJWT(secret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return unauthorized(c, "invalid or expired token")
		}
		if !rbac.IsValidRole(claims.Role) {
			return unauthorized(c, "unknown role")
		}

		c.Locals(CtxActorID, claims.ActorID)
		c.Locals(CtxRole, claims.Role)

		return c.Next()
	}
}

// GetActor returns the authenticated actor, or a zero Actor on public routes.
func GetActor(c *fiber.Ctx) services.Actor {
	id, _ := c.Locals(CtxActorID).(uuid.UUID)
	role, _ := c.Locals(CtxRole).(string)
	return services.Actor{ID: id, Role: role}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": msg})
}
