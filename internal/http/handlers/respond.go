package handlers

import (
	"strconv"

	"github.com/foodvlog/backend/internal/http/dto"
	"github.com/foodvlog/backend/internal/middleware"
	"github.com/foodvlog/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// StatusFor maps a workflow error to its HTTP status.
func StatusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindInvalidArgument, services.KindConflict:
		return fiber.StatusBadRequest
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := StatusFor(err)
	reqID := middleware.GetRequestID(c)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Message: services.MessageOf(err), RequestID: reqID})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: msg})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = defaultPageSize
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
