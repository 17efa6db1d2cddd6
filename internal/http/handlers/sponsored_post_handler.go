package handlers

import (
	"io"
	"strings"

	"github.com/foodvlog/backend/internal/http/dto"
	"github.com/foodvlog/backend/internal/middleware"
	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SponsoredPostHandler struct {
	moderationService *services.ModerationService
	maxScreenshot     int64
	log               *zap.Logger
}

func NewSponsoredPostHandler(moderationService *services.ModerationService, maxScreenshotBytes int, log *zap.Logger) *SponsoredPostHandler {
	return &SponsoredPostHandler{
		moderationService: moderationService,
		maxScreenshot:     int64(maxScreenshotBytes),
		log:               log,
	}
}

func (h *SponsoredPostHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitSponsoredPostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	vendorID, err := uuid.Parse(strings.TrimSpace(req.VendorID))
	if err != nil {
		return badRequest(c, "invalid vendor_id")
	}

	in := services.SubmitInput{
		VendorID:      vendorID,
		Title:         req.Title,
		URL:           req.URL,
		Platform:      req.Platform,
		Description:   req.Description,
		ScreenshotURL: req.ScreenshotURL,
	}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		shot, err := h.readScreenshot(c)
		if err != nil {
			return badRequest(c, err.Error())
		}
		in.Screenshot = shot
	}

	post, err := h.moderationService.Submit(c.UserContext(), middleware.GetActor(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PostResponse{
		Success: true,
		Message: "Sponsored post submitted for review",
		Post:    post,
	})
}

// readScreenshot returns nil when the form has no screenshot part.
func (h *SponsoredPostHandler) readScreenshot(c *fiber.Ctx) (*services.Screenshot, error) {
	fh, err := c.FormFile("screenshot")
	if err != nil {
		return nil, nil
	}
	if h.maxScreenshot > 0 && fh.Size > h.maxScreenshot {
		return nil, fiber.NewError(fiber.StatusBadRequest, "screenshot is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unreadable screenshot")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unreadable screenshot")
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "screenshot must be an image")
	}

	return &services.Screenshot{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}

func (h *SponsoredPostHandler) Review(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid post id")
	}

	var req dto.ReviewSponsoredPostRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	post, err := h.moderationService.Review(c.UserContext(), middleware.GetActor(c), id, services.ReviewInput{
		Decision:     req.Status,
		AdminNotes:   req.AdminNotes,
		PayoutAmount: req.PayoutAmount,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PostResponse{Success: true, Message: "Sponsored post " + post.Status, Post: post})
}

func (h *SponsoredPostHandler) ListPending(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	posts, err := h.moderationService.ListPending(c.UserContext(), middleware.GetActor(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PostsResponse{Success: true, Posts: nonNilPosts(posts)})
}

func (h *SponsoredPostHandler) ListByVlogger(c *fiber.Ctx) error {
	vloggerID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid vlogger id")
	}

	limit, offset := pageParams(c)
	posts, err := h.moderationService.ListByVlogger(c.UserContext(), middleware.GetActor(c), vloggerID, limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PostsResponse{Success: true, Posts: nonNilPosts(posts)})
}

func (h *SponsoredPostHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid post id")
	}

	post, err := h.moderationService.Get(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PostResponse{Success: true, Post: post})
}

func nonNilPosts(posts []models.SponsoredPostWithNames) []models.SponsoredPostWithNames {
	if posts == nil {
		return []models.SponsoredPostWithNames{}
	}
	return posts
}
