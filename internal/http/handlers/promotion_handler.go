package handlers

import (
	"github.com/foodvlog/backend/internal/http/dto"
	"github.com/foodvlog/backend/internal/middleware"
	"github.com/foodvlog/backend/internal/models"
	"github.com/foodvlog/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PromotionHandler struct {
	promotionService *services.PromotionService
	log              *zap.Logger
}

func NewPromotionHandler(promotionService *services.PromotionService, log *zap.Logger) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService, log: log}
}

func (h *PromotionHandler) ListPackages(c *fiber.Ctx) error {
	return c.JSON(dto.PackagesResponse{Success: true, Packages: h.promotionService.ListPackages()})
}

func (h *PromotionHandler) ListFeatured(c *fiber.Ctx) error {
	limit, _ := pageParams(c)
	vendors, err := h.promotionService.ListFeaturedVendors(c.UserContext(), limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if vendors == nil {
		vendors = []models.FeaturedVendor{}
	}
	return c.JSON(dto.FeaturedVendorsResponse{Success: true, Vendors: vendors})
}

func (h *PromotionHandler) Purchase(c *fiber.Ctx) error {
	var req dto.PurchasePromotionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	res, err := h.promotionService.Purchase(c.UserContext(), middleware.GetActor(c), services.PurchaseInput{
		PackageID:     req.PackageID,
		PackageName:   req.PackageName,
		Price:         req.Price,
		Duration:      req.Duration,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseResponse{
		Success:   true,
		Message:   "Promotion purchased successfully",
		Promotion: res.Promotion,
		PaymentID: res.PaymentID,
	})
}

func (h *PromotionHandler) Cancel(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid promotion id")
	}

	promo, err := h.promotionService.Cancel(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PromotionResponse{Success: true, Message: "Promotion cancelled", Promotion: promo})
}

func (h *PromotionHandler) ListActive(c *fiber.Ctx) error {
	promos, err := h.promotionService.ListActive(c.UserContext(), middleware.GetActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PromotionsResponse{Success: true, Promotions: promos})
}

func (h *PromotionHandler) ListAll(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	promos, err := h.promotionService.ListAll(c.UserContext(), middleware.GetActor(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PromotionsResponse{Success: true, Promotions: promos})
}

func (h *PromotionHandler) History(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid promotion id")
	}

	history, err := h.promotionService.History(c.UserContext(), middleware.GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if history == nil {
		history = []models.AuditLog{}
	}
	return c.JSON(dto.HistoryResponse{Success: true, History: history})
}
