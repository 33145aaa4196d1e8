package handlers

import (
	"github.com/gofiber/fiber/v2"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type availabilityReq struct {
	Color string `json:"color" form:"color"`
	Size  string `json:"size" form:"size"`
}

// POST /api/v1/availability/:productID
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productID"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return domain.Invalid("product_id", "must be a positive integer")
	}
	var req availabilityReq
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("body", "malformed request")
	}
	color, okColor := validate.Label(req.Color)
	size, okSize := validate.Label(req.Size)
	if !okColor || !okSize {
		return domain.Invalid("variant", "color and size are required")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), pid, color, size)
	if err != nil {
		return err
	}
	return c.JSON(avail)
}
