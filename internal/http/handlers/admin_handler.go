package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/repos"
	"lacestore/internal/services"
	"lacestore/internal/validate"
)

type AdminHandler struct {
	Orders *services.OrderService
	Inv    *services.InventoryService
	Users  *repos.UserRepo
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	orders, err := h.Orders.ListLatest(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(orders, func(o domain.Order, _ int) orderView { return toOrderView(o) }))
}

type statusReq struct {
	Status string `json:"status" form:"status"`
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return domain.NotFound("order", c.Params("id"))
	}
	var req statusReq
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("body", "malformed request")
	}
	to, err := domain.ToStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "status", "value": req.Status})
		return err
	}
	if err := h.Orders.AdvanceStatus(c.UserContext(), id, to); err != nil {
		return err
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order_id": id, "status": string(to)})
	return c.JSON(fiber.Map{"id": id, "status": to})
}

func (h *AdminHandler) DeleteOrder(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return domain.NotFound("order", c.Params("id"))
	}
	if err := h.Orders.DeleteOrder(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.order.delete", map[string]any{"order_id": id})
	return c.JSON(fiber.Map{"deleted": id})
}

func (h *AdminHandler) DeleteOrderItem(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return domain.NotFound("order item", c.Params("id"))
	}
	item, err := h.Orders.DeleteItem(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.order_item.delete", map[string]any{
		"item_id":  id,
		"order_id": item.OrderID,
		"quantity": item.Quantity,
		"subtotal": money(item.Subtotal),
	})
	return c.JSON(fiber.Map{"deleted": id, "order_id": item.OrderID})
}

func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Inv.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

type stockReq struct {
	VariantID int64 `json:"variant_id" form:"variant_id"`
	Stock     int   `json:"stock" form:"stock"`
}

func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	var req stockReq
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("body", "malformed request")
	}
	if req.VariantID <= 0 {
		return domain.Invalid("variant_id", "must be a positive integer")
	}
	if err := h.Inv.SetStock(c.UserContext(), req.VariantID, req.Stock); err != nil {
		return err
	}
	applog.Audit(c, "admin.inventory.set", map[string]any{"variant_id": req.VariantID, "stock": req.Stock})
	return c.JSON(fiber.Map{"variant_id": req.VariantID, "stock": req.Stock})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}
