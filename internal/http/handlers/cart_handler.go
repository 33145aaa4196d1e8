package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/session"
	"lacestore/internal/validate"
)

type CartHandler struct {
	Cart     *services.CartService
	Sessions session.Store
}

type addToCartReq struct {
	Color    string `json:"color" form:"color"`
	Size     string `json:"size" form:"size"`
	Quantity int    `json:"quantity" form:"quantity"`
}

// POST /cart/:productID
func (h *CartHandler) Add(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productID"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return domain.Invalid("product_id", "must be a positive integer")
	}
	var req addToCartReq
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("body", "malformed request")
	}
	color, ok := validate.Label(req.Color)
	if !ok {
		return domain.Invalid("color", "required")
	}
	size, ok := validate.Label(req.Size)
	if !ok {
		return domain.Invalid("size", "required")
	}
	qty, ok := validate.Qty(req.Quantity)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "quantity", "value": req.Quantity})
		return domain.Invalid("quantity", "must be between 1 and 99")
	}

	cart, err := h.Sessions.Cart(c)
	if err != nil {
		return err
	}
	stock, err := h.Cart.Add(c.UserContext(), cart, domain.CartLine{ProductID: pid, Color: color, Size: size, Quantity: qty})
	if errors.Is(err, domain.ErrInsufficientStock) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not enough stock for that item", "stock": stock})
	}
	if err != nil {
		return err
	}
	if err := h.Sessions.SaveCart(c, cart); err != nil {
		return err
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": pid, "color": color, "size": size, "quantity": qty})
	return c.JSON(fiber.Map{"stock": stock})
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Sessions.Cart(c)
	if err != nil {
		return err
	}
	cv, err := h.Cart.View(c.UserContext(), cart)
	if err != nil {
		return err
	}
	return c.JSON(toCartView(cv))
}

type updateCartReq struct {
	Index    int `json:"index" form:"index"`
	Quantity int `json:"quantity" form:"quantity"`
}

// POST /cart/update
func (h *CartHandler) Update(c *fiber.Ctx) error {
	var req updateCartReq
	if err := c.BodyParser(&req); err != nil {
		return domain.Invalid("body", "malformed request")
	}
	if _, ok := validate.Qty(req.Quantity); !ok {
		return domain.Invalid("quantity", "must be between 1 and 99")
	}
	cart, err := h.Sessions.Cart(c)
	if err != nil {
		return err
	}
	if err := h.Cart.UpdateQuantity(cart, req.Index, req.Quantity); err != nil {
		return err
	}
	if err := h.Sessions.SaveCart(c, cart); err != nil {
		return err
	}
	return h.View(c)
}

// POST /cart/remove/:index
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	idx, ok := validate.Index(c.Params("index"))
	if !ok {
		return domain.Invalid("index", "must be a non-negative integer")
	}
	cart, err := h.Sessions.Cart(c)
	if err != nil {
		return err
	}
	h.Cart.Remove(cart, idx)
	if err := h.Sessions.SaveCart(c, cart); err != nil {
		return err
	}
	return h.View(c)
}

// POST /cart/clear
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cart, err := h.Sessions.Cart(c)
	if err != nil {
		return err
	}
	h.Cart.Clear(cart)
	if err := h.Sessions.SaveCart(c, cart); err != nil {
		return err
	}
	return h.View(c)
}
