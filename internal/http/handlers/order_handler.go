package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/session"
	"lacestore/internal/validate"
)

type OrderHandler struct {
	Cart     *services.CartService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Sessions session.Store
	// BaseURL is the public origin used in provider callback URLs.
	BaseURL string
}

type checkoutReq struct {
	CartTotal string `json:"cart_total" form:"cart_total"`
}

// POST /checkout
//
// The client may echo the total it displayed; it is logged against the
// server total and never used for pricing.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	u := currentUser(c)
	var req checkoutReq
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.Invalid("body", "malformed request")
		}
	}
	var client *decimal.Decimal
	if req.CartTotal != "" {
		d, ok := validate.Price(req.CartTotal)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "cart_total"})
			return domain.Invalid("cart_total", "must be an amount like 19.99")
		}
		client = &d
	}

	cart, err := h.Sessions.Cart(c)
	if err != nil {
		return err
	}
	order, err := h.Orders.Checkout(c.UserContext(), u.ID, cart)
	if err != nil {
		applog.Info(c, "order.place.rejected", map[string]any{"reason": err.Error()})
		return err
	}
	if err := h.Sessions.SaveCart(c, cart); err != nil {
		// the order is already committed
		applog.Error(c, "order.cart_save", err, map[string]any{"order_id": order.ID})
	}

	fields := map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"server_total": money(order.Total),
		"items":        len(order.Items),
	}
	if client != nil {
		fields["client_total"] = money(*client)
		fields["mismatch"] = !client.Equal(order.Total)
	}
	applog.Audit(c, "order.place", fields)
	return c.Status(fiber.StatusCreated).JSON(toOrderView(order))
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.ListByUser(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(orders, func(o domain.Order, _ int) orderView { return toOrderView(o) }))
}

// GET /orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(toOrderView(o))
}

// GET /orders/:id/pay renders the auto-submitting provider form.
func (h *OrderHandler) Pay(c *fiber.Ctx) error {
	o, err := h.load(c)
	if err != nil {
		return err
	}
	req, err := h.Payments.InitiationRequest(o, h.BaseURL)
	if err != nil {
		return err
	}
	applog.Info(c, "payment.initiate", map[string]any{"order_id": o.ID, "amount": req.Amount})
	return render(c, "payment", fiber.Map{"Request": req, "Fields": req.Fields()})
}

// load fetches the :id order; admins see every order, users only their own.
func (h *OrderHandler) load(c *fiber.Ctx) (domain.Order, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return domain.Order{}, domain.NotFound("order", c.Params("id"))
	}
	u := currentUser(c)
	if u.IsAdmin() {
		return h.Orders.Get(c.UserContext(), id)
	}
	o, err := h.Orders.GetForUser(c.UserContext(), id, u.ID)
	if err != nil && errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "order.view.denied", map[string]any{"order_id": id})
	}
	return o, err
}
