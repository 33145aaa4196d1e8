package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/validate"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

// POST /payments/notify
//
// Called by the provider, not a browser: no session, no csrf. Anything it
// can retry safely is answered 200 with the outcome.
func (h *PaymentHandler) Notify(c *fiber.Ctx) error {
	n := domain.Notification{
		PaymentStatus: c.FormValue("payment_status"),
		ReceiverEmail: c.FormValue("receiver_email"),
		Invoice:       c.FormValue("invoice"),
		Gross:         c.FormValue("mc_gross"),
		Currency:      c.FormValue("mc_currency"),
		TxnID:         c.FormValue("txn_id"),
		// fasthttp reuses the body buffer after the handler returns
		Raw: bytes.Clone(c.Body()),
	}
	outcome, err := h.Payments.HandleNotification(c.UserContext(), n)
	if err != nil {
		return err
	}
	fields := map[string]any{"invoice": n.Invoice, "txn_id": n.TxnID, "outcome": string(outcome)}
	if outcome == domain.PaymentConfirmed {
		applog.Audit(c, "payment.confirmed", fields)
	} else {
		applog.Info(c, "payment.notify", fields)
	}
	return c.JSON(fiber.Map{"outcome": outcome})
}

// GET /payments/success/:number/:total
//
// Only a landing page; the order is marked paid by Notify alone.
func (h *PaymentHandler) Success(c *fiber.Ctx) error {
	number, ok := validate.OrderNumber(c.Params("number"))
	if !ok {
		return domain.Invalid("number", "unknown order number")
	}
	total, ok := validate.Price(c.Params("total"))
	if !ok {
		return domain.Invalid("total", "malformed amount")
	}
	return render(c, "payment_result", fiber.Map{
		"Title":   "Thank you",
		"Number":  number,
		"Total":   money(total),
		"Message": "Your payment is being confirmed. The order shows as paid once PayPal notifies us.",
	})
}

// GET /payments/canceled
func (h *PaymentHandler) Canceled(c *fiber.Ctx) error {
	applog.Info(c, "payment.canceled", nil)
	return render(c, "payment_result", fiber.Map{
		"Title":   "Payment canceled",
		"Message": "Nothing was charged. Your order stays pending until you pay.",
	})
}
