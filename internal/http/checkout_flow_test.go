package handlers_test

import (
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/domain"
	"lacestore/internal/http/handlers"
	"lacestore/internal/session"
)

type orderJSON struct {
	ID     int64  `json:"id"`
	Number string `json:"order_number"`
	Status string `json:"status"`
	Total  string `json:"total"`
	Items  []struct {
		ID       int64  `json:"id"`
		Quantity int    `json:"quantity"`
		Subtotal string `json:"subtotal"`
	} `json:"items"`
}

func paid(o orderJSON, gross, txn string) url.Values {
	return url.Values{
		"payment_status": {"Completed"},
		"receiver_email": {business},
		"invoice":        {strconv.FormatInt(o.ID, 10)},
		"mc_gross":       {gross},
		"mc_currency":    {"USD"},
		"txn_id":         {txn},
	}
}

// checkout logs in as alice and buys two red M balconettes.
func checkout(t *testing.T, srv *server) (*client, orderJSON) {
	t.Helper()
	alice := srv.client(t)
	alice.login("alice@lacestore.test")

	r := alice.postJSON("/cart/42", map[string]any{"color": "red", "size": "M", "quantity": 2})
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))

	r = alice.postJSON("/checkout", map[string]string{"cart_total": "40.00"})
	require.Equal(t, fiber.StatusCreated, r.status, string(r.body))
	var o orderJSON
	r.json(t, &o)
	return alice, o
}

// brokenCartSaves fails every cart write, as a full session store would.
type brokenCartSaves struct{ session.Store }

func (brokenCartSaves) SaveCart(*fiber.Ctx, *domain.Cart) error {
	return errors.New("session storage full")
}

func TestCheckoutSucceedsWhenCartSaveFails(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	srv.deps.OrderHandler.Sessions = brokenCartSaves{srv.deps.Sessions}

	_, o := checkout(t, srv)
	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, 3, srv.stock(t, 1))

	var n int
	require.NoError(t, srv.db.Get(&n, `SELECT COUNT(*) FROM orders`))
	assert.Equal(t, 1, n)
	logged := srv.logs.FilterMessage("order.cart_save").All()
	require.Len(t, logged, 1)
	assert.EqualValues(t, o.ID, logged[0].ContextMap()["order_id"])
}

func TestCheckoutPayAndCompensate(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	alice, o := checkout(t, srv)

	assert.Equal(t, "PENDING", o.Status)
	assert.Equal(t, "40.00", o.Total)
	assert.Len(t, o.Number, 24)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, srv.stock(t, 1))

	var cart struct {
		Lines []any  `json:"lines"`
		Total string `json:"total"`
	}
	alice.get("/cart").json(t, &cart)
	assert.Empty(t, cart.Lines, "cart cleared by checkout")
	assert.Equal(t, "0.00", cart.Total)

	r := srv.notify(t, paid(o, "40.00", "TX-100"))
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	assert.JSONEq(t, `{"outcome":"confirmed"}`, string(r.body))

	var got orderJSON
	alice.get("/orders/" + strconv.FormatInt(o.ID, 10)).json(t, &got)
	assert.Equal(t, "PAID", got.Status)

	admin := srv.client(t)
	admin.login("admin@lacestore.test")
	r = admin.postJSON("/admin/order-items/"+strconv.FormatInt(o.Items[0].ID, 10)+"/delete", nil)
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))

	assert.Equal(t, 5, srv.stock(t, 1))
	alice.get("/orders/" + strconv.FormatInt(o.ID, 10)).json(t, &got)
	assert.Equal(t, "0.00", got.Total)
	assert.Empty(t, got.Items)

	placed := srv.logs.FilterMessage("order.place").All()
	require.Len(t, placed, 1)
	ctx := placed[0].ContextMap()
	assert.Equal(t, "audit", ctx["kind"])
	assert.Equal(t, "40.00", ctx["server_total"])
	assert.Equal(t, false, ctx["mismatch"])
	assert.NotEmpty(t, srv.logs.FilterMessage("payment.confirmed").All())
	assert.NotEmpty(t, srv.logs.FilterMessage("stock_compensated").All())
}

func TestNotifyReplayIsIdempotent(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	_, o := checkout(t, srv)

	outcomes := map[string]int{}
	for range 3 {
		r := srv.notify(t, paid(o, "40.00", "TX-200"))
		require.Equal(t, fiber.StatusOK, r.status, string(r.body))
		var body struct{ Outcome string }
		r.json(t, &body)
		outcomes[body.Outcome]++
	}
	assert.Equal(t, map[string]int{"confirmed": 1, "duplicate": 2}, outcomes)
	assert.Len(t, srv.logs.FilterMessage("payment.confirmed").All(), 1)
}

func TestNotifyRejectsMismatch(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	alice, o := checkout(t, srv)

	r := srv.notify(t, paid(o, "39.00", "TX-300"))
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.status)
	assert.Len(t, srv.logs.FilterMessage("payment_mismatch").All(), 1)
	assert.Empty(t, srv.logs.FilterMessage("payment.mismatch").All())

	form := paid(o, "40.00", "TX-301")
	form.Set("mc_currency", "EUR")
	assert.Equal(t, fiber.StatusUnprocessableEntity, srv.notify(t, form).status)

	form = paid(o, "40.00", "TX-302")
	form.Set("receiver_email", "someone@else.test")
	r = srv.notify(t, form)
	assert.Equal(t, fiber.StatusOK, r.status)
	assert.JSONEq(t, `{"outcome":"ignored"}`, string(r.body))

	form = paid(o, "40.00", "TX-303")
	form.Set("invoice", "abc")
	assert.Equal(t, fiber.StatusBadRequest, srv.notify(t, form).status)

	form = paid(o, "40.00", "TX-304")
	form.Set("invoice", "999999")
	assert.Equal(t, fiber.StatusNotFound, srv.notify(t, form).status)

	var got orderJSON
	alice.get("/orders/" + strconv.FormatInt(o.ID, 10)).json(t, &got)
	assert.Equal(t, "PENDING", got.Status)
}

func TestCheckoutRequiresStockAndLogin(t *testing.T) {
	srv := newServer(t, handlers.Options{})

	guest := srv.client(t)
	guest.primeCSRF()
	r := guest.postJSON("/cart/42", map[string]any{"color": "black", "size": "M", "quantity": 1})
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	assert.Equal(t, fiber.StatusUnauthorized, guest.postJSON("/checkout", nil).status)

	r = guest.postJSON("/cart/42", map[string]any{"color": "black", "size": "M", "quantity": 3})
	assert.Equal(t, fiber.StatusConflict, r.status)
	assert.JSONEq(t, `{"error":"not enough stock for that item","stock":2}`, string(r.body))

	// two separate lines of the same variant add up past stock
	bob := srv.client(t)
	bob.login("bob@lacestore.test")
	for range 2 {
		r = bob.postJSON("/cart/45", map[string]any{"color": "red", "size": "XXL", "quantity": 1})
		require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	}
	var cart struct {
		Lines []struct{ Quantity int } `json:"lines"`
	}
	bob.get("/cart").json(t, &cart)
	assert.Len(t, cart.Lines, 2, "lines are never merged")

	r = bob.postJSON("/checkout", nil)
	assert.Equal(t, fiber.StatusConflict, r.status, string(r.body))
	assert.Equal(t, 1, srv.stock(t, 7), "nothing reserved on failure")
}

func TestPaymentPages(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	alice, o := checkout(t, srv)

	r := alice.get("/orders/" + strconv.FormatInt(o.ID, 10) + "/pay")
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	page := string(r.body)
	assert.Contains(t, page, `action="https://pay.example/cgi-bin/webscr"`)
	assert.Contains(t, page, `name="amount" value="40.00"`)
	assert.Contains(t, page, `name="notify_url" value="http://shop.test/payments/notify"`)

	r = alice.get("/payments/success/" + o.Number + "/40.00")
	assert.Equal(t, fiber.StatusOK, r.status)
	assert.Contains(t, string(r.body), o.Number)
	assert.Equal(t, fiber.StatusBadRequest, alice.get("/payments/success/bogus/40.00").status)
	assert.Equal(t, fiber.StatusOK, alice.get("/payments/canceled").status)

	require.Equal(t, fiber.StatusOK, srv.notify(t, paid(o, "40.00", "TX-400")).status)
	assert.Equal(t, fiber.StatusConflict, alice.get("/orders/"+strconv.FormatInt(o.ID, 10)+"/pay").status,
		"paid orders cannot be paid again")
}

func TestOrdersArePrivate(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	_, o := checkout(t, srv)
	path := "/orders/" + strconv.FormatInt(o.ID, 10)

	bob := srv.client(t)
	bob.login("bob@lacestore.test")
	assert.Equal(t, fiber.StatusNotFound, bob.get(path).status)
	var mine []orderJSON
	bob.get("/orders").json(t, &mine)
	assert.Empty(t, mine)

	admin := srv.client(t)
	admin.login("admin@lacestore.test")
	assert.Equal(t, fiber.StatusOK, admin.get(path).status)
}
