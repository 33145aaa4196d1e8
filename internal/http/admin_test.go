package handlers_test

import (
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/http/handlers"
)

func TestAdminOrderStatus(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	_, o := checkout(t, srv)
	admin := srv.client(t)
	admin.login("admin@lacestore.test")
	path := "/admin/orders/" + strconv.FormatInt(o.ID, 10) + "/status"

	r := admin.postJSON(path, map[string]string{"status": "SHIPPED"})
	assert.Equal(t, fiber.StatusConflict, r.status, "unpaid orders cannot ship")
	r = admin.postJSON(path, map[string]string{"status": "PAID"})
	assert.Equal(t, fiber.StatusConflict, r.status, "only the provider marks orders paid")
	r = admin.postJSON(path, map[string]string{"status": "LOST"})
	assert.Equal(t, fiber.StatusBadRequest, r.status)

	require.Equal(t, fiber.StatusOK, srv.notify(t, paid(o, "40.00", "TX-500")).status)

	r = admin.postJSON(path, map[string]string{"status": "shipped"})
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	assert.JSONEq(t, `{"id":`+strconv.FormatInt(o.ID, 10)+`,"status":"SHIPPED"}`, string(r.body))
	r = admin.postJSON(path, map[string]string{"status": "CONFIRMED"})
	assert.Equal(t, fiber.StatusConflict, r.status, "no going back")

	audit := srv.logs.FilterMessage("admin.order.status").All()
	require.Len(t, audit, 1)
	assert.Equal(t, "audit", audit[0].ContextMap()["kind"])
	assert.Equal(t, "u-admin", audit[0].ContextMap()["user_id"])

	var orders []orderJSON
	admin.get("/admin/orders").json(t, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, "SHIPPED", orders[0].Status)
}

func TestAdminDeleteOrderRestoresStock(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	_, o := checkout(t, srv)
	require.Equal(t, 3, srv.stock(t, 1))

	admin := srv.client(t)
	admin.login("admin@lacestore.test")
	r := admin.postJSON("/admin/orders/"+strconv.FormatInt(o.ID, 10)+"/delete", nil)
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	assert.Equal(t, 5, srv.stock(t, 1))

	assert.Equal(t, fiber.StatusNotFound, admin.postJSON("/admin/orders/"+strconv.FormatInt(o.ID, 10)+"/delete", nil).status)
	assert.Equal(t, fiber.StatusNotFound, admin.postJSON("/admin/order-items/999/delete", nil).status)
	assert.NotEmpty(t, srv.logs.FilterMessage("admin.order.delete").All())
}

func TestAdminInventory(t *testing.T) {
	srv := newServer(t, handlers.Options{})
	admin := srv.client(t)
	admin.login("admin@lacestore.test")

	var rows []struct {
		VariantID int64 `json:"variant_id"`
		Stock     int   `json:"stock"`
	}
	admin.get("/admin/inventory").json(t, &rows)
	assert.Len(t, rows, 8)

	r := admin.postJSON("/admin/inventory", map[string]int{"variant_id": 3, "stock": 12})
	require.Equal(t, fiber.StatusOK, r.status, string(r.body))
	assert.Equal(t, 12, srv.stock(t, 3))

	assert.Equal(t, fiber.StatusBadRequest, admin.postJSON("/admin/inventory", map[string]int{"variant_id": 3, "stock": -1}).status)
	assert.Equal(t, fiber.StatusBadRequest, admin.postJSON("/admin/inventory", map[string]int{"stock": 1}).status)
	assert.Equal(t, fiber.StatusNotFound, admin.postJSON("/admin/inventory", map[string]int{"variant_id": 99, "stock": 1}).status)

	audit := srv.logs.FilterMessage("admin.inventory.set").All()
	require.Len(t, audit, 1)
	assert.EqualValues(t, 12, audit[0].ContextMap()["stock"])
}
