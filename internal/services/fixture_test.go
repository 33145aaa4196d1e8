package services_test

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lacestore/internal/events"
	"lacestore/internal/metrics"
	"lacestore/internal/repos"
	"lacestore/internal/services"
)

const business = "sales@lacestore.test"

// shop wires every service over a fresh seeded in-memory database, the way
// the server does.
type shop struct {
	db      *sqlx.DB
	bus     *events.Bus
	metrics *metrics.Metrics
	logs    *observer.ObservedLogs

	inv      *services.InventoryService
	cart     *services.CartService
	catalog  *services.CatalogService
	orders   *services.OrderService
	payments *services.PaymentService
	prods    *repos.ProductRepo
	orderDB  *repos.OrderRepo
	paidDB   *repos.PaymentRepo
}

func newShop(t *testing.T) *shop {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	m := metrics.New(prometheus.NewRegistry())
	bus := events.NewBus(logger)

	tx := repos.NewTxRunner(db)
	invRepo := repos.NewInventoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db, bus)
	payRepo := repos.NewPaymentRepo(db)

	inv := services.NewInventoryService(invRepo)
	services.NewCompensator(inv, orderRepo, m, logger).Register(bus)
	services.AuditSubscriber{Log: logger, Metrics: m}.Register(bus)

	orders := services.NewOrderService(tx, inv, prodRepo, orderRepo, bus, m)
	orders.Log = logger
	orders.NewBackOff = quickBackOff
	payments := services.NewPaymentService(tx, orderRepo, payRepo, bus, m, business, "https://pay.example/cgi-bin/webscr")
	payments.Log = logger
	payments.NewBackOff = quickBackOff

	return &shop{
		db:       db,
		bus:      bus,
		metrics:  m,
		logs:     logs,
		inv:      inv,
		cart:     services.NewCartService(inv, prodRepo),
		catalog:  services.NewCatalogService(repos.NewCategoryRepo(db), prodRepo, inv),
		orders:   orders,
		payments: payments,
		prods:    prodRepo,
		orderDB:  orderRepo,
		paidDB:   payRepo,
	}
}

func quickBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

// clockSeq returns each time in turn, then repeats the last one.
func clockSeq(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[min(i, len(ts)-1)]
		i++
		return t
	}
}

func (s *shop) stock(t *testing.T, variantID int64) int {
	t.Helper()
	v, err := repos.NewInventoryRepo(s.db).Get(t.Context(), variantID)
	if err != nil {
		t.Fatal(err)
	}
	return v.Stock
}
