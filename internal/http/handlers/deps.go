package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"lacestore/internal/config"
	"lacestore/internal/events"
	"lacestore/internal/metrics"
	"lacestore/internal/repos"
	"lacestore/internal/services"
	"lacestore/internal/session"
)

type Deps struct {
	Config   config.Config
	Sessions session.Store
	Auth     *services.AuthService
	Gatherer prometheus.Gatherer

	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	PaymentHandler   *PaymentHandler
	FavoritesHandler *FavoritesHandler
	AuthHandler      *AuthHandler
	AdminHandler     *AdminHandler
}

// NewDeps wires repositories, the event bus and services over db. reg
// receives the shop's metrics; it may be nil.
func NewDeps(db *sqlx.DB, cfg config.Config, logger *zap.Logger, reg *prometheus.Registry) *Deps {
	if logger == nil {
		logger = zap.NewNop()
	}
	var m *metrics.Metrics
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		m = metrics.New(reg)
		gatherer = reg
	}
	bus := events.NewBus(logger)

	tx := repos.NewTxRunner(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db, bus)
	payRepo := repos.NewPaymentRepo(db)
	userRepo := repos.NewUserRepo(db)

	invSvc := services.NewInventoryService(invRepo)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, invSvc)
	cartSvc := services.NewCartService(invSvc, prodRepo)
	favSvc := services.NewFavoritesService(prodRepo)
	authSvc := services.NewAuthService(userRepo)

	orderSvc := services.NewOrderService(tx, invSvc, prodRepo, orderRepo, bus, m)
	orderSvc.Log = logger.Named("orders")
	paySvc := services.NewPaymentService(tx, orderRepo, payRepo, bus, m, cfg.PayPal.Business, cfg.PayPal.URL)
	paySvc.Log = logger.Named("payments")
	if cfg.PayPal.VerifyURL != "" {
		paySvc.Verifier = services.NewPayPalVerifier(cfg.PayPal.VerifyURL)
	}

	services.NewCompensator(invSvc, orderRepo, m, logger.Named("compensator")).Register(bus)
	services.AuditSubscriber{Log: logger.Named("audit"), Metrics: m}.Register(bus)

	sessions := session.New(cfg.SessionTTL, cfg.Env == "prod", logger.Named("session"))

	return &Deps{
		Config:   cfg,
		Sessions: sessions,
		Auth:     authSvc,
		Gatherer: gatherer,

		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: cartSvc, Sessions: sessions},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Orders: orderSvc, Payments: paySvc, Sessions: sessions, BaseURL: cfg.BaseURL},
		PaymentHandler:   &PaymentHandler{Payments: paySvc},
		FavoritesHandler: &FavoritesHandler{Favs: favSvc, Sessions: sessions},
		AuthHandler:      &AuthHandler{Auth: authSvc, Sessions: sessions},
		AdminHandler:     &AdminHandler{Orders: orderSvc, Inv: invSvc, Users: userRepo},
	}
}
