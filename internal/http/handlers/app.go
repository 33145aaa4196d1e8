package handlers

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "lacestore/internal/log"
	"lacestore/internal/web"
)

const (
	csrfCookie = "csrf_"
	csrfHeader = "X-CSRF-Token"
	notifyPath = "/payments/notify"
)

// Options tune the limits of NewApp; zero values take the defaults.
type Options struct {
	RateLimit   int // requests per minute per client
	LoginLimit  int // login attempts per ten minutes per client
	AccessLog   io.Writer
	BodyLimitKB int
}

func (o Options) withDefaults() Options {
	if o.RateLimit <= 0 {
		o.RateLimit = 60
	}
	if o.LoginLimit <= 0 {
		o.LoginLimit = 5
	}
	if o.AccessLog == nil {
		o.AccessLog = os.Stdout
	}
	if o.BodyLimitKB <= 0 {
		o.BodyLimitKB = 1024
	}
	return o
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(deps *Deps, opts Options) *fiber.App {
	opts = opts.withDefaults()
	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		BodyLimit:    opts.BodyLimitKB * 1024,
		ErrorHandler: ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: opts.AccessLog}))
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        opts.RateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == notifyPath || p == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	app.Use(csrf.New(csrf.Config{
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieSecure:   deps.Config.Env == "prod",
		Expiration:     time.Hour,
		ContextKey:     "csrf",
		Extractor: func(c *fiber.Ctx) (string, error) {
			if tok := c.Get(csrfHeader); tok != "" {
				return tok, nil
			}
			if tok := c.FormValue("csrf"); tok != "" {
				return tok, nil
			}
			return "", errors.New("missing csrf token")
		},
		Next: func(c *fiber.Ctx) bool { return c.Path() == notifyPath },
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "security check failed, refresh and try again"})
		},
	}))
	app.Use(attachUser(deps))

	Mount(app, deps, opts)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "page not found")
	})
	return app
}

// Mount registers every route on app.
func Mount(app *fiber.App, deps *Deps, opts Options) {
	opts = opts.withDefaults()

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	// Catalog
	app.Get("/categories", deps.CategoryHandler.List)
	app.Get("/products", deps.ProductHandler.Search)
	app.Get("/products/:id", deps.ProductHandler.Detail)

	api := app.Group("/api/v1")
	api.Post("/availability/:productID", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.InventoryHandler.Check)

	// Cart
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart/update", deps.CartHandler.Update)
	app.Post("/cart/remove/:index", deps.CartHandler.Remove)
	app.Post("/cart/clear", deps.CartHandler.Clear)
	app.Post("/cart/:productID", deps.CartHandler.Add)

	// Orders & payment
	user := RequireUser()
	app.Post("/checkout", user, deps.OrderHandler.Checkout)
	app.Get("/orders", user, deps.OrderHandler.History)
	app.Get("/orders/:id", user, deps.OrderHandler.View)
	app.Get("/orders/:id/pay", user, deps.OrderHandler.Pay)
	app.Post(notifyPath, deps.PaymentHandler.Notify)
	app.Get("/payments/success/:number/:total", deps.PaymentHandler.Success)
	app.Get("/payments/canceled", deps.PaymentHandler.Canceled)

	// Favorites
	app.Get("/favorites", deps.FavoritesHandler.List)
	app.Post("/favorites", deps.FavoritesHandler.Save)
	app.Post("/favorites/delete", deps.FavoritesHandler.Unsave)

	// Auth (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        opts.LoginLimit,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)

	// Admin
	admin := app.Group("/admin", RequireAdmin())
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Post("/orders/:id/delete", deps.AdminHandler.DeleteOrder)
	admin.Post("/order-items/:id/delete", deps.AdminHandler.DeleteOrderItem)
	admin.Get("/inventory", deps.AdminHandler.Inventory)
	admin.Post("/inventory", deps.AdminHandler.UpdateInventory)
	admin.Get("/users", deps.AdminHandler.ListUsers)
}

func isFormPost(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm)
}
