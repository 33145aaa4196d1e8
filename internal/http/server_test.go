package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lacestore/internal/config"
	"lacestore/internal/http/handlers"
	applog "lacestore/internal/log"
	"lacestore/internal/repos"
)

const business = "sales@lacestore.test"

type server struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
	logs *observer.ObservedLogs
}

// newServer runs the full app over a seeded in-memory database. Handler and
// service logs both land in logs.
func newServer(t *testing.T, opts handlers.Options) *server {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	applog.Set(logger)
	t.Cleanup(func() { applog.Set(nil) })

	cfg := config.Config{
		Env:     "test",
		BaseURL: "http://shop.test",
		PayPal:  config.PayPal{Business: business, URL: "https://pay.example/cgi-bin/webscr"},
	}
	deps := handlers.NewDeps(db, cfg, logger, prometheus.NewRegistry())

	if opts.RateLimit == 0 {
		opts.RateLimit = 1000
	}
	if opts.LoginLimit == 0 {
		opts.LoginLimit = 100
	}
	if opts.AccessLog == nil {
		opts.AccessLog = io.Discard
	}
	return &server{app: handlers.NewApp(deps, opts), db: db, deps: deps, logs: logs}
}

func (s *server) stock(t *testing.T, variantID int64) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT stock FROM product_variants WHERE id=?`, variantID))
	return n
}

// client replays cookies like a browser and echoes the csrf cookie in the
// header on unsafe requests.
type client struct {
	t       *testing.T
	srv     *server
	cookies map[string]string
}

func (s *server) client(t *testing.T) *client {
	return &client{t: t, srv: s, cookies: map[string]string{}}
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func (r response) json(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (cl *client) send(req *http.Request) response {
	cl.t.Helper()
	for name, val := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: val})
	}
	if req.Method != fiber.MethodGet {
		_, explicit := req.Header["X-Csrf-Token"]
		if tok := cl.cookies["csrf_"]; tok != "" && !explicit {
			req.Header.Set("X-CSRF-Token", tok)
		}
	}
	resp, err := cl.srv.app.Test(req, -1)
	require.NoError(cl.t, err)
	defer resp.Body.Close()
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck.Value
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(cl.t, err)
	return response{status: resp.StatusCode, body: body, header: resp.Header}
}

func (cl *client) get(path string) response {
	cl.t.Helper()
	return cl.send(httptest.NewRequest(fiber.MethodGet, path, nil))
}

func (cl *client) postJSON(path string, v any) response {
	cl.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(cl.t, err)
		body = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(fiber.MethodPost, path, body)
	if v != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return cl.send(req)
}

func (cl *client) postForm(path string, form url.Values) response {
	cl.t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return cl.send(req)
}

// primeCSRF fetches a page so the csrf cookie is issued.
func (cl *client) primeCSRF() {
	cl.t.Helper()
	cl.get("/login")
	require.NotEmpty(cl.t, cl.cookies["csrf_"], "csrf cookie issued")
}

func (cl *client) login(email string) {
	cl.t.Helper()
	cl.primeCSRF()
	r := cl.postJSON("/login", map[string]string{"email": email, "password": "Passw0rd!"})
	require.Equal(cl.t, fiber.StatusOK, r.status, string(r.body))
}

// notify posts a provider callback the way PayPal does: form encoded, no
// cookies.
func (s *server) notify(t *testing.T, form url.Values) response {
	t.Helper()
	return s.client(t).postForm("/payments/notify", form)
}
