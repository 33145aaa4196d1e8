// Package session keeps the per-visitor cart, favorites and login in the
// fiber session store.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"lacestore/internal/domain"
)

const (
	keyCart      = "cart"
	keyFavorites = "favorites"
	keyUser      = "user_id"

	localsSession = "lacestore.session"
)

// Store loads and saves session-scoped state for the request in c.
type Store interface {
	Cart(c *fiber.Ctx) (*domain.Cart, error)
	SaveCart(c *fiber.Ctx, cart *domain.Cart) error
	Favorites(c *fiber.Ctx) (domain.Favorites, error)
	SaveFavorites(c *fiber.Ctx, favs domain.Favorites) error
	UserID(c *fiber.Ctx) (string, error)
	Login(c *fiber.Ctx, userID string) error
	Logout(c *fiber.Ctx) error
}

// FiberStore is a Store over fiber's session middleware. Values are kept as
// JSON strings so the storage never needs gob registration.
type FiberStore struct {
	store *session.Store
	log   *zap.Logger
}

func New(ttl time.Duration, secure bool, log *zap.Logger) *FiberStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FiberStore{
		store: session.New(session.Config{
			Expiration:     ttl,
			KeyLookup:      "cookie:sid",
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
			CookieSecure:   secure,
		}),
		log: log,
	}
}

// get returns the request's session, fetching it at most once until saved.
func (s *FiberStore) get(c *fiber.Ctx) (*session.Session, error) {
	if sess, ok := c.Locals(localsSession).(*session.Session); ok {
		return sess, nil
	}
	sess, err := s.store.Get(c)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	c.Locals(localsSession, sess)
	return sess, nil
}

// save persists the session; fiber recycles it afterwards.
func (s *FiberStore) save(c *fiber.Ctx, sess *session.Session) error {
	c.Locals(localsSession, nil)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *FiberStore) Cart(c *fiber.Ctx) (*domain.Cart, error) {
	sess, err := s.get(c)
	if err != nil {
		return nil, err
	}
	cart := &domain.Cart{}
	raw, _ := sess.Get(keyCart).(string)
	if raw == "" {
		return cart, nil
	}
	if err := json.Unmarshal([]byte(raw), cart); err != nil {
		// an unreadable cart is dropped rather than blocking the visitor
		s.log.Warn("session_cart_corrupt", zap.Error(err))
		return &domain.Cart{}, nil
	}
	return cart, nil
}

func (s *FiberStore) SaveCart(c *fiber.Ctx, cart *domain.Cart) error {
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	sess.Set(keyCart, string(b))
	return s.save(c, sess)
}

func (s *FiberStore) Favorites(c *fiber.Ctx) (domain.Favorites, error) {
	sess, err := s.get(c)
	if err != nil {
		return nil, err
	}
	raw, _ := sess.Get(keyFavorites).(string)
	if raw == "" {
		return domain.Favorites{}, nil
	}
	var favs domain.Favorites
	if err := json.Unmarshal([]byte(raw), &favs); err != nil {
		s.log.Warn("session_favorites_corrupt", zap.Error(err))
		return domain.Favorites{}, nil
	}
	return favs, nil
}

func (s *FiberStore) SaveFavorites(c *fiber.Ctx, favs domain.Favorites) error {
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	if favs == nil {
		favs = domain.Favorites{}
	}
	b, err := json.Marshal(favs)
	if err != nil {
		return err
	}
	sess.Set(keyFavorites, string(b))
	return s.save(c, sess)
}

// UserID is the logged in user, or "" for a guest.
func (s *FiberStore) UserID(c *fiber.Ctx) (string, error) {
	sess, err := s.get(c)
	if err != nil {
		return "", err
	}
	id, _ := sess.Get(keyUser).(string)
	return id, nil
}

// Login binds userID under a fresh session id; the cart and favorites carry over.
func (s *FiberStore) Login(c *fiber.Ctx, userID string) error {
	if userID == "" {
		return errors.New("session: empty user id")
	}
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("session regenerate: %w", err)
	}
	sess.Set(keyUser, userID)
	return s.save(c, sess)
}

// Logout drops the whole session, cart included.
func (s *FiberStore) Logout(c *fiber.Ctx) error {
	sess, err := s.get(c)
	if err != nil {
		return err
	}
	c.Locals(localsSession, nil)
	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}
