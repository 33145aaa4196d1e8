package handlers

import (
	"github.com/gofiber/fiber/v2"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
)

// attachUser puts the logged in user, if any, into Locals "user" and "user_id".
func attachUser(deps *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := deps.Sessions.UserID(c)
		if err != nil {
			return err
		}
		if uid == "" {
			return c.Next()
		}
		u, err := deps.Auth.CurrentUser(c.UserContext(), uid)
		if err != nil {
			return err
		}
		if u != nil {
			c.Locals("user", u)
			c.Locals("user_id", u.ID)
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireUser enforces that a user is logged in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "login required")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": u.Role})
			return fiber.NewError(fiber.StatusForbidden, "access denied")
		}
		return c.Next()
	}
}
