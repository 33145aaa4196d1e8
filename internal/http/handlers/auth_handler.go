package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/session"
	"lacestore/internal/validate"
)

type AuthHandler struct {
	Auth     *services.AuthService
	Sessions session.Store
}

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, "", "malformed")
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return h.fail(c, req.Email, "bad_format")
	}
	if !validate.Password(req.Password) {
		return h.fail(c, email, "bad_password_format")
	}

	u, err := h.Auth.Login(c.UserContext(), email, req.Password)
	if errors.Is(err, services.ErrBadCreds) {
		return h.fail(c, email, "bad_credentials")
	}
	if err != nil {
		return err
	}
	if err := h.Sessions.Login(c, u.ID); err != nil {
		return err
	}
	c.Locals("user", u)
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": email, "role": u.Role})

	if isFormPost(c) {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.JSON(u)
}

func (h *AuthHandler) fail(c *fiber.Ctx, email, reason string) error {
	applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	if isFormPost(c) {
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid email or password"})
	}
	return services.ErrBadCreds
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.Logout(c); err != nil {
		return err
	}
	applog.Audit(c, "auth.logout", nil)
	if isFormPost(c) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"ok": true})
}
