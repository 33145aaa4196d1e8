package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// token issued by the csrf middleware for this request
	if tok, _ := c.Locals("csrf").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if tok := c.Cookies(csrfCookie); tok != "" {
		data["CSRFToken"] = tok
	}
	c.Type("html", "utf-8")
	return c.Render(tmpl, data)
}
