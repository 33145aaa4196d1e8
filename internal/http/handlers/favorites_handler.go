package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/session"
)

type FavoritesHandler struct {
	Favs     *services.FavoritesService
	Sessions session.Store
}

type favoriteReq struct {
	ProductID int64 `json:"product_id" form:"product_id"`
}

func (h *FavoritesHandler) productID(c *fiber.Ctx) (int64, error) {
	var req favoriteReq
	if err := c.BodyParser(&req); err != nil {
		return 0, domain.Invalid("body", "malformed request")
	}
	if req.ProductID <= 0 {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return 0, domain.Invalid("product_id", "must be a positive integer")
	}
	return req.ProductID, nil
}

// GET /favorites
func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	favs, err := h.Sessions.Favorites(c)
	if err != nil {
		return err
	}
	products, err := h.Favs.List(c.UserContext(), favs)
	if err != nil {
		return err
	}
	return c.JSON(lo.Map(products, func(p domain.Product, _ int) productView { return toProductView(p) }))
}

// POST /favorites
func (h *FavoritesHandler) Save(c *fiber.Ctx) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}
	favs, err := h.Sessions.Favorites(c)
	if err != nil {
		return err
	}
	if err := h.Favs.Save(c.UserContext(), &favs, id); err != nil {
		return err
	}
	if err := h.Sessions.SaveFavorites(c, favs); err != nil {
		return err
	}
	applog.Info(c, "favorites.save", map[string]any{"product_id": id})
	return c.JSON(fiber.Map{"favorites": favs})
}

// POST /favorites/delete
func (h *FavoritesHandler) Unsave(c *fiber.Ctx) error {
	id, err := h.productID(c)
	if err != nil {
		return err
	}
	favs, err := h.Sessions.Favorites(c)
	if err != nil {
		return err
	}
	h.Favs.Unsave(&favs, id)
	if err := h.Sessions.SaveFavorites(c, favs); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"favorites": favs})
}
