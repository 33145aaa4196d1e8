package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"lacestore/internal/domain"
	applog "lacestore/internal/log"
	"lacestore/internal/services"
	"lacestore/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return domain.NotFound("product", c.Params("id"))
	}
	d, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"product": toProductView(d.Product), "variants": d.Variants})
}

// GET /products?category=Bras,Sets&style=&brand=&min_price=&max_price=&sale=1&xxl=1&q=&sort=price&order=desc&page=&page_size=
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	f, err := filterFromQuery(c)
	if err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "filter", "error": err.Error()})
		return err
	}
	products, err := h.Catalog.Search(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"products": lo.Map(products, func(p domain.Product, _ int) productView { return toProductView(p) }),
		"count":    len(products),
	})
}

func filterFromQuery(c *fiber.Ctx) (domain.ProductFilter, error) {
	f := domain.ProductFilter{
		Categories: validate.Names(c.Query("category")),
		Styles:     validate.Names(c.Query("style")),
		Brands:     validate.Names(c.Query("brand")),
		SaleOnly:   c.QueryBool("sale"),
		XXLOnly:    c.QueryBool("xxl"),
		Sort:       domain.SortField(strings.ToLower(strings.TrimSpace(c.Query("sort")))),
		Desc:       strings.EqualFold(c.Query("order"), "desc"),
	}
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			return f, domain.Invalid("q", "letters, numbers and spaces only")
		}
		f.Query = q
	}
	if raw := c.Query("min_price"); raw != "" {
		d, ok := validate.Price(raw)
		if !ok {
			return f, domain.Invalid("min_price", "must be an amount like 19.99")
		}
		f.MinPrice = &d
	}
	if raw := c.Query("max_price"); raw != "" {
		d, ok := validate.Price(raw)
		if !ok {
			return f, domain.Invalid("max_price", "must be an amount like 19.99")
		}
		f.MaxPrice = &d
	}
	for key, dst := range map[string]*int{"page": &f.Page, "page_size": &f.PageSize} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, domain.Invalid(key, "must be a number")
		}
		*dst = n
	}
	return f, nil
}
