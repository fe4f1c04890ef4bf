package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

const (
	defaultMaxPrice    = 10000
	defaultSearchLimit = 10
)

type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler creates a new instance of ProductHandler
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// ListCategories --> GET /api/categories
func (h *ProductHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalogService.ListCategories(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, categories)
}

// GetCategory --> GET /api/categories/:slug
func (h *ProductHandler) GetCategory(c echo.Context) error {
	category, err := h.catalogService.GetCategoryBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, category)
}

// Featured --> GET /api/products/featured
func (h *ProductHandler) Featured(c echo.Context) error {
	products, err := h.catalogService.Featured(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, products)
}

// BestSellers --> GET /api/products/bestsellers
func (h *ProductHandler) BestSellers(c echo.Context) error {
	products, err := h.catalogService.BestSellers(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, products)
}

// ListByCategory --> GET /api/products/category/:slug
func (h *ProductHandler) ListByCategory(c echo.Context) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return c.JSON(400, map[string]string{"error": err.Error()})
	}
	products, err := h.catalogService.ListByCategory(c.Request().Context(), c.Param("slug"), q)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, products)
}

// Search --> GET /api/products/search?q=&limit=
func (h *ProductHandler) Search(c echo.Context) error {
	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(400, map[string]string{"error": "Invalid limit"})
		}
		limit = n
	}
	products, err := h.catalogService.Search(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, products)
}

// GetProduct --> GET /api/products/:slug
func (h *ProductHandler) GetProduct(c echo.Context) error {
	product, err := h.catalogService.GetProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, product)
}

// Related --> GET /api/products/related/:slug
func (h *ProductHandler) Related(c echo.Context) error {
	products, err := h.catalogService.Related(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, products)
}

// PreWarmupCache pre-warms the cache with product data --> GET /api/admin/products/warmup-cache
func (h *ProductHandler) PreWarmupCache(c echo.Context) error {
	n, err := h.catalogService.PreWarmCache(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]interface{}{"message": "Cache pre-warmed", "products": n})
}

func parseProductQuery(c echo.Context) (service.ProductQuery, error) {
	q := service.ProductQuery{
		Location: entity.LocalityBoth,
		SortBy:   service.SortFeatured,
		MaxPrice: defaultMaxPrice,
		Search:   c.QueryParam("search"),
	}

	if raw := c.QueryParam("location"); raw != "" {
		q.Location = entity.Locality(raw)
		if !q.Location.Valid() {
			return q, paramError("location")
		}
	}
	if raw := c.QueryParam("sortBy"); raw != "" {
		q.SortBy = service.SortBy(raw)
	}

	var err error
	if q.MinPrice, err = floatParam(c, "minPrice", 0); err != nil {
		return q, err
	}
	if q.MaxPrice, err = floatParam(c, "maxPrice", defaultMaxPrice); err != nil {
		return q, err
	}
	if q.Organic, err = boolParam(c, "organic"); err != nil {
		return q, err
	}
	if q.Premium, err = boolParam(c, "premium"); err != nil {
		return q, err
	}
	if q.BestSeller, err = boolParam(c, "bestSeller"); err != nil {
		return q, err
	}
	if q.New, err = boolParam(c, "new"); err != nil {
		return q, err
	}
	return q, nil
}

type paramError string

func (e paramError) Error() string { return "Invalid " + string(e) }

func floatParam(c echo.Context, name string, fallback float64) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, paramError(name)
	}
	return v, nil
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, paramError(name)
	}
	return v, nil
}
