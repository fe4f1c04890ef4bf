package api

import (
	"time"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Product    *ProductHandler
	Cart       *CartHandler
	Order      *OrderHandler
	ABTest     *ABTestHandler
	Newsletter *NewsletterHandler
}

// RegisterRoutes mounts the storefront API on e. Admin routes require a
// token signed with jwtSecret.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group("/api")

	g.GET("/categories", h.Product.ListCategories)
	g.GET("/categories/:slug", h.Product.GetCategory)

	g.GET("/products/featured", h.Product.Featured)
	g.GET("/products/bestsellers", h.Product.BestSellers)
	g.GET("/products/search", h.Product.Search)
	g.GET("/products/category/:slug", h.Product.ListByCategory)
	g.GET("/products/related/:slug", h.Product.Related)
	g.GET("/products/:slug", h.Product.GetProduct)

	g.GET("/cart", h.Cart.GetCart)
	g.POST("/cart/add", h.Cart.AddItem)
	g.GET("/cart/summary", h.Cart.Summary)
	g.PATCH("/cart/item/:id", h.Cart.UpdateItem)
	g.DELETE("/cart/item/:id", h.Cart.RemoveItem)
	g.DELETE("/cart", h.Cart.ClearCart)

	g.POST("/orders", h.Order.PlaceOrder)

	g.POST("/ab-test/impression", h.ABTest.RecordImpression)
	g.POST("/ab-test/conversion", h.ABTest.RecordConversion)
	g.GET("/ab-test/assignment", h.ABTest.Assignment)

	g.POST("/newsletter/subscribe", h.Newsletter.Subscribe)

	g.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "storefront-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	admin := g.Group("/admin", AdminAuth(jwtSecret)...)
	admin.GET("/orders/:id", h.Order.GetOrder)
	admin.GET("/products/warmup-cache", h.Product.PreWarmupCache)
	admin.GET("/ab-test/:name/report", h.ABTest.Report)
}
