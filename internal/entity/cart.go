package entity

type CartItem struct {
	ID        int    `json:"id"`
	SessionID string `json:"sessionId"`
	ProductID int    `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartProduct is the slice of a product shown next to a cart line.
type CartProduct struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Slug      string   `json:"slug"`
	Price     float64  `json:"price"`
	SalePrice *float64 `json:"salePrice,omitempty"`
	ImageURL  string   `json:"imageUrl"`
	Weight    string   `json:"weight"`
}

type CartItemWithProduct struct {
	ID        int         `json:"id"`
	ProductID int         `json:"productId"`
	Quantity  int         `json:"quantity"`
	Product   CartProduct `json:"product"`
}

// CartSummary is the price breakdown of a cart. Discount is the promo
// amount already subtracted from Total.
type CartSummary struct {
	Subtotal float64 `json:"subtotal"`
	Delivery float64 `json:"delivery"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}
