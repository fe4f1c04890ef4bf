package entity

// Locality is the delivery area a product is visible in.
type Locality string

const (
	LocalityGhaziabad Locality = "ghaziabad"
	LocalityNoida     Locality = "noida"
	LocalityBoth      Locality = "both"
)

// Valid reports whether l is one of the known delivery areas.
func (l Locality) Valid() bool {
	switch l {
	case LocalityGhaziabad, LocalityNoida, LocalityBoth:
		return true
	}
	return false
}

// Matches reports whether a product tagged with l is visible to a shopper in area.
// A shopper in "both" sees everything; a product tagged "both" is visible everywhere.
func (l Locality) Matches(area Locality) bool {
	return area == LocalityBoth || l == LocalityBoth || l == area
}

type Product struct {
	ID              int      `json:"id" db:"id" yaml:"id"`
	Name            string   `json:"name" db:"name" yaml:"name"`
	Slug            string   `json:"slug" db:"slug" yaml:"slug"`
	Description     string   `json:"description" db:"description" yaml:"description"`
	Price           float64  `json:"price" db:"price" yaml:"price"`
	SalePrice       *float64 `json:"salePrice" db:"sale_price" yaml:"salePrice"`
	ImageURL        string   `json:"imageUrl" db:"image_url" yaml:"imageUrl"`
	Quantity        int      `json:"quantity" db:"quantity" yaml:"quantity"`
	CategoryID      int      `json:"categoryId" db:"category_id" yaml:"categoryId"`
	IsFeatured      bool     `json:"isFeatured" db:"is_featured" yaml:"isFeatured"`
	IsBestSeller    bool     `json:"isBestSeller" db:"is_best_seller" yaml:"isBestSeller"`
	IsNew           bool     `json:"isNew" db:"is_new" yaml:"isNew"`
	IsOrganic       bool     `json:"isOrganic" db:"is_organic" yaml:"isOrganic"`
	IsPremium       bool     `json:"isPremium" db:"is_premium" yaml:"isPremium"`
	City            Locality `json:"city" db:"city" yaml:"city"`
	Ratings         float64  `json:"ratings" db:"ratings" yaml:"ratings"`
	ReviewCount     int      `json:"reviewCount" db:"review_count" yaml:"reviewCount"`
	NutritionalInfo string   `json:"nutritionalInfo" db:"nutritional_info" yaml:"nutritionalInfo"`
	Weight          string   `json:"weight" db:"weight" yaml:"weight"`
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// ProductWithCategory is the product detail view.
type ProductWithCategory struct {
	Product
	CategoryName string `json:"categoryName"`
	CategorySlug string `json:"categorySlug"`
}

/*
Schema MySQL for product table:
CREATE TABLE `products` (
  `id` int(11) NOT NULL AUTO_INCREMENT,
  `name` varchar(255) NOT NULL,
  `slug` varchar(255) NOT NULL UNIQUE,
  `description` text NOT NULL,
  `price` double NOT NULL,
  `sale_price` double NULL,
  `quantity` int(11) NOT NULL,
  ...
  PRIMARY KEY (`id`)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
