package entity

import "time"

const (
	OrderStatusPending = "pending"
)

// MaxLineQuantity bounds the units of one product in a cart line or an
// order. The lte=1000 validate tags mirror it.
const MaxLineQuantity = 1000

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentUPI  PaymentMethod = "upi"
	PaymentCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

// ShippingInfo is delivered to a concrete locality only, never "both".
type ShippingInfo struct {
	FullName string   `json:"fullName" validate:"notblank,min=3"`
	Email    string   `json:"email" validate:"email"`
	Phone    string   `json:"phone" validate:"min=10"`
	Address  string   `json:"address" validate:"notblank,min=5"`
	City     Locality `json:"city" validate:"oneof=ghaziabad noida"`
	Pincode  string   `json:"pincode" validate:"len=6,number"`
	Notes    string   `json:"notes,omitempty"`
}

type Order struct {
	ID            int           `json:"id"`
	Status        string        `json:"status"` // e.g., "pending"
	TotalAmount   float64       `json:"totalAmount"`
	Shipping      ShippingInfo  `json:"shipping"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	SessionID     string        `json:"sessionId"`
	CreatedAt     time.Time     `json:"createdAt"`
	Items         []OrderItem   `json:"items,omitempty"`
}

type OrderItem struct {
	ID        int     `json:"id"`
	OrderID   int     `json:"orderId"`
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderLine is one line of a checkout submission.
type OrderLine struct {
	ProductID int     `json:"productId" validate:"gt=0"`
	Quantity  int     `json:"quantity" validate:"gt=0,lte=1000"`
	Price     float64 `json:"price" validate:"gt=0"`
}

// StockLine is a quantity of one product to reserve or release.
type StockLine struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// OrderEvent is published after an order commits.
type OrderEvent struct {
	Type    string      `json:"type"`
	OrderID int         `json:"orderId"`
	Total   float64     `json:"total"`
	Items   []OrderItem `json:"items"`
	At      time.Time   `json:"at"`
}

/*
Mysql Table

CREATE TABLE orders (
	id INT AUTO_INCREMENT PRIMARY KEY,
	status VARCHAR(20) NOT NULL,
	total_amount DOUBLE NOT NULL,
	...
);

CREATE TABLE order_items (
	id INT AUTO_INCREMENT PRIMARY KEY,
	order_id INT NOT NULL REFERENCES orders(id),
	product_id INT NOT NULL,
	quantity INT NOT NULL,
	price DOUBLE NOT NULL
);

*/
