package models

import (
	"time"
)

// Order is the model for the 'orders' table. Money columns are minor units (fils).
type Order struct {
	ID         int64     `json:"id" db:"id"`
	CustomerID string    `json:"customerId" db:"customer_id"`
	Status     string    `json:"status" db:"status"` // e.g., pending, paid, shipped
	Currency   string    `json:"currency" db:"currency"`
	Subtotal   int64     `json:"subtotal" db:"subtotal"`
	Shipping   int64     `json:"shipping" db:"shipping"`
	VAT        int64     `json:"vat" db:"vat"`
	Total      int64     `json:"total" db:"total"`
	TaxSource  string    `json:"taxSource" db:"tax_source"` // live or fallback
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`

	Items []OrderItem `json:"items" db:"-"`
}

// OrderItem is the model for the 'order_items' table
type OrderItem struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"orderId" db:"order_id"`
	ProductID   int64   `json:"productId" db:"product_id"`
	ProductName string  `json:"productName" db:"product_name"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unitPrice" db:"unit_price"` // Price at the time of purchase
}

// Order statuses.
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
)
