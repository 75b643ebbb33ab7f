package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state a merchant sets on an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks payment for an order. No gateway is integrated,
// so intake always records PaymentStatusSimulated.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSimulated PaymentStatus = "simulated"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// Valid reports whether s is one of the known payment statuses
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSimulated, PaymentStatusFailed, PaymentStatusCompleted:
		return true
	}
	return false
}

// Order is a customer's purchase of a quantity of one product.
// Amount is fixed when the order is placed.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	ProductID       uint            `json:"product_id" gorm:"index;not null"`
	CustomerName    string          `json:"customer_name" gorm:"type:varchar(255);not null"`
	CustomerPhone   string          `json:"customer_phone" gorm:"type:varchar(20);not null"`
	DeliveryAddress string          `json:"delivery_address" gorm:"type:text;not null"`
	Quantity        int             `json:"quantity" gorm:"not null;default:1"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:decimal(10,2);not null"`
	PaymentStatus   PaymentStatus   `json:"payment_status" gorm:"type:varchar(50);not null;default:pending"`
	OrderStatus     OrderStatus     `json:"order_status" gorm:"type:varchar(50);not null;default:pending"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderView is an order joined with the display fields of its product
type OrderView struct {
	Order
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Image       *string         `json:"image"`
}
