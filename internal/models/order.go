package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande. "delivered" et "cancelled" sont terminaux.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID              gocql.UUID  `json:"id" db:"order_id"`
	BuyerID         gocql.UUID  `json:"buyer_id" db:"buyer_id"`
	Status          string      `json:"status" db:"status"`
	TotalAmount     float64     `json:"total_amount" db:"total_amount"` // figé à la création
	ShippingAddress string      `json:"shipping_address" db:"shipping_address"`
	Items           []OrderItem `json:"items" db:"items"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem - ligne de commande. ProductName, SellerID et PriceAtTime sont
// des snapshots pris à la création : la suppression du produit ne casse rien.
type OrderItem struct {
	ProductID   gocql.UUID `json:"product_id" db:"product_id"`
	ProductName string     `json:"product_name" db:"product_name"`
	SellerID    gocql.UUID `json:"seller_id" db:"seller_id"`
	Quantity    int        `json:"quantity" db:"quantity"`
	PriceAtTime float64    `json:"price_at_time" db:"price_at_time"`
}

// LineTotal - sous-total de la ligne au prix snapshot
func (i OrderItem) LineTotal() float64 {
	return i.PriceAtTime * float64(i.Quantity)
}
