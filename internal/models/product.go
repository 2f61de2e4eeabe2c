package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID          gocql.UUID `json:"id" db:"product_id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Price       float64    `json:"price" db:"price"`
	Quantity    int        `json:"quantity" db:"quantity"` // stock disponible, jamais négatif
	Unit        string     `json:"unit" db:"unit"`         // "kg", "pièce", "botte"...
	Category    string     `json:"category" db:"category"`
	ImageURL    string     `json:"image_url,omitempty" db:"image_url"`
	SellerID    gocql.UUID `json:"seller_id" db:"seller_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ProductUpdate - champs optionnels pour une mise à jour partielle
type ProductUpdate struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Unit        *string  `json:"unit"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"image_url"`
}
