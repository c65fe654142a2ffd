package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdateStockRequest body para PATCH /api/products/{id}/stock.
type UpdateStockRequest struct {
	Operation string `json:"operation"` // "add" | "subtract"
	Quantity  int    `json:"quantity"`
}

// ProductResponse representación de un producto del catálogo (también la decodifica el cliente remoto).
type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}
