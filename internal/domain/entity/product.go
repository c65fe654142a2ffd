package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo. El servicio de catálogo es dueño del registro;
// el libro de movimientos solo lo referencia por ID.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"` // nunca negativo; lo garantiza el ajuste condicional
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}
