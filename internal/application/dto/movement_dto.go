package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementRequest body para POST y PUT /api/transactions.
type MovementRequest struct {
	Type      string           `json:"type"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	Details   *string          `json:"details,omitempty"`
}

// MovementResponse representación pública de un movimiento.
type MovementResponse struct {
	ID              int64           `json:"id"`
	TransactionDate time.Time       `json:"transactionDate"`
	Type            string          `json:"type"`
	ProductID       int64           `json:"productId"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Details         *string         `json:"details,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ListMovementsQuery filtros de GET /api/transactions.
type ListMovementsQuery struct {
	PageRequest
	ProductID *int64
	Type      string
	FromDate  *time.Time
	ToDate    *time.Time
}

// MovementPage respuesta paginada; Items ordenados por fecha descendente.
type MovementPage struct {
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Total    int                `json:"total"`
	Items    []MovementResponse `json:"items"`
}
