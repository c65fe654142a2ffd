package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento.
const (
	MovementTypePurchase = "PURCHASE" // compra: suma stock
	MovementTypeSale     = "SALE"     // venta: resta stock
)

// Movement registro de una compra o venta en el libro de movimientos.
// TotalPrice siempre se deriva de UnitPrice × Quantity (ver Recalculate).
type Movement struct {
	ID              int64
	TransactionDate time.Time
	Type            string
	ProductID       int64
	Quantity        int
	UnitPrice       decimal.Decimal
	TotalPrice      decimal.Decimal
	Details         *string
	CreatedAt       time.Time
}

// Recalculate recalcula TotalPrice. Se llama antes de cada insert/update.
func (m *Movement) Recalculate() {
	m.TotalPrice = m.UnitPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

// StockEffect devuelve el efecto con signo de un movimiento sobre el stock del producto:
// -quantity para SALE, +quantity para PURCHASE.
func StockEffect(movementType string, quantity int) int {
	if movementType == MovementTypeSale {
		return -quantity
	}
	return quantity
}

// OperationFor traduce un efecto con signo en operación y magnitud para el catálogo.
func OperationFor(effect int) (StockOperation, int) {
	if effect >= 0 {
		return StockAdd, effect
	}
	return StockSubtract, -effect
}

// IsValidMovementType indica si t es PURCHASE o SALE.
func IsValidMovementType(t string) bool {
	return t == MovementTypePurchase || t == MovementTypeSale
}
