package entity

// StockOperation operación de ajuste de stock aceptada por el catálogo.
type StockOperation string

const (
	StockAdd      StockOperation = "add"
	StockSubtract StockOperation = "subtract"
)

// Valid indica si la operación es add o subtract.
func (o StockOperation) Valid() bool {
	return o == StockAdd || o == StockSubtract
}

// Inverse devuelve la operación que revierte a o.
func (o StockOperation) Inverse() StockOperation {
	if o == StockAdd {
		return StockSubtract
	}
	return StockAdd
}

// StockAdjustment ajuste ya aplicado, registrado por clave de idempotencia.
type StockAdjustment struct {
	IdempotencyKey string
	ProductID      int64
	Operation      StockOperation
	Quantity       int
}
