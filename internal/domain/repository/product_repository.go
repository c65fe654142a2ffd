package repository

import (
	"context"

	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia del catálogo (solo lo que usa el ajuste de stock).
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// AddStock suma quantity al stock y devuelve el producto actualizado (nil si no existe).
	AddStock(ctx context.Context, id int64, quantity int) (*entity.Product, error)
	// SubtractStock resta quantity solo si hay stock suficiente, en una sola sentencia.
	// Devuelve domain.ErrInsufficientStock si el stock no alcanza y nil si el producto no existe.
	SubtractStock(ctx context.Context, id int64, quantity int) (*entity.Product, error)
}

// StockAdjustmentRepository registra las claves de idempotencia ya aplicadas.
type StockAdjustmentRepository interface {
	Get(ctx context.Context, key string) (*entity.StockAdjustment, error)
	Save(ctx context.Context, adj *entity.StockAdjustment) error
}
