package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

// MovementFilter filtros y paginación del listado de movimientos.
type MovementFilter struct {
	ProductID *int64
	Type      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepository define el puerto de persistencia para movimientos.
// Dentro de TxRunner.Run las escrituras quedan atadas a la transacción local.
type MovementRepository interface {
	Create(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, id int64) (*entity.Movement, error)
	// GetForUpdate lee la fila y la bloquea hasta el fin de la tx; nil si no existe.
	GetForUpdate(ctx context.Context, id int64) (*entity.Movement, error)
	Update(ctx context.Context, m *entity.Movement) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, int, error)
}
