package movements

import (
	"context"

	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción local del libro de movimientos,
// pasando el repositorio atado a esa tx. Si fn devuelve error hace Rollback; si no, Commit.
// Commit y Rollback se resuelven aunque ctx esté cancelado.
type TxRunner interface {
	Run(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error
}

// StockClient puerto hacia el servicio de catálogo (dueño del stock).
//
// Fetch devuelve domain.ErrProductNotFound, domain.ErrServiceUnavailable o *domain.UpstreamError.
// Adjust además puede devolver domain.ErrInsufficientStock. Adjust NO es idempotente salvo
// por idempotencyKey: dos llamadas con claves distintas aplican el efecto dos veces.
type StockClient interface {
	Fetch(ctx context.Context, productID int64) (*entity.Product, error)
	Adjust(ctx context.Context, productID int64, op entity.StockOperation, quantity int, idempotencyKey string) (*entity.Product, error)
}
