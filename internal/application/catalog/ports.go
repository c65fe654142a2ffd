package catalog

import (
	"context"

	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción del catálogo con repositorios atados a la tx.
type TxRunner interface {
	RunCatalog(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		adjRepo repository.StockAdjustmentRepository,
	) error) error
}
