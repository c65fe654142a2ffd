package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// Ensure TxRunner implements movements.TxRunner and catalog.TxRunner.
var _ movements.TxRunner = (*TxRunner)(nil)
var _ catalog.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Commit y Rollback usan un contexto sin cancelación: una petición cancelada a mitad de la
// saga igual deja la transacción resuelta antes de devolver la conexión al pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción del libro de movimientos, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", domain.ErrPersistence, err)
	}
	done := context.WithoutCancel(ctx)
	defer func() { _ = tx.Rollback(done) }()

	if err := fn(NewMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(done); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", domain.ErrPersistence, err)
	}
	return nil
}

// RunCatalog inicia una transacción con los repos del catálogo (ajuste de stock idempotente).
func (r *TxRunner) RunCatalog(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	adjRepo repository.StockAdjustmentRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	done := context.WithoutCancel(ctx)
	defer func() { _ = tx.Rollback(done) }()

	if err := fn(NewProductRepository(tx), NewStockAdjustmentRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(done); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
