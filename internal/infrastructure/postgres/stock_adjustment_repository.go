package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

var _ repository.StockAdjustmentRepository = (*StockAdjustmentRepo)(nil)

// StockAdjustmentRepo claves de idempotencia de ajustes de stock ya aplicados.
type StockAdjustmentRepo struct {
	q Querier
}

// NewStockAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockAdjustmentRepository(q Querier) *StockAdjustmentRepo {
	return &StockAdjustmentRepo{q: q}
}

// Get devuelve el ajuste registrado con key; nil si no existe.
func (r *StockAdjustmentRepo) Get(ctx context.Context, key string) (*entity.StockAdjustment, error) {
	query := `
		SELECT idempotency_key, product_id, operation, quantity
		FROM stock_adjustments WHERE idempotency_key = $1`
	var a entity.StockAdjustment
	var op string
	err := r.q.QueryRow(ctx, query, key).Scan(&a.IdempotencyKey, &a.ProductID, &op, &a.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock adjustment: %w", err)
	}
	a.Operation = entity.StockOperation(op)
	return &a, nil
}

// Save registra la clave; una clave repetida devuelve domain.ErrDuplicateKey.
func (r *StockAdjustmentRepo) Save(ctx context.Context, adj *entity.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (idempotency_key, product_id, operation, quantity, applied_at)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(ctx, query, adj.IdempotencyKey, adj.ProductID, string(adj.Operation), adj.Quantity)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("save stock adjustment: %w", err)
	}
	return nil
}
