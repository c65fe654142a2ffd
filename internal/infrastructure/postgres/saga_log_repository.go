package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

var _ repository.SagaLogRepository = (*SagaLogRepo)(nil)

// SagaLogRepo bitácora de sagas. Escribe con el pool, fuera de la transacción del movimiento.
type SagaLogRepo struct {
	pool *pgxpool.Pool
}

// NewSagaLogRepository construye el adaptador.
func NewSagaLogRepository(pool *pgxpool.Pool) *SagaLogRepo {
	return &SagaLogRepo{pool: pool}
}

// Save inserta la saga terminada.
func (r *SagaLogRepo) Save(ctx context.Context, l *entity.SagaLog) error {
	query := `
		INSERT INTO saga_log (id, kind, state, movement_id, steps, error, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var errText *string
	if l.Error != "" {
		errText = &l.Error
	}
	_, err := r.pool.Exec(ctx, query,
		l.ID, l.Kind, l.State, l.MovementID, l.Steps, errText, l.CreatedAt, l.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save saga log: %w", err)
	}
	return nil
}

// ListByState lista las sagas de un estado, más recientes primero.
func (r *SagaLogRepo) ListByState(ctx context.Context, state string, limit int) ([]*entity.SagaLog, error) {
	query := `
		SELECT id, kind, state, movement_id, steps, COALESCE(error, ''), created_at, finished_at
		FROM saga_log WHERE state = $1
		ORDER BY finished_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, state, limit)
	if err != nil {
		return nil, fmt.Errorf("list saga log: %w", err)
	}
	defer rows.Close()
	var list []*entity.SagaLog
	for rows.Next() {
		var l entity.SagaLog
		if err := rows.Scan(&l.ID, &l.Kind, &l.State, &l.MovementID, &l.Steps, &l.Error, &l.CreatedAt, &l.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan saga log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
