package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, transaction_date, type, product_id, quantity, unit_price, total_price, details, created_at`

// MovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento y asigna el ID generado.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	m.Recalculate()
	query := `
		INSERT INTO movements (transaction_date, type, product_id, quantity, unit_price, total_price, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.TransactionDate, m.Type, m.ProductID, m.Quantity,
		m.UnitPrice, m.TotalPrice, m.Details, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id int64) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// GetForUpdate como GetByID pero con SELECT ... FOR UPDATE: otra tx que edite o borre
// la misma fila espera hasta el commit o rollback de esta.
func (r *MovementRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1 FOR UPDATE`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock movement: %w", err)
	}
	return m, nil
}

// Update reescribe los campos editables; el total se recalcula siempre.
func (r *MovementRepo) Update(ctx context.Context, m *entity.Movement) error {
	m.Recalculate()
	query := `
		UPDATE movements
		SET type = $2, product_id = $3, quantity = $4, unit_price = $5, total_price = $6, details = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		m.ID, m.Type, m.ProductID, m.Quantity, m.UnitPrice, m.TotalPrice, m.Details,
	)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// Delete elimina un movimiento.
func (r *MovementRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMovementNotFound
	}
	return nil
}

// List filtra por producto, tipo y rango de fechas; devuelve la página y el total sin paginar.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	var where []string
	var args []any
	pos := 1
	if f.ProductID != nil {
		where = append(where, fmt.Sprintf("product_id = $%d", pos))
		args = append(args, *f.ProductID)
		pos++
	}
	if f.Type != "" {
		where = append(where, fmt.Sprintf("type = $%d", pos))
		args = append(args, f.Type)
		pos++
	}
	if f.From != nil {
		where = append(where, fmt.Sprintf("transaction_date >= $%d", pos))
		args = append(args, f.From.UTC())
		pos++
	}
	if f.To != nil {
		where = append(where, fmt.Sprintf("transaction_date <= $%d", pos))
		args = append(args, f.To.UTC())
		pos++
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM movements`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `SELECT ` + movementColumns + ` FROM movements` + cond +
		fmt.Sprintf(" ORDER BY transaction_date DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0, f.Limit)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, total, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.TransactionDate, &m.Type, &m.ProductID, &m.Quantity,
		&m.UnitPrice, &m.TotalPrice, &m.Details, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
