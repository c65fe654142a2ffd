package movements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Coordinator orquesta las sagas de alta, edición y baja de movimientos: cada una combina un
// ajuste remoto de stock en el catálogo con una escritura en la transacción local, y compensa
// cuando un lado falla después de que el otro ya se aplicó. No reintenta llamadas remotas.
// Edición y baja leen el movimiento dentro de la tx con GetForUpdate: dos sagas sobre la
// misma fila se ejecutan una detrás de otra y cada una planifica sobre lo ya confirmado.
type Coordinator struct {
	txRunner TxRunner
	stock    StockClient
	journal  repository.SagaLogRepository
	log      zerolog.Logger
	now      func() time.Time
}

// NewCoordinator construye el coordinador. journal puede ser nil (sin bitácora persistente).
func NewCoordinator(
	txRunner TxRunner,
	stock StockClient,
	journal repository.SagaLogRepository,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		txRunner: txRunner,
		stock:    stock,
		journal:  journal,
		log:      log.With().Str("component", "saga").Logger(),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj del coordinador (fechas de movimientos, pasos y bitácora).
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// MovementInput datos de alta o edición de un movimiento.
type MovementInput struct {
	Type      string
	ProductID int64
	Quantity  int
	UnitPrice *decimal.Decimal
	Details   *string
}

// validateInput normaliza el tipo y valida tipo, cantidad y precio explícito.
func validateInput(in MovementInput) (string, error) {
	txType := strings.ToUpper(strings.TrimSpace(in.Type))
	if !entity.IsValidMovementType(txType) {
		return "", fmt.Errorf("%w: el tipo debe ser 'PURCHASE' o 'SALE'", domain.ErrValidation)
	}
	if in.Quantity <= 0 {
		return "", fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	if in.UnitPrice != nil && !in.UnitPrice.IsPositive() {
		return "", fmt.Errorf("%w: el precio unitario debe ser mayor que cero", domain.ErrValidation)
	}
	return txType, nil
}

// resolveUnitPrice precio explícito si viene; si no, fallback (precio del producto o el existente).
func resolveUnitPrice(override *decimal.Decimal, fallback decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return *override, nil
	}
	if !fallback.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: el producto no tiene precio, indique unitPrice", domain.ErrValidation)
	}
	return fallback, nil
}

// persistenceErr clasifica un error del repositorio local. Los errores de dominio pasan tal cual.
func persistenceErr(err error) error {
	if errors.Is(err, domain.ErrPersistence) || errors.Is(err, domain.ErrMovementNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

// record agrega un paso remoto a la bitácora de la saga y lo deja en el log a nivel debug.
func (c *Coordinator) record(s *Saga, name string, productID int64, op entity.StockOperation, qty int, err error) {
	s.addStep(name, productID, op, qty, c.now().UTC(), err)
	c.log.Debug().
		Str("saga_id", s.ID).
		Str("step", name).
		Int64("product_id", productID).
		Str("operation", string(op)).
		Int("quantity", qty).
		AnErr("error", err).
		Msg("paso de saga")
}

// finish registra la saga terminada en el log y en la bitácora. Nunca cambia el resultado.
func (c *Coordinator) finish(ctx context.Context, s *Saga) {
	s.FinishedAt = c.now().UTC()

	var ev *zerolog.Event
	switch s.State {
	case StateCommitted:
		ev = c.log.Info()
	case StatePartiallyCompensated:
		ev = c.log.Error().Bool("alert", true)
	default:
		ev = c.log.Warn()
	}
	ev.Str("saga_id", s.ID).
		Str("kind", string(s.Kind)).
		Str("state", string(s.State)).
		Int64("movement_id", s.MovementID).
		Int("steps", len(s.Steps)).
		Dur("elapsed", s.FinishedAt.Sub(s.StartedAt)).
		AnErr("error", s.Err).
		Msg("saga finalizada")

	if c.journal == nil {
		return
	}
	if err := c.journal.Save(context.WithoutCancel(ctx), s.toLog()); err != nil {
		c.log.Error().Err(err).Str("saga_id", s.ID).Msg("no se pudo guardar la bitácora de la saga")
	}
}
