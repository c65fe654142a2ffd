package movements

import (
	"context"

	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// Delete elimina un movimiento revirtiendo primero su efecto en el catálogo
// (SALE → add, PURCHASE → subtract). Si el ajuste falla el movimiento se conserva.
// La fila se lee bloqueada dentro de la tx, igual que en Update.
func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	s := newSaga(KindDelete, c.now().UTC())
	s.MovementID = id
	defer c.finish(ctx, s)

	s.advance(StateFetchingRemoteState)
	var (
		productID int64
		op        entity.StockOperation
		qty       int
		adjusted  bool
	)
	err := c.txRunner.Run(ctx, func(movRepo repository.MovementRepository) error {
		existing, err := movRepo.GetForUpdate(ctx, id)
		if err != nil {
			return persistenceErr(err)
		}
		if existing == nil {
			return domain.ErrMovementNotFound
		}
		productID = existing.ProductID
		op, qty = entity.OperationFor(-entity.StockEffect(existing.Type, existing.Quantity))

		s.advance(StateLocalWritePending)
		s.advance(StateRemoteAdjustPending)
		_, err = c.stock.Adjust(ctx, productID, op, qty, s.idempotencyKey(stepAdjustStock))
		c.record(s, stepAdjustStock, productID, op, qty, err)
		if err != nil {
			return err
		}
		adjusted = true
		if err := movRepo.Delete(ctx, id); err != nil {
			return persistenceErr(err)
		}
		return nil
	})
	if err != nil {
		if adjusted {
			return c.failAfterAdjust(ctx, s, err, compRevertStock, productID, op, qty)
		}
		return s.abort(err)
	}

	s.advance(StateCommitted)
	return nil
}
