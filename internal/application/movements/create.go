package movements

import (
	"context"

	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// Create registra un movimiento nuevo:
//  1. valida tipo y cantidad;
//  2. consulta el producto en el catálogo (sin escrituras locales si falla);
//  3. en SALE exige quantity <= stock;
//  4. resuelve precio unitario y total;
//  5. abre la tx local e inserta la fila;
//  6. ajusta el stock remoto (subtract para SALE, add para PURCHASE);
//  7. si el ajuste falla borra la fila y hace rollback, devolviendo el error del ajuste;
//  8. si no, commit. La fila no es visible antes del commit.
func (c *Coordinator) Create(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	s := newSaga(KindCreate, c.now().UTC())
	defer c.finish(ctx, s)

	txType, err := validateInput(in)
	if err != nil {
		return nil, s.abort(err)
	}

	s.advance(StateFetchingRemoteState)
	product, err := c.stock.Fetch(ctx, in.ProductID)
	if err != nil {
		return nil, s.abort(err)
	}
	if txType == entity.MovementTypeSale && in.Quantity > product.Stock {
		return nil, s.abort(domain.ErrInsufficientStock)
	}
	unitPrice, err := resolveUnitPrice(in.UnitPrice, product.Price)
	if err != nil {
		return nil, s.abort(err)
	}

	now := c.now().UTC()
	mov := &entity.Movement{
		TransactionDate: now,
		Type:            txType,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
		UnitPrice:       unitPrice,
		Details:         in.Details,
		CreatedAt:       now,
	}
	mov.Recalculate()
	op, qty := entity.OperationFor(entity.StockEffect(txType, in.Quantity))

	adjusted := false
	err = c.txRunner.Run(ctx, func(movRepo repository.MovementRepository) error {
		s.advance(StateLocalWritePending)
		if err := movRepo.Create(ctx, mov); err != nil {
			return persistenceErr(err)
		}
		s.MovementID = mov.ID

		s.advance(StateRemoteAdjustPending)
		_, err := c.stock.Adjust(ctx, mov.ProductID, op, qty, s.idempotencyKey(stepAdjustStock))
		c.record(s, stepAdjustStock, mov.ProductID, op, qty, err)
		if err != nil {
			c.deleteInserted(ctx, s, movRepo, mov.ID)
			return err
		}
		adjusted = true
		return nil
	})
	if err != nil {
		if adjusted {
			return nil, c.failAfterAdjust(ctx, s, err, compRevertStock, mov.ProductID, op, qty)
		}
		return nil, s.abort(err)
	}

	s.advance(StateCommitted)
	return mov, nil
}
