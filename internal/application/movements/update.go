package movements

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// updatePlan resultado puro de comparar el movimiento existente con la edición pedida.
type updatePlan struct {
	productChanged bool
	// reversión del efecto original sobre el producto anterior (solo si cambia el producto)
	revertOp  entity.StockOperation
	revertQty int
	// efecto neto con signo a aplicar sobre el producto nuevo
	net int
}

// planUpdate calcula los ajustes de una edición. Con el mismo producto el neto es
// efecto(nuevo) − efecto(anterior), que equivale a ±(newQty − oldQty) si el tipo no cambia
// y cubre también el cambio de tipo. Con otro producto el neto es el efecto nuevo completo.
func planUpdate(existing *entity.Movement, txType string, productID int64, quantity int) updatePlan {
	p := updatePlan{productChanged: existing.ProductID != productID}
	oldEffect := entity.StockEffect(existing.Type, existing.Quantity)
	newEffect := entity.StockEffect(txType, quantity)
	if p.productChanged {
		p.revertOp, p.revertQty = entity.OperationFor(-oldEffect)
		p.net = newEffect
		return p
	}
	p.net = newEffect - oldEffect
	return p
}

// fetchBoth consulta producto anterior y nuevo en paralelo, aunque sean el mismo.
func (c *Coordinator) fetchBoth(ctx context.Context, oldID, newID int64) (oldProduct, newProduct *entity.Product, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.stock.Fetch(gctx, oldID)
		oldProduct = p
		return err
	})
	g.Go(func() error {
		p, err := c.stock.Fetch(gctx, newID)
		newProduct = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return oldProduct, newProduct, nil
}

// Update edita un movimiento existente (tipo, producto, cantidad, precio, detalles).
//
// El movimiento se lee y bloquea dentro de la tx local, así una edición o baja concurrente
// de la misma fila espera y planifica sobre el resultado confirmado de esta.
// Si cambia el producto, primero revierte el efecto original sobre el producto anterior;
// si esa reversión falla no se modifica nada. Luego aplica el neto sobre el producto nuevo
// y actualiza la fila. Si algo falla después de revertir el producto anterior, el resultado
// es *domain.PartialCompensationError: el producto anterior queda revertido y no se intenta
// ninguna otra compensación sobre él.
func (c *Coordinator) Update(ctx context.Context, id int64, in MovementInput) (*entity.Movement, error) {
	s := newSaga(KindUpdate, c.now().UTC())
	s.MovementID = id
	defer c.finish(ctx, s)

	txType, err := validateInput(in)
	if err != nil {
		return nil, s.abort(err)
	}

	s.advance(StateFetchingRemoteState)
	var (
		existing, updated     *entity.Movement
		netOp                 entity.StockOperation
		netQty                int
		oldReverted, adjusted bool
	)
	err = c.txRunner.Run(ctx, func(movRepo repository.MovementRepository) error {
		m, err := movRepo.GetForUpdate(ctx, id)
		if err != nil {
			return persistenceErr(err)
		}
		if m == nil {
			return domain.ErrMovementNotFound
		}
		existing = m
		_, newProduct, err := c.fetchBoth(ctx, existing.ProductID, in.ProductID)
		if err != nil {
			return err
		}

		plan := planUpdate(existing, txType, in.ProductID, in.Quantity)
		// El stock del producto nuevo no depende de la reversión del anterior, así que la
		// verificación se hace antes de tocar el catálogo.
		if plan.net < 0 && -plan.net > newProduct.Stock {
			return domain.ErrInsufficientStock
		}

		fallback := existing.UnitPrice
		if plan.productChanged {
			fallback = newProduct.Price
		}
		unitPrice, err := resolveUnitPrice(in.UnitPrice, fallback)
		if err != nil {
			return err
		}

		next := *existing
		next.Type = txType
		next.ProductID = in.ProductID
		next.Quantity = in.Quantity
		next.UnitPrice = unitPrice
		next.Details = in.Details
		next.Recalculate()
		netOp, netQty = entity.OperationFor(plan.net)

		s.advance(StateLocalWritePending)
		s.advance(StateRemoteAdjustPending)

		if plan.productChanged {
			_, err := c.stock.Adjust(ctx, existing.ProductID, plan.revertOp, plan.revertQty, s.idempotencyKey(stepRevertOldProduct))
			c.record(s, stepRevertOldProduct, existing.ProductID, plan.revertOp, plan.revertQty, err)
			if err != nil {
				return err
			}
			oldReverted = true
		}

		if netQty > 0 {
			_, err := c.stock.Adjust(ctx, in.ProductID, netOp, netQty, s.idempotencyKey(stepAdjustNewProduct))
			c.record(s, stepAdjustNewProduct, in.ProductID, netOp, netQty, err)
			if err != nil {
				return err
			}
			adjusted = true
		}

		if err := movRepo.Update(ctx, &next); err != nil {
			return persistenceErr(err)
		}
		updated = &next
		return nil
	})
	if err == nil {
		s.advance(StateCommitted)
		return updated, nil
	}

	if !oldReverted {
		if adjusted {
			return nil, c.failAfterAdjust(ctx, s, err, compRevertNewProduct, in.ProductID, netOp, netQty)
		}
		return nil, s.abort(err)
	}

	// El producto anterior ya fue revertido: estado degradado.
	cause := err
	if adjusted {
		if rerr := c.reverseAdjust(ctx, s, compRevertNewProduct, in.ProductID, netOp, netQty); rerr != nil {
			cause = errors.Join(err, rerr)
		}
	}
	return nil, s.degrade(&domain.PartialCompensationError{
		SagaID:       s.ID,
		MovementID:   id,
		OldProductID: existing.ProductID,
		NewProductID: in.ProductID,
		Cause:        cause,
	})
}
