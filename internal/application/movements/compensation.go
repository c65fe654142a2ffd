package movements

import (
	"context"
	"errors"

	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// Nombres de pasos y compensaciones registrados en la bitácora de la saga.
const (
	stepAdjustStock      = "adjustStock"
	stepRevertOldProduct = "revertOldProduct"
	stepAdjustNewProduct = "adjustNewProduct"

	compDeleteInserted   = "deleteInserted"
	compRevertStock      = "revertStock"
	compRevertNewProduct = "revertNewProduct"
)

// Compensaciones: cada una revierte un paso ya aplicado. Se ejecutan con un contexto que
// ignora la cancelación de la petición para no dejar la reversión a medias.

// deleteInserted borra la fila recién insertada en la tx local (alta cuyo ajuste remoto falló).
// El Rollback posterior la descarta de todos modos; el borrado deja explícita la compensación.
func (c *Coordinator) deleteInserted(ctx context.Context, s *Saga, movRepo repository.MovementRepository, id int64) {
	err := movRepo.Delete(context.WithoutCancel(ctx), id)
	c.record(s, compDeleteInserted, 0, "", 0, err)
	if err != nil {
		c.log.Warn().Err(err).Str("saga_id", s.ID).Int64("movement_id", id).
			Msg("no se pudo borrar la fila insertada; se descarta con rollback")
	}
}

// reverseAdjust aplica una única vez la operación inversa de un ajuste ya confirmado por el catálogo.
func (c *Coordinator) reverseAdjust(ctx context.Context, s *Saga, name string, productID int64, applied entity.StockOperation, qty int) error {
	op := applied.Inverse()
	_, err := c.stock.Adjust(context.WithoutCancel(ctx), productID, op, qty, s.idempotencyKey(name))
	c.record(s, name, productID, op, qty, err)
	if err != nil {
		c.log.Error().Err(err).Bool("alert", true).
			Str("saga_id", s.ID).Str("compensation", name).
			Int64("product_id", productID).Str("operation", string(op)).Int("quantity", qty).
			Msg("falló la compensación de stock")
	}
	return err
}

// failAfterAdjust resuelve una saga cuyo ajuste remoto ya se aplicó pero la escritura o el
// commit local fallaron: revierte el ajuste; si la reversión falla el estado es degradado.
func (c *Coordinator) failAfterAdjust(ctx context.Context, s *Saga, cause error, name string, productID int64, applied entity.StockOperation, qty int) error {
	if err := c.reverseAdjust(ctx, s, name, productID, applied, qty); err != nil {
		return s.degrade(&domain.PartialCompensationError{
			SagaID:       s.ID,
			MovementID:   s.MovementID,
			NewProductID: productID,
			Cause:        errors.Join(cause, err),
		})
	}
	return s.abort(cause)
}
