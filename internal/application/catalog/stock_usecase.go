package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// StockUseCase consulta y ajuste de stock del catálogo. La verificación de stock suficiente
// vive en la propia sentencia de ajuste, así dos ventas concurrentes nunca dejan stock negativo.
type StockUseCase struct {
	txRunner TxRunner
	repo     repository.ProductRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(txRunner TxRunner, repo repository.ProductRepository) *StockUseCase {
	return &StockUseCase{txRunner: txRunner, repo: repo}
}

// GetByID devuelve el producto o domain.ErrProductNotFound.
func (uc *StockUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return ToProductResponse(p), nil
}

// AdjustStock aplica add/subtract. Con idempotencyKey no vacía, una clave ya aplicada no
// vuelve a modificar el stock: devuelve el estado actual del producto.
func (uc *StockUseCase) AdjustStock(ctx context.Context, id int64, in dto.UpdateStockRequest, idempotencyKey string) (*dto.ProductResponse, error) {
	op := entity.StockOperation(strings.ToLower(strings.TrimSpace(in.Operation)))
	if !op.Valid() {
		return nil, domain.ErrInvalidOperation
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: la cantidad no puede ser negativa", domain.ErrValidation)
	}

	var out *entity.Product
	err := uc.txRunner.RunCatalog(ctx, func(productRepo repository.ProductRepository, adjRepo repository.StockAdjustmentRepository) error {
		if idempotencyKey != "" {
			prev, err := adjRepo.Get(ctx, idempotencyKey)
			if err != nil {
				return err
			}
			if prev != nil {
				if prev.ProductID != id || prev.Operation != op || prev.Quantity != in.Quantity {
					return fmt.Errorf("%w: Idempotency-Key reutilizada con otra operación", domain.ErrValidation)
				}
				p, err := productRepo.GetByID(ctx, id)
				if err != nil {
					return err
				}
				if p == nil {
					return domain.ErrProductNotFound
				}
				out = p
				return nil
			}
		}

		var p *entity.Product
		var err error
		if op == entity.StockAdd {
			p, err = productRepo.AddStock(ctx, id, in.Quantity)
		} else {
			p, err = productRepo.SubtractStock(ctx, id, in.Quantity)
		}
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProductNotFound
		}
		if idempotencyKey != "" {
			if err := adjRepo.Save(ctx, &entity.StockAdjustment{
				IdempotencyKey: idempotencyKey,
				ProductID:      id,
				Operation:      op,
				Quantity:       in.Quantity,
			}); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) && idempotencyKey != "" {
			// otra petición con la misma clave ganó la carrera: no se aplica dos veces.
			return uc.GetByID(ctx, id)
		}
		return nil, err
	}
	return ToProductResponse(out), nil
}

// ToProductResponse convierte la entidad en su DTO.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
