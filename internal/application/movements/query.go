package movements

import (
	"context"
	"strings"

	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

// QueryUseCase lecturas del libro de movimientos y de la bitácora de sagas (sin efectos).
type QueryUseCase struct {
	repo    repository.MovementRepository
	journal repository.SagaLogRepository
}

// NewQueryUseCase construye el caso de uso de consulta. journal puede ser nil.
func NewQueryUseCase(repo repository.MovementRepository, journal repository.SagaLogRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo, journal: journal}
}

// List devuelve una página de movimientos filtrada, ordenada por fecha descendente.
func (uc *QueryUseCase) List(ctx context.Context, q dto.ListMovementsQuery) (*dto.MovementPage, error) {
	q.Normalize()
	items, total, err := uc.repo.List(ctx, repository.MovementFilter{
		ProductID: q.ProductID,
		Type:      strings.ToUpper(strings.TrimSpace(q.Type)),
		From:      q.FromDate,
		To:        q.ToDate,
		Limit:     q.PageSize,
		Offset:    q.Offset(),
	})
	if err != nil {
		return nil, persistenceErr(err)
	}
	out := &dto.MovementPage{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		Items:    make([]dto.MovementResponse, 0, len(items)),
	}
	for _, m := range items {
		out.Items = append(out.Items, ToMovementResponse(m))
	}
	return out, nil
}

// GetByID devuelve un movimiento o nil si no existe.
func (uc *QueryUseCase) GetByID(ctx context.Context, id int64) (*dto.MovementResponse, error) {
	m, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if m == nil {
		return nil, nil
	}
	out := ToMovementResponse(m)
	return &out, nil
}

// Incidents lista las sagas en estado PARTIALLY_COMPENSATED, las que requieren reparación manual.
func (uc *QueryUseCase) Incidents(ctx context.Context, limit int) ([]dto.SagaLogResponse, error) {
	if uc.journal == nil {
		return []dto.SagaLogResponse{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	logs, err := uc.journal.ListByState(ctx, string(StatePartiallyCompensated), limit)
	if err != nil {
		return nil, persistenceErr(err)
	}
	out := make([]dto.SagaLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.SagaLogResponse{
			ID:         l.ID,
			Kind:       l.Kind,
			State:      l.State,
			MovementID: l.MovementID,
			Steps:      l.Steps,
			Error:      l.Error,
			CreatedAt:  l.CreatedAt,
			FinishedAt: l.FinishedAt,
		})
	}
	return out, nil
}

// ToMovementResponse convierte la entidad en su DTO público.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		TransactionDate: m.TransactionDate,
		Type:            m.Type,
		ProductID:       m.ProductID,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TotalPrice:      m.TotalPrice,
		Details:         m.Details,
		CreatedAt:       m.CreatedAt,
	}
}

// FromRequest adapta el body HTTP a MovementInput.
func FromRequest(in dto.MovementRequest) MovementInput {
	return MovementInput{
		Type:      in.Type,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		Details:   in.Details,
	}
}
