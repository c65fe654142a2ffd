package repository

import (
	"context"

	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

// SagaLogRepository persiste la bitácora de sagas terminadas.
type SagaLogRepository interface {
	Save(ctx context.Context, log *entity.SagaLog) error
	ListByState(ctx context.Context, state string, limit int) ([]*entity.SagaLog, error)
}
