package entity

import (
	"encoding/json"
	"time"
)

// SagaLog bitácora de una saga ya terminada (auditoría e incidentes de compensación parcial).
type SagaLog struct {
	ID         string
	Kind       string
	State      string
	MovementID int64
	Steps      json.RawMessage
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}
