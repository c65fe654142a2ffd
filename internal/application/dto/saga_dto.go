package dto

import (
	"encoding/json"
	"time"
)

// SagaLogResponse entrada de la bitácora de sagas (incidentes de compensación parcial).
type SagaLogResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	State      string          `json:"state"`
	MovementID int64           `json:"movementId"`
	Steps      json.RawMessage `json:"steps"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	FinishedAt time.Time       `json:"finishedAt"`
}
