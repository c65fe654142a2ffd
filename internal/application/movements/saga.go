package movements

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

// SagaKind flujo que ejecuta la saga.
type SagaKind string

const (
	KindCreate SagaKind = "CREATE"
	KindUpdate SagaKind = "UPDATE"
	KindDelete SagaKind = "DELETE"
)

// SagaState estado de una saga por petición.
type SagaState string

const (
	StateValidating           SagaState = "VALIDATING"
	StateFetchingRemoteState  SagaState = "FETCHING_REMOTE_STATE"
	StateLocalWritePending    SagaState = "LOCAL_WRITE_PENDING"
	StateRemoteAdjustPending  SagaState = "REMOTE_ADJUST_PENDING"
	StateCommitted            SagaState = "COMMITTED"
	StateAborted              SagaState = "ABORTED"
	StatePartiallyCompensated SagaState = "PARTIALLY_COMPENSATED"
)

// Terminal indica si el estado es final.
func (s SagaState) Terminal() bool {
	return s == StateCommitted || s == StateAborted || s == StatePartiallyCompensated
}

// transiciones permitidas; ABORTED es alcanzable desde cualquier estado no terminal.
var sagaTransitions = map[SagaState][]SagaState{
	StateValidating:          {StateFetchingRemoteState},
	StateFetchingRemoteState: {StateLocalWritePending},
	StateLocalWritePending:   {StateRemoteAdjustPending},
	StateRemoteAdjustPending: {StateCommitted, StatePartiallyCompensated},
}

// CanTransition indica si from → to es una transición válida.
func CanTransition(from, to SagaState) bool {
	if from.Terminal() {
		return false
	}
	if to == StateAborted {
		return true
	}
	for _, s := range sagaTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SagaStep entrada de la bitácora de pasos de una saga.
type SagaStep struct {
	Name      string    `json:"name"`
	ProductID int64     `json:"productId,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Saga estado y bitácora de una unidad de trabajo (create/update/delete de un movimiento).
// No se comparte entre peticiones.
type Saga struct {
	ID         string
	Kind       SagaKind
	State      SagaState
	MovementID int64
	Steps      []SagaStep
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func newSaga(kind SagaKind, now time.Time) *Saga {
	return &Saga{
		ID:        uuid.New().String(),
		Kind:      kind,
		State:     StateValidating,
		StartedAt: now,
	}
}

// advance mueve la saga a next. Una transición inválida es un error de programación.
func (s *Saga) advance(next SagaState) {
	if !CanTransition(s.State, next) {
		panic(fmt.Sprintf("saga %s: transición inválida %s -> %s", s.ID, s.State, next))
	}
	s.State = next
}

func (s *Saga) abort(err error) error {
	s.advance(StateAborted)
	s.Err = err
	return err
}

func (s *Saga) degrade(err error) error {
	s.advance(StatePartiallyCompensated)
	s.Err = err
	return err
}

func (s *Saga) addStep(name string, productID int64, op entity.StockOperation, qty int, at time.Time, err error) {
	step := SagaStep{Name: name, ProductID: productID, Operation: string(op), Quantity: qty, At: at}
	if err != nil {
		step.Error = err.Error()
	}
	s.Steps = append(s.Steps, step)
}

// idempotencyKey clave determinista por saga y paso: reintentar el mismo paso reutiliza la clave.
func (s *Saga) idempotencyKey(step string) string {
	return uuid.NewSHA1(uuid.MustParse(s.ID), []byte(step)).String()
}

// toLog convierte la saga terminada en su registro de bitácora.
func (s *Saga) toLog() *entity.SagaLog {
	steps, _ := json.Marshal(s.Steps)
	l := &entity.SagaLog{
		ID:         s.ID,
		Kind:       string(s.Kind),
		State:      string(s.State),
		MovementID: s.MovementID,
		Steps:      steps,
		CreatedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	if s.Err != nil {
		l.Error = s.Err.Error()
	}
	return l
}
