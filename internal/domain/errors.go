package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrValidation         = errors.New("datos de entrada inválidos")
	ErrProductNotFound    = errors.New("producto no encontrado")
	ErrMovementNotFound   = errors.New("transacción no encontrada")
	ErrInsufficientStock  = errors.New("no hay suficiente stock disponible")
	ErrInvalidOperation   = errors.New("operación no válida, use 'add' o 'subtract'")
	ErrServiceUnavailable = errors.New("servicio de productos no disponible")
	ErrPersistence        = errors.New("error de persistencia local")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrDuplicateKey       = errors.New("clave duplicada")

	// ErrPartialCompensation indica una inconsistencia real entre catálogo y libro de
	// movimientos: se revirtió el stock del producto anterior pero la edición no se completó.
	ErrPartialCompensation = errors.New("compensación parcial: catálogo y movimientos inconsistentes")
)

// UpstreamError respuesta no exitosa del servicio de productos; Status se propaga al cliente.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("servicio de productos respondió HTTP %d", e.Status)
	}
	return fmt.Sprintf("servicio de productos respondió HTTP %d: %s", e.Status, e.Message)
}

// PartialCompensationError estado degradado de una edición: el producto anterior ya fue
// revertido (OldProductID) y un paso posterior falló (Cause). Requiere reparación manual.
type PartialCompensationError struct {
	SagaID       string
	MovementID   int64
	OldProductID int64
	NewProductID int64
	Cause        error
}

func (e *PartialCompensationError) Error() string {
	return fmt.Sprintf("%s (saga %s, transacción %d, producto anterior %d, producto nuevo %d): %v",
		ErrPartialCompensation.Error(), e.SagaID, e.MovementID, e.OldProductID, e.NewProductID, e.Cause)
}

// Is permite errors.Is(err, ErrPartialCompensation).
func (e *PartialCompensationError) Is(target error) bool {
	return target == ErrPartialCompensation
}

// Unwrap expone la causa original.
func (e *PartialCompensationError) Unwrap() error {
	return e.Cause
}
