package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
)

// writeError traduce un error de dominio a status + dto.ErrorResponse.
// La compensación parcial se evalúa primero porque envuelve la causa original.
func writeError(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func classify(err error) (int, string) {
	var partial *domain.PartialCompensationError
	if errors.As(err, &partial) {
		return fiber.StatusInternalServerError, "PARTIAL_COMPENSATION_FAILURE"
	}
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvalidOperation):
		return fiber.StatusBadRequest, "INVALID_OPERATION"
	case errors.Is(err, domain.ErrProductNotFound):
		return fiber.StatusBadRequest, "PRODUCT_NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusBadRequest, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrMovementNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	case errors.As(err, &upstream):
		status := upstream.Status
		if status < 400 || status > 599 {
			status = fiber.StatusBadGateway
		}
		return status, "UPSTREAM_ERROR"
	case errors.Is(err, domain.ErrPersistence):
		return fiber.StatusInternalServerError, "PERSISTENCE_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// parseID lee el parámetro :id como entero positivo.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser un entero positivo"})
}
