package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-movimientos/internal/domain"
)

func TestClassify(t *testing.T) {
	partial := &domain.PartialCompensationError{
		SagaID: "s", OldProductID: 1, NewProductID: 2,
		Cause: &domain.UpstreamError{Status: 502},
	}
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validación", fmt.Errorf("%w: cantidad", domain.ErrValidation), 400, "VALIDATION"},
		{"producto inexistente", domain.ErrProductNotFound, 400, "PRODUCT_NOT_FOUND"},
		{"stock insuficiente", domain.ErrInsufficientStock, 400, "INSUFFICIENT_STOCK"},
		{"operación inválida", domain.ErrInvalidOperation, 400, "INVALID_OPERATION"},
		{"movimiento inexistente", domain.ErrMovementNotFound, 404, "NOT_FOUND"},
		{"catálogo caído", fmt.Errorf("%w: dial tcp", domain.ErrServiceUnavailable), 503, "SERVICE_UNAVAILABLE"},
		{"upstream conserva status", &domain.UpstreamError{Status: 409}, 409, "UPSTREAM_ERROR"},
		{"upstream con status raro", &domain.UpstreamError{Status: 302}, 502, "UPSTREAM_ERROR"},
		{"persistencia", fmt.Errorf("%w: commit", domain.ErrPersistence), 500, "PERSISTENCE_ERROR"},
		{"compensación parcial gana a su causa", partial, 500, "PARTIAL_COMPENSATION_FAILURE"},
		{"desconocido", errors.New("x"), 500, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := classify(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}
