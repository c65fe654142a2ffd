package movements_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

func TestCreate_VentaAjustaStockYRegistra(t *testing.T) {
	f := newFixture(t)

	m, err := f.saga.Create(context.Background(), sale(1, 3))
	require.NoError(t, err)

	assert.NotZero(t, m.ID)
	assert.Equal(t, entity.MovementTypeSale, m.Type)
	assert.True(t, dec("5.00").Equal(m.UnitPrice), "sin unitPrice se usa el precio del producto")
	assert.True(t, dec("15.00").Equal(m.TotalPrice))
	assert.Equal(t, 7, f.stockOf(t, 1))

	got, err := f.query.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Quantity)

	calls := f.stock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, entity.StockSubtract, calls[0].Op)
	assert.Equal(t, 3, calls[0].Quantity)
	assert.NotEmpty(t, calls[0].Key, "cada ajuste lleva Idempotency-Key")

	assert.Len(t, f.sagas(t, movements.StateCommitted), 1)
}

func TestCreate_CompraConPrecioExplicitoYTipoEnMinusculas(t *testing.T) {
	f := newFixture(t)
	price := dec("4.25")

	m, err := f.saga.Create(context.Background(), movements.MovementInput{
		Type: " purchase ", ProductID: 2, Quantity: 4, UnitPrice: &price,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.MovementTypePurchase, m.Type)
	assert.True(t, dec("17.00").Equal(m.TotalPrice))
	assert.Equal(t, 8, f.stockOf(t, 2))
}

func TestCreate_Validacion(t *testing.T) {
	negative := dec("-1")
	cases := map[string]movements.MovementInput{
		"tipo inválido":     {Type: "GIFT", ProductID: 1, Quantity: 1},
		"cantidad cero":     {Type: "SALE", ProductID: 1, Quantity: 0},
		"cantidad negativa": {Type: "SALE", ProductID: 1, Quantity: -2},
		"precio negativo":   {Type: "SALE", ProductID: 1, Quantity: 1, UnitPrice: &negative},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.saga.Create(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Empty(t, f.stock.Calls())
			assert.Zero(t, f.rowCount(t))
		})
	}
}

func TestCreate_StockInsuficienteNoEscribeNada(t *testing.T) {
	f := newFixture(t)

	_, err := f.saga.Create(context.Background(), sale(1, 11))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, f.stock.Calls(), "no se llama al catálogo para ajustar")
	assert.Zero(t, f.rowCount(t))
	assert.Equal(t, 10, f.stockOf(t, 1))
	assert.Len(t, f.sagas(t, movements.StateAborted), 1)
}

func TestCreate_ProductoInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.saga.Create(context.Background(), sale(99, 1))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Zero(t, f.rowCount(t))
}

func TestCreate_CatalogoNoDisponible(t *testing.T) {
	f := newFixture(t)
	f.stock.fetchErr = fmt.Errorf("%w: connection refused", domain.ErrServiceUnavailable)

	_, err := f.saga.Create(context.Background(), sale(1, 1))
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Zero(t, f.rowCount(t))
}

func TestCreate_AjusteRemotoFallaNoDejaFila(t *testing.T) {
	f := newFixture(t)
	f.stock.beforeAdjust = func(int, adjustCall) error {
		return &domain.UpstreamError{Status: 500, Message: "boom"}
	}

	_, err := f.saga.Create(context.Background(), sale(1, 3))

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 500, upstream.Status)
	assert.Zero(t, f.rowCount(t), "la fila insertada se descarta")
	assert.Equal(t, 10, f.stockOf(t, 1))

	aborted := f.sagas(t, movements.StateAborted)
	require.Len(t, aborted, 1)
	assert.Contains(t, string(aborted[0].Steps), "deleteInserted")
}

func TestCreate_FilaInvisibleHastaElCommit(t *testing.T) {
	f := newFixture(t)
	visible := -1
	f.stock.beforeAdjust = func(int, adjustCall) error {
		visible = f.rowCount(t)
		return nil
	}

	_, err := f.saga.Create(context.Background(), sale(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, visible, "durante el ajuste remoto la fila no es visible fuera de la tx")
	assert.Equal(t, 1, f.rowCount(t))
}

func TestCreate_FallaCommitRevierteAjuste(t *testing.T) {
	f := newFixture(t)
	f.withRunner(commitFailRunner{ledger: f.ledger, err: fmt.Errorf("%w: commit", domain.ErrPersistence)})

	_, err := f.saga.Create(context.Background(), sale(1, 3))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.NotErrorIs(t, err, domain.ErrPartialCompensation)

	assert.Equal(t, 10, f.stockOf(t, 1), "el ajuste se revierte una vez")
	assert.Zero(t, f.rowCount(t))

	calls := f.stock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, entity.StockSubtract, calls[0].Op)
	assert.Equal(t, entity.StockAdd, calls[1].Op)
	assert.NotEqual(t, calls[0].Key, calls[1].Key)
}

func TestCreate_FallaCommitYFallaReversion(t *testing.T) {
	f := newFixture(t)
	f.withRunner(commitFailRunner{ledger: f.ledger, err: fmt.Errorf("%w: commit", domain.ErrPersistence)})
	f.stock.beforeAdjust = func(n int, _ adjustCall) error {
		if n == 1 {
			return fmt.Errorf("%w: timeout", domain.ErrServiceUnavailable)
		}
		return nil
	}

	_, err := f.saga.Create(context.Background(), sale(1, 3))

	var partial *domain.PartialCompensationError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, domain.ErrPartialCompensation)
	assert.Equal(t, int64(1), partial.NewProductID)
	assert.Equal(t, 7, f.stockOf(t, 1), "el stock queda descontado: requiere reparación manual")

	incidents, err := f.query.Incidents(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, string(movements.KindCreate), incidents[0].Kind)
}

// Varias ventas concurrentes sobre el mismo producto nunca dejan stock negativo:
// solo prosperan las que caben en el stock inicial.
func TestCreate_VentasConcurrentes(t *testing.T) {
	f := newFixture(t)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.saga.Create(context.Background(), sale(1, 3))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, workers-3, rejected)
	assert.Equal(t, 1, f.stockOf(t, 1))
	assert.Equal(t, 3, f.rowCount(t))
}
