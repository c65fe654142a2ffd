package movements_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

// seedSale registra una venta y limpia el historial de llamadas del doble.
func seedSale(t *testing.T, f *fixture, productID int64, qty int) *entity.Movement {
	t.Helper()
	m, err := f.saga.Create(context.Background(), sale(productID, qty))
	require.NoError(t, err)
	f.stock.mu.Lock()
	f.stock.calls = nil
	f.stock.mu.Unlock()
	return m
}

func TestUpdate_SoloCantidadAplicaDiferencia(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)

	got, err := f.saga.Update(context.Background(), m.ID, sale(1, 5))
	require.NoError(t, err)

	assert.Equal(t, 5, f.stockOf(t, 1))
	assert.True(t, dec("25.00").Equal(got.TotalPrice), "conserva el precio unitario existente")

	calls := f.stock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, adjustCall{ProductID: 1, Op: entity.StockSubtract, Quantity: 2, Key: calls[0].Key}, calls[0])
}

func TestUpdate_ReducirVentaDevuelveStock(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 6)

	_, err := f.saga.Update(context.Background(), m.ID, sale(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 8, f.stockOf(t, 1))
}

func TestUpdate_SinCambioDeStockNoLlamaAlCatalogo(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)
	details := "corrección de nota"

	got, err := f.saga.Update(context.Background(), m.ID, movements.MovementInput{
		Type: "SALE", ProductID: 1, Quantity: 3, Details: &details,
	})
	require.NoError(t, err)

	assert.Empty(t, f.stock.Calls())
	require.NotNil(t, got.Details)
	assert.Equal(t, details, *got.Details)
	assert.Equal(t, 7, f.stockOf(t, 1))
}

func TestUpdate_CambioDeProducto(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)

	got, err := f.saga.Update(context.Background(), m.ID, sale(2, 2))
	require.NoError(t, err)

	assert.Equal(t, 10, f.stockOf(t, 1), "el efecto original se revierte")
	assert.Equal(t, 2, f.stockOf(t, 2))
	assert.True(t, dec("8.00").Equal(got.UnitPrice), "sin unitPrice se toma el precio del producto nuevo")
	assert.True(t, dec("16.00").Equal(got.TotalPrice))

	calls := f.stock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, int64(1), calls[0].ProductID)
	assert.Equal(t, entity.StockAdd, calls[0].Op)
	assert.Equal(t, int64(2), calls[1].ProductID)
	assert.Equal(t, entity.StockSubtract, calls[1].Op)

	stored, err := f.query.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ProductID)
}

func TestUpdate_CambioDeTipo(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)

	_, err := f.saga.Update(context.Background(), m.ID, purchase(1, 3))
	require.NoError(t, err)

	// +3 por revertir la venta y +3 por la compra.
	assert.Equal(t, 13, f.stockOf(t, 1))
	calls := f.stock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 6, calls[0].Quantity)
}

func TestUpdate_StockInsuficienteEnProductoNuevo(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)

	_, err := f.saga.Update(context.Background(), m.ID, sale(2, 5))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, f.stock.Calls(), "se verifica antes de revertir el producto anterior")
	assert.Equal(t, 7, f.stockOf(t, 1))
	assert.Equal(t, 4, f.stockOf(t, 2))
}

func TestUpdate_FallaRevertirProductoAnteriorNoCambiaNada(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)
	f.stock.beforeAdjust = func(_ int, c adjustCall) error {
		if c.ProductID == 1 {
			return fmt.Errorf("%w: timeout", domain.ErrServiceUnavailable)
		}
		return nil
	}

	_, err := f.saga.Update(context.Background(), m.ID, sale(2, 2))
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.NotErrorIs(t, err, domain.ErrPartialCompensation)

	assert.Equal(t, 7, f.stockOf(t, 1))
	assert.Equal(t, 4, f.stockOf(t, 2))
	stored, err := f.query.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ProductID)
}

func TestUpdate_CompensacionParcial(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)
	f.stock.beforeAdjust = func(_ int, c adjustCall) error {
		if c.ProductID == 2 {
			return &domain.UpstreamError{Status: 500}
		}
		return nil
	}

	_, err := f.saga.Update(context.Background(), m.ID, sale(2, 2))

	var partial *domain.PartialCompensationError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, m.ID, partial.MovementID)
	assert.Equal(t, int64(1), partial.OldProductID)
	assert.Equal(t, int64(2), partial.NewProductID)
	var upstream *domain.UpstreamError
	assert.ErrorAs(t, err, &upstream, "la causa original sigue accesible")

	assert.Equal(t, 10, f.stockOf(t, 1), "el producto anterior queda revertido")
	assert.Equal(t, 4, f.stockOf(t, 2))
	stored, err := f.query.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ProductID, "la fila no se modifica")

	incidents, err := f.query.Incidents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, m.ID, incidents[0].MovementID)
	assert.Equal(t, string(movements.StatePartiallyCompensated), incidents[0].State)
}

func TestUpdate_FallaCommitMismoProductoRevierteNeto(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)
	f.withRunner(commitFailRunner{ledger: f.ledger, err: fmt.Errorf("%w: commit", domain.ErrPersistence)})

	_, err := f.saga.Update(context.Background(), m.ID, sale(1, 5))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 7, f.stockOf(t, 1))
	assert.Len(t, f.stock.Calls(), 2)
}

func TestUpdate_NoEncontrado(t *testing.T) {
	f := newFixture(t)

	_, err := f.saga.Update(context.Background(), 404, sale(1, 1))
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
	assert.Empty(t, f.stock.Calls())
}

func TestUpdate_ProductoNuevoInexistente(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)

	_, err := f.saga.Update(context.Background(), m.ID, sale(99, 1))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Empty(t, f.stock.Calls())
}

// blockFirstAdjust detiene el primer ajuste hasta que se cierre release y avisa por started.
func blockFirstAdjust(f *fixture) (started, release chan struct{}) {
	started, release = make(chan struct{}), make(chan struct{})
	var once sync.Once
	f.stock.beforeAdjust = func(int, adjustCall) error {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-release
		}
		return nil
	}
	return started, release
}

// Dos ediciones concurrentes de la misma fila: la segunda espera el bloqueo y calcula su
// neto sobre la cantidad que dejó confirmada la primera.
func TestUpdate_EdicionesConcurrentesSeSerializan(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)
	started, release := blockFirstAdjust(f)
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() {
		_, err := f.saga.Update(ctx, m.ID, sale(1, 5))
		errs <- err
	}()
	<-started
	go func() {
		_, err := f.saga.Update(ctx, m.ID, sale(1, 6))
		errs <- err
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, f.stock.Calls(), 1, "la segunda edición no toca el catálogo mientras la primera tiene la fila")
	close(release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	stored, err := f.query.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 6, stored.Quantity)
	assert.Equal(t, 10-stored.Quantity, f.stockOf(t, 1), "catálogo y libro coinciden")

	calls := f.stock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, calls[0].Quantity)
	assert.Equal(t, 1, calls[1].Quantity, "el segundo neto parte de la cantidad ya editada")
}

// Una baja concurrente con una edición revierte la cantidad editada y la edición no
// vuelve a publicar la fila borrada.
func TestUpdate_BajaConcurrenteRevierteCantidadEditada(t *testing.T) {
	f := newFixture(t)
	m := seedSale(t, f, 1, 3)
	started, release := blockFirstAdjust(f)
	ctx := context.Background()

	updateErr := make(chan error, 1)
	go func() {
		_, err := f.saga.Update(ctx, m.ID, sale(1, 5))
		updateErr <- err
	}()
	<-started
	deleteErr := make(chan error, 1)
	go func() { deleteErr <- f.saga.Delete(ctx, m.ID) }()

	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, <-updateErr)
	require.NoError(t, <-deleteErr)

	assert.Zero(t, f.rowCount(t))
	assert.Equal(t, 10, f.stockOf(t, 1))
}
