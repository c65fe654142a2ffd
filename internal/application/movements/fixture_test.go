package movements_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

type adjustCall struct {
	ProductID int64
	Op        entity.StockOperation
	Quantity  int
	Key       string
}

// stockDouble catálogo en proceso (StockUseCase sobre memoria) con inyección de fallos.
type stockDouble struct {
	uc *catalog.StockUseCase

	mu       sync.Mutex
	calls    []adjustCall
	fetchErr error
	// beforeAdjust se ejecuta antes de cada ajuste; si devuelve error el ajuste no se aplica.
	beforeAdjust func(n int, call adjustCall) error
}

func (d *stockDouble) Fetch(ctx context.Context, productID int64) (*entity.Product, error) {
	if d.fetchErr != nil {
		return nil, d.fetchErr
	}
	p, err := d.uc.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &entity.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}, nil
}

func (d *stockDouble) Adjust(ctx context.Context, productID int64, op entity.StockOperation, quantity int, key string) (*entity.Product, error) {
	call := adjustCall{ProductID: productID, Op: op, Quantity: quantity, Key: key}
	d.mu.Lock()
	n := len(d.calls)
	d.calls = append(d.calls, call)
	hook := d.beforeAdjust
	d.mu.Unlock()

	if hook != nil {
		if err := hook(n, call); err != nil {
			return nil, err
		}
	}
	p, err := d.uc.AdjustStock(ctx, productID, dto.UpdateStockRequest{Operation: string(op), Quantity: quantity}, key)
	if err != nil {
		return nil, err
	}
	return &entity.Product{ID: p.ID, Price: p.Price, Stock: p.Stock}, nil
}

func (d *stockDouble) Calls() []adjustCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]adjustCall(nil), d.calls...)
}

// commitFailRunner ejecuta fn completa pero la tx termina en rollback con err,
// como un commit que falla después de un ajuste remoto exitoso.
type commitFailRunner struct {
	ledger *memory.Ledger
	err    error
}

func (r commitFailRunner) Run(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error {
	return r.ledger.Run(ctx, func(movRepo repository.MovementRepository) error {
		if err := fn(movRepo); err != nil {
			return err
		}
		return r.err
	})
}

// cancelBeforeCommitRunner cancela el contexto de la petición cuando fn terminó bien,
// justo antes de que la tx se confirme.
type cancelBeforeCommitRunner struct {
	ledger *memory.Ledger
	cancel context.CancelFunc
}

func (r cancelBeforeCommitRunner) Run(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error {
	return r.ledger.Run(ctx, func(movRepo repository.MovementRepository) error {
		if err := fn(movRepo); err != nil {
			return err
		}
		r.cancel()
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	ledger *memory.Ledger
	store  *memory.Catalog
	stock  *stockDouble
	saga   *movements.Coordinator
	query  *movements.QueryUseCase
}

// newFixture producto 1: precio 5.00 stock 10; producto 2: precio 8.00 stock 4.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewCatalog()
	store.Put(entity.Product{ID: 1, Name: "Café", Price: decimal.RequireFromString("5.00"), Stock: 10})
	store.Put(entity.Product{ID: 2, Name: "Té", Price: decimal.RequireFromString("8.00"), Stock: 4})

	ledger := memory.NewLedger()
	stock := &stockDouble{uc: catalog.NewStockUseCase(store, store)}
	return &fixture{
		ledger: ledger,
		store:  store,
		stock:  stock,
		saga:   movements.NewCoordinator(ledger, stock, ledger, zerolog.Nop()),
		query:  movements.NewQueryUseCase(ledger, ledger),
	}
}

// withRunner reemplaza el TxRunner del coordinador conservando el resto.
func (f *fixture) withRunner(r movements.TxRunner) {
	f.saga = movements.NewCoordinator(r, f.stock, f.ledger, zerolog.Nop())
}

func (f *fixture) stockOf(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func (f *fixture) rowCount(t *testing.T) int {
	t.Helper()
	_, total, err := f.ledger.List(context.Background(), repository.MovementFilter{Limit: 100})
	require.NoError(t, err)
	return total
}

func (f *fixture) sagas(t *testing.T, state movements.SagaState) []*entity.SagaLog {
	t.Helper()
	logs, err := f.ledger.ListByState(context.Background(), string(state), 100)
	require.NoError(t, err)
	return logs
}

func sale(productID int64, qty int) movements.MovementInput {
	return movements.MovementInput{Type: entity.MovementTypeSale, ProductID: productID, Quantity: qty}
}

func purchase(productID int64, qty int) movements.MovementInput {
	return movements.MovementInput{Type: entity.MovementTypePurchase, ProductID: productID, Quantity: qty}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
