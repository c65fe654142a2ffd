package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-movimientos/pkg/config"
)

// testPool conecta a TEST_DATABASE_URL; sin esa variable las pruebas se omiten.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool, postgres.SchemaLedger))
	require.NoError(t, postgres.EnsureSchema(ctx, pool, postgres.SchemaCatalog))
	return pool
}

func insertProduct(t *testing.T, pool *pgxpool.Pool, stock int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO products (name, price, stock) VALUES ($1, $2, $3) RETURNING id`,
		"Café "+time.Now().Format(time.RFC3339Nano), decimal.RequireFromString("5.00"), stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestPostgres_RestaCondicionalConcurrente(t *testing.T) {
	pool := testPool(t)
	id := insertProduct(t, pool, 10)
	uc := catalog.NewStockUseCase(postgres.NewTxRunner(pool), postgres.NewProductRepository(pool))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.AdjustStock(ctx, id, dto.UpdateStockRequest{Operation: "subtract", Quantity: 3}, "")
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()

	p, err := uc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestPostgres_IdempotencyKey(t *testing.T) {
	pool := testPool(t)
	id := insertProduct(t, pool, 10)
	uc := catalog.NewStockUseCase(postgres.NewTxRunner(pool), postgres.NewProductRepository(pool))
	ctx := context.Background()
	key := "it-" + time.Now().Format(time.RFC3339Nano)

	for i := 0; i < 2; i++ {
		p, err := uc.AdjustStock(ctx, id, dto.UpdateStockRequest{Operation: "add", Quantity: 4}, key)
		require.NoError(t, err)
		assert.Equal(t, 14, p.Stock)
	}
}

func TestPostgres_MovimientosRollbackYList(t *testing.T) {
	pool := testPool(t)
	runner := postgres.NewTxRunner(pool)
	repo := postgres.NewMovementRepository(pool)
	ctx := context.Background()
	productID := insertProduct(t, pool, 0)

	newMovement := func() *entity.Movement {
		return &entity.Movement{
			TransactionDate: time.Now().UTC(),
			Type:            entity.MovementTypePurchase,
			ProductID:       productID,
			Quantity:        3,
			UnitPrice:       decimal.RequireFromString("2.10"),
			CreatedAt:       time.Now().UTC(),
		}
	}

	discarded := newMovement()
	err := runner.Run(ctx, func(r repository.MovementRepository) error {
		require.NoError(t, r.Create(ctx, discarded))
		return domain.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	got, err := repo.GetByID(ctx, discarded.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "el rollback descarta la fila")

	kept := newMovement()
	require.NoError(t, runner.Run(ctx, func(r repository.MovementRepository) error {
		return r.Create(ctx, kept)
	}))

	items, total, err := repo.List(ctx, repository.MovementFilter{ProductID: &productID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.True(t, decimal.RequireFromString("6.30").Equal(items[0].TotalPrice))

	assert.ErrorIs(t, repo.Delete(ctx, discarded.ID), domain.ErrMovementNotFound)
}

func TestPostgres_CommitAunqueLaPeticionSeCancele(t *testing.T) {
	pool := testPool(t)
	runner := postgres.NewTxRunner(pool)
	repo := postgres.NewMovementRepository(pool)
	productID := insertProduct(t, pool, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &entity.Movement{
		TransactionDate: time.Now().UTC(),
		Type:            entity.MovementTypePurchase,
		ProductID:       productID,
		Quantity:        1,
		UnitPrice:       decimal.RequireFromString("1.00"),
		CreatedAt:       time.Now().UTC(),
	}
	err := runner.Run(ctx, func(r repository.MovementRepository) error {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "el commit usa un contexto sin cancelación")
}

func TestPostgres_GetForUpdateBloqueaLaFila(t *testing.T) {
	pool := testPool(t)
	runner := postgres.NewTxRunner(pool)
	ctx := context.Background()
	productID := insertProduct(t, pool, 0)

	m := &entity.Movement{
		TransactionDate: time.Now().UTC(),
		Type:            entity.MovementTypePurchase,
		ProductID:       productID,
		Quantity:        2,
		UnitPrice:       decimal.RequireFromString("1.00"),
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, postgres.NewMovementRepository(pool).Create(ctx, m))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, func(r repository.MovementRepository) error {
			_, err := r.GetForUpdate(ctx, m.ID)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	err := runner.Run(waitCtx, func(r repository.MovementRepository) error {
		_, err := r.GetForUpdate(waitCtx, m.ID)
		return err
	})
	assert.Error(t, err, "otra tx espera el bloqueo hasta agotar su contexto")

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, runner.Run(ctx, func(r repository.MovementRepository) error {
		got, err := r.GetForUpdate(ctx, m.ID)
		assert.NotNil(t, got)
		return err
	}))
}
