package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

var (
	_ catalog.TxRunner                     = (*Catalog)(nil)
	_ repository.ProductRepository         = (*Catalog)(nil)
	_ repository.StockAdjustmentRepository = (*catalogTx)(nil)
)

// Catalog catálogo de productos en memoria. Las transacciones se serializan con un mutex
// y se deshacen con una lista de undo si fn falla.
type Catalog struct {
	mu          sync.Mutex
	products    map[int64]entity.Product
	adjustments map[string]entity.StockAdjustment
	now         func() time.Time
}

// NewCatalog crea un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{
		products:    make(map[int64]entity.Product),
		adjustments: make(map[string]entity.StockAdjustment),
		now:         time.Now,
	}
}

// Put inserta o reemplaza un producto.
func (c *Catalog) Put(p entity.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = c.now().UTC()
	}
	c.products[p.ID] = p
}

// LoadSeedFile carga productos desde un archivo JSON (arreglo de entity.Product).
func (c *Catalog) LoadSeedFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("leer seed: %w", err)
	}
	var items []entity.Product
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, fmt.Errorf("decodificar seed: %w", err)
	}
	for _, p := range items {
		c.Put(p)
	}
	return len(items), nil
}

// RunCatalog ejecuta fn con acceso exclusivo al catálogo; si falla, deshace sus cambios.
func (c *Catalog) RunCatalog(ctx context.Context, fn func(productRepo repository.ProductRepository, adjRepo repository.StockAdjustmentRepository) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := &catalogTx{c: c}
	if err := fn(tx, tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// GetByID lectura fuera de tx.
func (c *Catalog) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (&catalogTx{c: c}).GetByID(ctx, id)
}

// AddStock ajuste fuera de tx.
func (c *Catalog) AddStock(ctx context.Context, id int64, quantity int) (*entity.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (&catalogTx{c: c}).AddStock(ctx, id, quantity)
}

// SubtractStock ajuste condicional fuera de tx.
func (c *Catalog) SubtractStock(ctx context.Context, id int64, quantity int) (*entity.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (&catalogTx{c: c}).SubtractStock(ctx, id, quantity)
}

// catalogTx opera sobre el catálogo con el mutex ya tomado.
type catalogTx struct {
	c    *Catalog
	undo []func()
}

func (t *catalogTx) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	p, ok := t.c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *catalogTx) AddStock(ctx context.Context, id int64, quantity int) (*entity.Product, error) {
	return t.apply(id, quantity)
}

func (t *catalogTx) SubtractStock(ctx context.Context, id int64, quantity int) (*entity.Product, error) {
	p, ok := t.c.products[id]
	if !ok {
		return nil, nil
	}
	if p.Stock < quantity {
		return nil, domain.ErrInsufficientStock
	}
	return t.apply(id, -quantity)
}

func (t *catalogTx) apply(id int64, delta int) (*entity.Product, error) {
	prev, ok := t.c.products[id]
	if !ok {
		return nil, nil
	}
	next := prev
	next.Stock += delta
	now := t.c.now().UTC()
	next.UpdatedAt = &now
	t.c.products[id] = next
	t.undo = append(t.undo, func() { t.c.products[id] = prev })
	return &next, nil
}

func (t *catalogTx) Get(_ context.Context, key string) (*entity.StockAdjustment, error) {
	a, ok := t.c.adjustments[key]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *catalogTx) Save(_ context.Context, adj *entity.StockAdjustment) error {
	if _, ok := t.c.adjustments[adj.IdempotencyKey]; ok {
		return domain.ErrDuplicateKey
	}
	t.c.adjustments[adj.IdempotencyKey] = *adj
	key := adj.IdempotencyKey
	t.undo = append(t.undo, func() { delete(t.c.adjustments, key) })
	return nil
}
