package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
)

var (
	_ movements.TxRunner            = (*Ledger)(nil)
	_ repository.MovementRepository = (*Ledger)(nil)
	_ repository.SagaLogRepository  = (*Ledger)(nil)
)

// Ledger libro de movimientos en memoria (modo STORAGE=memory y pruebas).
// Las escrituras hechas dentro de Run quedan en un área privada de la tx y solo se
// publican en Commit; fuera de Run las lecturas ven únicamente lo confirmado.
// Como en PostgreSQL, una tx que lee con GetForUpdate, edita o borra una fila la
// bloquea hasta terminar; otra tx sobre la misma fila espera.
type Ledger struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]entity.Movement
	locks  map[int64]chan struct{}
	sagas  []*entity.SagaLog
}

// NewLedger crea un libro vacío.
func NewLedger() *Ledger {
	return &Ledger{
		rows:  make(map[int64]entity.Movement),
		locks: make(map[int64]chan struct{}),
	}
}

// Run ejecuta fn sobre una tx aislada; si fn devuelve nil publica los cambios.
// Los bloqueos de fila se liberan después de publicar o descartar.
func (l *Ledger) Run(ctx context.Context, fn func(movRepo repository.MovementRepository) error) error {
	tx := &ledgerTx{
		l:       l,
		upserts: make(map[int64]entity.Movement),
		deletes: make(map[int64]bool),
		held:    make(map[int64]chan struct{}),
	}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for id := range tx.deletes {
		delete(l.rows, id)
	}
	for id, m := range tx.upserts {
		l.rows[id] = m
	}
	return nil
}

func (l *Ledger) rowLock(id int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[id] = ch
	}
	return ch
}

func (l *Ledger) allocID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return l.nextID
}

func (l *Ledger) committed(id int64) (entity.Movement, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.rows[id]
	return m, ok
}

// Create inserta fuera de tx (confirmado de inmediato).
func (l *Ledger) Create(ctx context.Context, m *entity.Movement) error {
	return l.Run(ctx, func(r repository.MovementRepository) error { return r.Create(ctx, m) })
}

// GetByID devuelve el movimiento confirmado; nil si no existe.
func (l *Ledger) GetByID(_ context.Context, id int64) (*entity.Movement, error) {
	m, ok := l.committed(id)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// GetForUpdate fuera de tx no bloquea nada: equivale a GetByID.
func (l *Ledger) GetForUpdate(ctx context.Context, id int64) (*entity.Movement, error) {
	return l.GetByID(ctx, id)
}

// Update actualiza fuera de tx.
func (l *Ledger) Update(ctx context.Context, m *entity.Movement) error {
	return l.Run(ctx, func(r repository.MovementRepository) error { return r.Update(ctx, m) })
}

// Delete elimina fuera de tx.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	return l.Run(ctx, func(r repository.MovementRepository) error { return r.Delete(ctx, id) })
}

// List aplica filtros, orden por fecha descendente y paginación sobre lo confirmado.
func (l *Ledger) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	l.mu.RLock()
	matched := make([]entity.Movement, 0, len(l.rows))
	for _, m := range l.rows {
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if f.From != nil && m.TransactionDate.Before(*f.From) {
			continue
		}
		if f.To != nil && m.TransactionDate.After(*f.To) {
			continue
		}
		matched = append(matched, m)
	}
	l.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].TransactionDate.Equal(matched[j].TransactionDate) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].TransactionDate.After(matched[j].TransactionDate)
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	out := make([]*entity.Movement, 0, end-start)
	for i := start; i < end; i++ {
		m := matched[i]
		out = append(out, &m)
	}
	return out, total, nil
}

// Save agrega una saga a la bitácora.
func (l *Ledger) Save(_ context.Context, s *entity.SagaLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *s
	l.sagas = append(l.sagas, &cp)
	return nil
}

// ListByState devuelve las sagas de un estado, más recientes primero.
func (l *Ledger) ListByState(_ context.Context, state string, limit int) ([]*entity.SagaLog, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*entity.SagaLog
	for i := len(l.sagas) - 1; i >= 0 && len(out) < limit; i-- {
		if l.sagas[i].State == state {
			cp := *l.sagas[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ledgerTx repositorio atado a una tx en memoria.
type ledgerTx struct {
	l       *Ledger
	upserts map[int64]entity.Movement
	deletes map[int64]bool
	held    map[int64]chan struct{}
}

// lock toma el bloqueo de la fila (reentrante dentro de la misma tx) o falla si ctx termina antes.
func (t *ledgerTx) lock(ctx context.Context, id int64) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := t.l.rowLock(id)
	select {
	case ch <- struct{}{}:
		t.held[id] = ch
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ledgerTx) release() {
	for id, ch := range t.held {
		<-ch
		delete(t.held, id)
	}
}

func (t *ledgerTx) lookup(id int64) (entity.Movement, bool) {
	if t.deletes[id] {
		return entity.Movement{}, false
	}
	if m, ok := t.upserts[id]; ok {
		return m, true
	}
	return t.l.committed(id)
}

func (t *ledgerTx) Create(_ context.Context, m *entity.Movement) error {
	m.Recalculate()
	m.ID = t.l.allocID()
	t.upserts[m.ID] = *m
	return nil
}

func (t *ledgerTx) GetByID(_ context.Context, id int64) (*entity.Movement, error) {
	m, ok := t.lookup(id)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (t *ledgerTx) GetForUpdate(ctx context.Context, id int64) (*entity.Movement, error) {
	if err := t.lock(ctx, id); err != nil {
		return nil, err
	}
	return t.GetByID(ctx, id)
}

func (t *ledgerTx) Update(ctx context.Context, m *entity.Movement) error {
	if err := t.lock(ctx, m.ID); err != nil {
		return err
	}
	if _, ok := t.lookup(m.ID); !ok {
		return domain.ErrMovementNotFound
	}
	m.Recalculate()
	t.upserts[m.ID] = *m
	return nil
}

func (t *ledgerTx) Delete(ctx context.Context, id int64) error {
	if err := t.lock(ctx, id); err != nil {
		return err
	}
	if _, ok := t.lookup(id); !ok {
		return domain.ErrMovementNotFound
	}
	delete(t.upserts, id)
	t.deletes[id] = true
	return nil
}

func (t *ledgerTx) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	return t.l.List(ctx, f)
}
