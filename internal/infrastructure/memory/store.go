// Package memory implementa el ledger, el log de movimientos y el outbox en memoria.
// Respeta las mismas garantías que el adaptador PostgreSQL: bloqueo por fila hasta el fin
// de la transacción y escrituras visibles solo tras el commit.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/warehouse-ledger/internal/application/inventory"
	"github.com/jhoicas/warehouse-ledger/internal/domain"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
)

// DefaultLockTimeout espera máxima por una fila bloqueada si no se configura otra.
const DefaultLockTimeout = 5 * time.Second

var _ inventory.TxRunner = (*Store)(nil)

// Store estado confirmado del ledger, del log y del outbox.
type Store struct {
	mu        sync.RWMutex
	ledger    map[ledgerKey]entity.LedgerEntry
	movements []*entity.Movement
	outbox    []*entity.OutboxEvent

	nextMovementID atomic.Int64
	locks          *keyLocker
	lockTimeout    time.Duration
	now            func() time.Time
}

// NewStore crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		ledger:      make(map[ledgerKey]entity.LedgerEntry),
		locks:       newKeyLocker(),
		lockTimeout: lockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Seed fija una fila del ledger tal cual (incluido reserved_quantity, cuyo productor es externo).
func (s *Store) Seed(entry entity.LedgerEntry) error {
	if err := checkEntry(entry); err != nil {
		return err
	}
	if entry.LastUpdated.IsZero() {
		entry.LastUpdated = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger[ledgerKey{entry.WarehouseID, entry.ProductID}] = entry
	return nil
}

// Run ejecuta fn en una transacción: bloqueos por fila, escrituras en buffer y commit atómico.
func (s *Store) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movRepo repository.MovementRepository,
	outboxRepo repository.OutboxRepository,
) error) error {
	tx := s.begin()
	defer tx.release()

	if err := fn(&LedgerRepo{s: s, tx: tx}, &MovementRepo{s: s, tx: tx}, &OutboxRepo{s: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	tx.commit()
	return nil
}

// LedgerRepository vista sin transacción: cada escritura se confirma sola.
func (s *Store) LedgerRepository() *LedgerRepo { return &LedgerRepo{s: s} }

// MovementRepository vista sin transacción del log.
func (s *Store) MovementRepository() *MovementRepo { return &MovementRepo{s: s} }

// OutboxRepository vista sin transacción del outbox (la usa el relay).
func (s *Store) OutboxRepository() *OutboxRepo { return &OutboxRepo{s: s} }

func (s *Store) committedEntry(k ledgerKey) (entity.LedgerEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.ledger[k]
	return e, ok
}

// autocommit ejecuta fn en su propia transacción.
func (s *Store) autocommit(ctx context.Context, fn func(tx *txn) error) error {
	tx := s.begin()
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func checkEntry(e entity.LedgerEntry) error {
	if e.Quantity < 0 || e.ReservedQuantity < 0 || e.ReservedQuantity > e.Quantity {
		return fmt.Errorf("ledger entry (%d, %d) violates quantity constraints: quantity %d, reserved %d",
			e.WarehouseID, e.ProductID, e.Quantity, e.ReservedQuantity)
	}
	return nil
}

// txn bloqueos tomados y escrituras pendientes de una transacción.
type txn struct {
	s         *Store
	held      map[ledgerKey]struct{}
	ledger    map[ledgerKey]entity.LedgerEntry
	movements []*entity.Movement
	outbox    []*entity.OutboxEvent
	at        time.Time
	done      bool
}

// now marca de tiempo de la transacción: todas sus escrituras comparten la misma,
// como now() en PostgreSQL.
func (tx *txn) now() time.Time {
	if tx.at.IsZero() {
		tx.at = tx.s.now()
	}
	return tx.at
}

func (s *Store) begin() *txn {
	return &txn{
		s:      s,
		held:   make(map[ledgerKey]struct{}),
		ledger: make(map[ledgerKey]entity.LedgerEntry),
	}
}

func (tx *txn) lock(ctx context.Context, k ledgerKey) error {
	if _, ok := tx.held[k]; ok {
		return nil
	}
	if err := tx.s.locks.acquire(ctx, k, tx.s.lockTimeout); err != nil {
		return fmt.Errorf("lock ledger entry (%d, %d): %w", k.warehouseID, k.productID, err)
	}
	tx.held[k] = struct{}{}
	return nil
}

// read ve primero lo escrito por la propia transacción.
func (tx *txn) read(k ledgerKey) (entity.LedgerEntry, bool) {
	if e, ok := tx.ledger[k]; ok {
		return e, true
	}
	return tx.s.committedEntry(k)
}

func (tx *txn) commit() {
	s := tx.s
	s.mu.Lock()
	for k, e := range tx.ledger {
		s.ledger[k] = e
	}
	s.movements = append(s.movements, tx.movements...)
	s.outbox = append(s.outbox, tx.outbox...)
	s.mu.Unlock()
	tx.done = true
}

// release libera los bloqueos; sin commit previo descarta el buffer (rollback).
func (tx *txn) release() {
	for k := range tx.held {
		tx.s.locks.release(k)
	}
	tx.held = nil
	if !tx.done {
		tx.ledger = nil
		tx.movements = nil
		tx.outbox = nil
	}
}

// LedgerRepo implementa repository.LedgerRepository. tx nil = sin transacción.
type LedgerRepo struct {
	s  *Store
	tx *txn
}

var (
	_ repository.LedgerRepository = (*LedgerRepo)(nil)
	_ repository.AlertRepository  = (*LedgerRepo)(nil)
)

func (r *LedgerRepo) Get(_ context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error) {
	k := ledgerKey{warehouseID, productID}
	var (
		e  entity.LedgerEntry
		ok bool
	)
	if r.tx != nil {
		e, ok = r.tx.read(k)
	} else {
		e, ok = r.s.committedEntry(k)
	}
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *LedgerRepo) GetForUpdate(ctx context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, ledgerKey{warehouseID, productID}); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, warehouseID, productID)
}

func (r *LedgerRepo) UpsertAdd(ctx context.Context, warehouseID, productID, delta int64) (*entity.LedgerEntry, error) {
	if delta == 0 {
		return nil, fmt.Errorf("upsert ledger entry: %w", domain.ErrInvalidInput)
	}
	if r.tx == nil {
		var out *entity.LedgerEntry
		err := r.s.autocommit(ctx, func(tx *txn) error {
			var err error
			out, err = upsertAdd(ctx, tx, warehouseID, productID, delta)
			return err
		})
		return out, err
	}
	return upsertAdd(ctx, r.tx, warehouseID, productID, delta)
}

func upsertAdd(ctx context.Context, tx *txn, warehouseID, productID, delta int64) (*entity.LedgerEntry, error) {
	k := ledgerKey{warehouseID, productID}
	if err := tx.lock(ctx, k); err != nil {
		return nil, err
	}
	e, ok := tx.read(k)
	if !ok {
		if delta < 0 {
			return nil, fmt.Errorf("decrement ledger entry (%d, %d): %w", warehouseID, productID, domain.ErrNotFound)
		}
		e = entity.LedgerEntry{WarehouseID: warehouseID, ProductID: productID}
	}
	if delta > 0 && e.Quantity > math.MaxInt64-delta {
		return nil, fmt.Errorf("upsert ledger entry (%d, %d): %w", warehouseID, productID,
			domain.InvalidInput("la cantidad resultante excede el máximo representable"))
	}
	e.Quantity += delta
	e.LastUpdated = tx.now()
	if err := checkEntry(e); err != nil {
		return nil, err
	}
	tx.ledger[k] = e
	return &e, nil
}

func (r *LedgerRepo) List(_ context.Context, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	list := make([]*entity.LedgerEntry, 0, len(r.s.ledger))
	for _, e := range r.s.ledger {
		if filter.WarehouseID > 0 && e.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ProductID > 0 && e.ProductID != filter.ProductID {
			continue
		}
		e := e
		list = append(list, &e)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].WarehouseID != list[j].WarehouseID {
			return list[i].WarehouseID < list[j].WarehouseID
		}
		return list[i].ProductID < list[j].ProductID
	})
	return list, nil
}

// LowStock sin catálogo de productos no hay reorder_level contra el que comparar.
func (r *LedgerRepo) LowStock(_ context.Context) ([]*entity.LowStockAlert, error) {
	return []*entity.LowStockAlert{}, nil
}

// MovementRepo implementa repository.MovementRepository.
type MovementRepo struct {
	s  *Store
	tx *txn
}

var _ repository.MovementRepository = (*MovementRepo)(nil)

// Append asigna movement_id y movement_date. El ID sale de un contador global:
// una transacción revertida deja un hueco en la secuencia, igual que BIGSERIAL.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.Movement) error {
	if movement.Quantity <= 0 || !movement.Type.Valid() {
		return fmt.Errorf("append stock movement: %w", domain.InvalidInput("movimiento inválido"))
	}
	if r.tx == nil {
		return r.s.autocommit(ctx, func(tx *txn) error {
			appendMovement(tx, movement)
			return nil
		})
	}
	appendMovement(r.tx, movement)
	return nil
}

func appendMovement(tx *txn, movement *entity.Movement) {
	movement.ID = tx.s.nextMovementID.Add(1)
	movement.MovementDate = tx.now()
	stored := *movement
	tx.movements = append(tx.movements, &stored)
}

func (r *MovementRepo) GetByID(_ context.Context, id int64) (*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			out := *m
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) List(_ context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	list := make([]*entity.Movement, 0)
	for _, m := range r.s.movements {
		if filter.ProductID > 0 && m.ProductID != filter.ProductID {
			continue
		}
		if filter.WarehouseID > 0 && !touches(m, filter.WarehouseID) {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out := *m
		list = append(list, &out)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].MovementDate.Equal(list[j].MovementDate) {
			return list[i].MovementDate.After(list[j].MovementDate)
		}
		return list[i].ID > list[j].ID
	})
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func touches(m *entity.Movement, warehouseID int64) bool {
	return (m.FromWarehouseID != nil && *m.FromWarehouseID == warehouseID) ||
		(m.ToWarehouseID != nil && *m.ToWarehouseID == warehouseID)
}

// OutboxRepo implementa repository.OutboxRepository.
type OutboxRepo struct {
	s  *Store
	tx *txn
}

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

func (r *OutboxRepo) Add(ctx context.Context, event *entity.OutboxEvent) error {
	stored := *event
	if r.tx == nil {
		return r.s.autocommit(ctx, func(tx *txn) error {
			tx.outbox = append(tx.outbox, &stored)
			return nil
		})
	}
	r.tx.outbox = append(r.tx.outbox, &stored)
	return nil
}

func (r *OutboxRepo) FetchPending(_ context.Context, limit, maxRetries int) ([]*entity.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.OutboxEvent, 0)
	for _, e := range r.s.outbox {
		if e.IsPublished() || e.RetryCount >= maxRetries {
			continue
		}
		out := *e
		list = append(list, &out)
		if limit > 0 && len(list) == limit {
			break
		}
	}
	return list, nil
}

func (r *OutboxRepo) MarkPublished(_ context.Context, id string) error {
	return r.s.updateOutbox(id, func(e *entity.OutboxEvent) {
		now := r.s.now()
		e.PublishedAt = &now
		e.LastError = ""
	})
}

func (r *OutboxRepo) MarkFailed(_ context.Context, id, reason string) error {
	return r.s.updateOutbox(id, func(e *entity.OutboxEvent) {
		e.RetryCount++
		e.LastError = reason
	})
}

func (s *Store) updateOutbox(id string, fn func(e *entity.OutboxEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.outbox {
		if e.ID == id {
			fn(e)
			return nil
		}
	}
	return fmt.Errorf("outbox event %s: %w", id, domain.ErrNotFound)
}
