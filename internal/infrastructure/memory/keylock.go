package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout se devuelve cuando una fila sigue bloqueada por otra transacción al vencer la espera.
var ErrLockTimeout = errors.New("lock wait timeout")

type ledgerKey struct {
	warehouseID int64
	productID   int64
}

// keyLocker un semáforo de capacidad 1 por clave (warehouse, product).
type keyLocker struct {
	mu    sync.Mutex
	slots map[ledgerKey]chan struct{}
}

func newKeyLocker() *keyLocker {
	return &keyLocker{slots: make(map[ledgerKey]chan struct{})}
}

func (l *keyLocker) slot(k ledgerKey) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[k]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[k] = ch
	}
	return ch
}

// acquire espera el bloqueo de k hasta timeout o cancelación de ctx.
func (l *keyLocker) acquire(ctx context.Context, k ledgerKey, timeout time.Duration) error {
	ch := l.slot(k)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrLockTimeout
	}
}

func (l *keyLocker) release(k ledgerKey) {
	<-l.slot(k)
}
