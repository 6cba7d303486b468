package repository

import (
	"context"

	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
)

// LedgerFilter filtros opcionales para listar el ledger (0 = sin filtro).
type LedgerFilter struct {
	WarehouseID int64
	ProductID   int64
}

// LedgerRepository define el puerto para leer y mutar stock por bodega+producto.
// Dentro de una transacción (TxRunner) GetForUpdate bloquea la fila hasta Commit/Rollback.
type LedgerRepository interface {
	// Get lectura simple; devuelve nil, nil si no existe la fila.
	Get(ctx context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error)
	// GetForUpdate lee y bloquea la fila (SELECT FOR UPDATE). Fuera de una transacción es una lectura simple.
	GetForUpdate(ctx context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error)
	// UpsertAdd suma delta a la cantidad. delta > 0 crea la fila si no existe; delta < 0 exige
	// fila existente (domain.ErrNotFound si no) previamente bloqueada y validada por el caller.
	UpsertAdd(ctx context.Context, warehouseID, productID, delta int64) (*entity.LedgerEntry, error)
	List(ctx context.Context, filter LedgerFilter) ([]*entity.LedgerEntry, error)
}

// AlertRepository consultas de reporte que cruzan el ledger con el catálogo externo.
type AlertRepository interface {
	LowStock(ctx context.Context) ([]*entity.LowStockAlert, error)
}
