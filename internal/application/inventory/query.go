package inventory

import (
	"context"

	"github.com/jhoicas/warehouse-ledger/internal/domain"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
)

// Límites del historial de movimientos.
const (
	DefaultMovementLimit = 100
	MaxMovementLimit     = 500
)

// LedgerQueryUseCase lecturas de reporte sobre el ledger y el log (sin bloqueos).
type LedgerQueryUseCase struct {
	ledgerRepo repository.LedgerRepository
	movRepo    repository.MovementRepository
	alertRepo  repository.AlertRepository
}

// NewLedgerQueryUseCase construye el caso de uso. alertRepo puede ser nil (store en memoria).
func NewLedgerQueryUseCase(
	ledgerRepo repository.LedgerRepository,
	movRepo repository.MovementRepository,
	alertRepo repository.AlertRepository,
) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{ledgerRepo: ledgerRepo, movRepo: movRepo, alertRepo: alertRepo}
}

// ListLedger snapshot del ledger con filtros opcionales.
func (uc *LedgerQueryUseCase) ListLedger(ctx context.Context, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if filter.WarehouseID < 0 || filter.ProductID < 0 {
		return nil, domain.InvalidInput("filtros de ledger inválidos")
	}
	return uc.ledgerRepo.List(ctx, filter)
}

// GetLedgerEntry devuelve la fila (warehouse, product) o domain.ErrNotFound.
func (uc *LedgerQueryUseCase) GetLedgerEntry(ctx context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error) {
	if warehouseID <= 0 || productID <= 0 {
		return nil, domain.InvalidInput("warehouse_id y product_id deben ser mayores que 0")
	}
	entry, err := uc.ledgerRepo.Get(ctx, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

// ListMovements historial más reciente primero. Limit 0 usa el valor por defecto.
func (uc *LedgerQueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	if filter.Limit == 0 {
		filter.Limit = DefaultMovementLimit
	}
	if filter.Limit < 1 || filter.Limit > MaxMovementLimit {
		return nil, domain.InvalidInput("limit debe estar entre 1 y %d", MaxMovementLimit)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.InvalidInput("movement_type desconocido: %s", filter.Type)
	}
	return uc.movRepo.List(ctx, filter)
}

// GetMovement devuelve un movimiento por ID o domain.ErrNotFound.
func (uc *LedgerQueryUseCase) GetMovement(ctx context.Context, id int64) (*entity.Movement, error) {
	mov, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrNotFound
	}
	return mov, nil
}

// LowStockAlerts productos bajo su nivel de reorden.
func (uc *LedgerQueryUseCase) LowStockAlerts(ctx context.Context) ([]*entity.LowStockAlert, error) {
	if uc.alertRepo == nil {
		return []*entity.LowStockAlert{}, nil
	}
	return uc.alertRepo.LowStock(ctx)
}
