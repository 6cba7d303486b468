package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/warehouse-ledger/internal/domain"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
)

var (
	_ repository.LedgerRepository = (*LedgerRepo)(nil)
	_ repository.AlertRepository  = (*LedgerRepo)(nil)
)

const ledgerColumns = `warehouse_id, product_id, quantity, reserved_quantity, last_updated`

// LedgerRepo implementación de LedgerRepository sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	if err := row.Scan(&e.WarehouseID, &e.ProductID, &e.Quantity, &e.ReservedQuantity, &e.LastUpdated); err != nil {
		return nil, err
	}
	return &e, nil
}

// Get obtiene la fila (warehouse, product); nil si no existe.
func (r *LedgerRepo) Get(ctx context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM inventory WHERE warehouse_id = $1 AND product_id = $2`
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, query, warehouseID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// GetForUpdate obtiene la fila y la bloquea para update (SELECT FOR UPDATE).
// Con el pool (sin tx explícita) el bloqueo se libera al terminar la sentencia.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, warehouseID, productID int64) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM inventory WHERE warehouse_id = $1 AND product_id = $2 FOR UPDATE`
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, query, warehouseID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry for update: %w", err)
	}
	return e, nil
}

// UpsertAdd suma delta a la cantidad. Con delta > 0 usa INSERT ... ON CONFLICT (crea o acumula);
// con delta < 0 solo actualiza una fila existente.
func (r *LedgerRepo) UpsertAdd(ctx context.Context, warehouseID, productID, delta int64) (*entity.LedgerEntry, error) {
	if delta == 0 {
		return nil, fmt.Errorf("upsert ledger entry: %w", domain.ErrInvalidInput)
	}
	var query string
	if delta > 0 {
		query = `
			INSERT INTO inventory (warehouse_id, product_id, quantity, last_updated)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (warehouse_id, product_id)
			DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, last_updated = now()
			RETURNING ` + ledgerColumns
	} else {
		query = `
			UPDATE inventory
			SET quantity = quantity + $3, last_updated = now()
			WHERE warehouse_id = $1 AND product_id = $2
			RETURNING ` + ledgerColumns
	}
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, query, warehouseID, productID, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("decrement ledger entry (%d, %d): %w", warehouseID, productID, domain.ErrNotFound)
		}
		if isOutOfRange(err) {
			return nil, fmt.Errorf("upsert ledger entry (%d, %d): %w", warehouseID, productID,
				domain.InvalidInput("la cantidad resultante excede el máximo representable"))
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("upsert ledger entry (%d, %d) violates quantity constraints: %w", warehouseID, productID, err)
		}
		return nil, fmt.Errorf("upsert ledger entry: %w", err)
	}
	return e, nil
}

// List devuelve el snapshot del ledger ordenado por bodega y producto.
func (r *LedgerRepo) List(ctx context.Context, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM inventory WHERE 1=1`
	var args []any
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		query += fmt.Sprintf(" AND warehouse_id = $%d", len(args))
	}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		query += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	query += " ORDER BY warehouse_id, product_id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// LowStock productos cuyo stock en una bodega está bajo su reorder_level.
// warehouses y products pertenecen al catálogo; aquí solo se leen.
func (r *LedgerRepo) LowStock(ctx context.Context) ([]*entity.LowStockAlert, error) {
	query := `
		SELECT
			i.warehouse_id,
			w.warehouse_name,
			i.product_id,
			p.product_code,
			p.product_name,
			i.quantity,
			p.reorder_level,
			(p.reorder_level - i.quantity) AS shortage
		FROM inventory i
		JOIN warehouses w ON w.warehouse_id = i.warehouse_id
		JOIN products p ON p.product_id = i.product_id
		WHERE i.quantity < p.reorder_level
		  AND w.is_active = TRUE
		  AND p.is_active = TRUE
		ORDER BY shortage DESC, w.warehouse_name, p.product_name`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("low stock alerts: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.LowStockAlert, 0)
	for rows.Next() {
		var a entity.LowStockAlert
		if err := rows.Scan(&a.WarehouseID, &a.WarehouseName, &a.ProductID, &a.ProductCode, &a.ProductName,
			&a.CurrentQuantity, &a.ReorderLevel, &a.Shortage); err != nil {
			return nil, fmt.Errorf("scan low stock alert: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
