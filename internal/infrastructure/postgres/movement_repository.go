package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `movement_id, product_id, from_warehouse_id, to_warehouse_id, quantity, movement_type,
	reference_number, notes, created_by, movement_date`

// MovementRepo implementación del log de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                            entity.Movement
		movementType                 string
		reference, notes, createdBy *string
	)
	if err := row.Scan(&m.ID, &m.ProductID, &m.FromWarehouseID, &m.ToWarehouseID, &m.Quantity, &movementType,
		&reference, &notes, &createdBy, &m.MovementDate); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movementType)
	m.ReferenceNumber = derefString(reference)
	m.Notes = derefString(notes)
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}

// Append inserta el movimiento; movement_id sale de la secuencia y movement_date del reloj de la BD.
func (r *MovementRepo) Append(ctx context.Context, movement *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (
			product_id, from_warehouse_id, to_warehouse_id, quantity, movement_type,
			reference_number, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING movement_id, movement_date`
	err := r.q.QueryRow(ctx, query,
		movement.ProductID, movement.FromWarehouseID, movement.ToWarehouseID, movement.Quantity,
		string(movement.Type), nullString(movement.ReferenceNumber), nullString(movement.Notes),
		nullString(movement.CreatedBy),
	).Scan(&movement.ID, &movement.MovementDate)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id int64) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE movement_id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// List historial con filtros opcionales, más reciente primero.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE 1=1`
	var args []any
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		query += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	if filter.WarehouseID > 0 {
		args = append(args, filter.WarehouseID)
		query += fmt.Sprintf(" AND (from_warehouse_id = $%d OR to_warehouse_id = $%d)", len(args), len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND movement_type = $%d", len(args))
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY movement_date DESC, movement_id DESC LIMIT $%d", len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
