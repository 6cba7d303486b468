package repository

import (
	"context"

	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
)

// MovementFilter filtros para el historial. WarehouseID coincide con origen o destino.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	Type        entity.MovementType
	Limit       int
}

// MovementRepository define el puerto del log de movimientos (solo anexar).
type MovementRepository interface {
	// Append asigna ID y fecha y completa el registro recibido.
	Append(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id int64) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
}
