package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("fallo de almacenamiento")
	ErrUnauthorized      = errors.New("no autorizado")
)

// InsufficientStockError describe el faltante exacto de un movimiento rechazado.
// Available es el disponible (cantidad - reservado) leído bajo bloqueo; 0 si la fila no existe.
type InsufficientStockError struct {
	ProductID   int64
	WarehouseID int64
	Available   int64
	Required    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %d en bodega %d: disponible %d, requerido %d",
		e.ProductID, e.WarehouseID, e.Available, e.Required)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// StorageError envuelve un fallo de infraestructura ocurrido dentro de la unidad atómica.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrStorage) sin perder la causa original.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// InvalidInput construye un error de validación con detalle, comparable con ErrInvalidInput.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
