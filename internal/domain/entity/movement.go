package entity

import "time"

// MovementType tipo de movimiento de inventario.
type MovementType string

const (
	MovementTypeInbound    MovementType = "inbound"    // recepción
	MovementTypeOutbound   MovementType = "outbound"   // despacho
	MovementTypeTransfer   MovementType = "transfer"   // traslado entre bodegas
	MovementTypeAdjustment MovementType = "adjustment" // ajuste de conteo
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeInbound, MovementTypeOutbound, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// Movement registro inmutable del log de movimientos (tabla stock_movements).
// FromWarehouseID es nil en entradas; ToWarehouseID es nil en salidas.
type Movement struct {
	ID              int64
	ProductID       int64
	FromWarehouseID *int64
	ToWarehouseID   *int64
	Quantity        int64 // siempre > 0; la dirección la dan from/to
	Type            MovementType
	ReferenceNumber string
	Notes           string
	CreatedBy       string
	MovementDate    time.Time
}

// MovementMetadata datos opcionales sin efecto en el cálculo del ledger.
type MovementMetadata struct {
	ReferenceNumber string
	Notes           string
	CreatedBy       string
}
