package dto

import (
	"time"

	"github.com/jhoicas/warehouse-ledger/internal/application/inventory"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
)

// MovementMetadataRequest campos opcionales comunes a todos los movimientos.
type MovementMetadataRequest struct {
	ReferenceNumber string `json:"reference_number" validate:"max=100"`
	Notes           string `json:"notes"`
	CreatedBy       string `json:"created_by" validate:"max=100"`
}

func (m MovementMetadataRequest) toEntity() entity.MovementMetadata {
	return entity.MovementMetadata{ReferenceNumber: m.ReferenceNumber, Notes: m.Notes, CreatedBy: m.CreatedBy}
}

// InboundRequest body para POST /api/v1/inventory/movements/inbound.
type InboundRequest struct {
	ProductID     int64 `json:"product_id" validate:"required,gt=0"`
	ToWarehouseID int64 `json:"to_warehouse_id" validate:"required,gt=0"`
	Quantity      int64 `json:"quantity" validate:"required,gt=0"`
	MovementMetadataRequest
}

// ToInput convierte al input del procesador.
func (r InboundRequest) ToInput() inventory.InboundInput {
	return inventory.InboundInput{ProductID: r.ProductID, ToWarehouseID: r.ToWarehouseID, Quantity: r.Quantity, Metadata: r.toEntity()}
}

// OutboundRequest body para POST /api/v1/inventory/movements/outbound.
type OutboundRequest struct {
	ProductID       int64 `json:"product_id" validate:"required,gt=0"`
	FromWarehouseID int64 `json:"from_warehouse_id" validate:"required,gt=0"`
	Quantity        int64 `json:"quantity" validate:"required,gt=0"`
	MovementMetadataRequest
}

// ToInput convierte al input del procesador.
func (r OutboundRequest) ToInput() inventory.OutboundInput {
	return inventory.OutboundInput{ProductID: r.ProductID, FromWarehouseID: r.FromWarehouseID, Quantity: r.Quantity, Metadata: r.toEntity()}
}

// TransferRequest body para POST /api/v1/inventory/movements/transfer.
type TransferRequest struct {
	ProductID       int64 `json:"product_id" validate:"required,gt=0"`
	FromWarehouseID int64 `json:"from_warehouse_id" validate:"required,gt=0"`
	ToWarehouseID   int64 `json:"to_warehouse_id" validate:"required,gt=0,nefield=FromWarehouseID"`
	Quantity        int64 `json:"quantity" validate:"required,gt=0"`
	MovementMetadataRequest
}

// ToInput convierte al input del procesador.
func (r TransferRequest) ToInput() inventory.TransferInput {
	return inventory.TransferInput{
		ProductID: r.ProductID, FromWarehouseID: r.FromWarehouseID, ToWarehouseID: r.ToWarehouseID,
		Quantity: r.Quantity, Metadata: r.toEntity(),
	}
}

// AdjustmentRequest body para POST /api/v1/inventory/movements/adjustment. Delta positivo suma, negativo resta.
type AdjustmentRequest struct {
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	WarehouseID int64 `json:"warehouse_id" validate:"required,gt=0"`
	Delta       int64 `json:"delta" validate:"required,ne=0"`
	MovementMetadataRequest
}

// ToInput convierte al input del procesador.
func (r AdjustmentRequest) ToInput() inventory.AdjustmentInput {
	return inventory.AdjustmentInput{ProductID: r.ProductID, WarehouseID: r.WarehouseID, Delta: r.Delta, Metadata: r.toEntity()}
}

// MovementResponse registro del log tal como quedó confirmado.
type MovementResponse struct {
	MovementID      int64     `json:"movement_id"`
	ProductID       int64     `json:"product_id"`
	FromWarehouseID *int64    `json:"from_warehouse_id"`
	ToWarehouseID   *int64    `json:"to_warehouse_id"`
	Quantity        int64     `json:"quantity"`
	MovementType    string    `json:"movement_type"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
	MovementDate    time.Time `json:"movement_date"`
}

// MovementFromEntity mapea un movimiento a su respuesta.
func MovementFromEntity(m *entity.Movement) MovementResponse {
	return MovementResponse{
		MovementID:      m.ID,
		ProductID:       m.ProductID,
		FromWarehouseID: m.FromWarehouseID,
		ToWarehouseID:   m.ToWarehouseID,
		Quantity:        m.Quantity,
		MovementType:    string(m.Type),
		ReferenceNumber: m.ReferenceNumber,
		Notes:           m.Notes,
		CreatedBy:       m.CreatedBy,
		MovementDate:    m.MovementDate,
	}
}

// MovementsFromEntities mapea una lista.
func MovementsFromEntities(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// LedgerEntryResponse stock de un producto en una bodega.
type LedgerEntryResponse struct {
	WarehouseID      int64     `json:"warehouse_id"`
	ProductID        int64     `json:"product_id"`
	Quantity         int64     `json:"quantity"`
	ReservedQuantity int64     `json:"reserved_quantity"`
	Available        int64     `json:"available"`
	LastUpdated      time.Time `json:"last_updated"`
}

// LedgerEntryFromEntity mapea una fila del ledger.
func LedgerEntryFromEntity(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		WarehouseID:      e.WarehouseID,
		ProductID:        e.ProductID,
		Quantity:         e.Quantity,
		ReservedQuantity: e.ReservedQuantity,
		Available:        e.Available(),
		LastUpdated:      e.LastUpdated,
	}
}

// LedgerEntriesFromEntities mapea una lista.
func LedgerEntriesFromEntities(list []*entity.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, LedgerEntryFromEntity(e))
	}
	return out
}

// LowStockAlertResponse producto bajo su nivel de reorden.
type LowStockAlertResponse struct {
	WarehouseID     int64  `json:"warehouse_id"`
	WarehouseName   string `json:"warehouse_name"`
	ProductID       int64  `json:"product_id"`
	ProductCode     string `json:"product_code"`
	ProductName     string `json:"product_name"`
	CurrentQuantity int64  `json:"current_quantity"`
	ReorderLevel    int64  `json:"reorder_level"`
	Shortage        int64  `json:"shortage"`
}

// LowStockAlertsFromEntities mapea una lista.
func LowStockAlertsFromEntities(list []*entity.LowStockAlert) []LowStockAlertResponse {
	out := make([]LowStockAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, LowStockAlertResponse{
			WarehouseID:     a.WarehouseID,
			WarehouseName:   a.WarehouseName,
			ProductID:       a.ProductID,
			ProductCode:     a.ProductCode,
			ProductName:     a.ProductName,
			CurrentQuantity: a.CurrentQuantity,
			ReorderLevel:    a.ReorderLevel,
			Shortage:        a.Shortage,
		})
	}
	return out
}
