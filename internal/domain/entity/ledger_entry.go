package entity

import "time"

// LedgerEntry representa el stock de un producto en una bodega (tabla inventory).
// Clave única (WarehouseID, ProductID). Solo la muta el procesador de movimientos.
type LedgerEntry struct {
	WarehouseID      int64
	ProductID        int64
	Quantity         int64 // unidades físicas en bodega
	ReservedQuantity int64 // comprometidas pero no despachadas; su productor es externo
	LastUpdated      time.Time
}

// Available devuelve la cantidad disponible para salidas y traslados.
func (e *LedgerEntry) Available() int64 {
	return e.Quantity - e.ReservedQuantity
}

// LowStockAlert producto por debajo de su nivel de reorden en una bodega.
type LowStockAlert struct {
	WarehouseID     int64
	WarehouseName   string
	ProductID       int64
	ProductCode     string
	ProductName     string
	CurrentQuantity int64
	ReorderLevel    int64
	Shortage        int64
}
