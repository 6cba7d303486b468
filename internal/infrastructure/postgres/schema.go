package postgres

import (
	"context"
	"fmt"
)

// schemaStatements DDL idempotente del ledger. warehouses y products son el catálogo mínimo
// que consultan las alertas de stock bajo; en despliegues reales ya existen.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS warehouses (
		warehouse_id   BIGSERIAL PRIMARY KEY,
		warehouse_name VARCHAR(200) NOT NULL,
		is_active      BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id    BIGSERIAL PRIMARY KEY,
		product_code  VARCHAR(50) NOT NULL UNIQUE,
		product_name  VARCHAR(200) NOT NULL,
		reorder_level BIGINT NOT NULL DEFAULT 0,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		warehouse_id      BIGINT NOT NULL,
		product_id        BIGINT NOT NULL,
		quantity          BIGINT NOT NULL DEFAULT 0,
		reserved_quantity BIGINT NOT NULL DEFAULT 0,
		last_updated      TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (warehouse_id, product_id),
		CONSTRAINT inventory_quantity_non_negative CHECK (quantity >= 0),
		CONSTRAINT inventory_reserved_non_negative CHECK (reserved_quantity >= 0),
		CONSTRAINT inventory_reserved_within_quantity CHECK (reserved_quantity <= quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		movement_id       BIGSERIAL PRIMARY KEY,
		product_id        BIGINT NOT NULL,
		from_warehouse_id BIGINT,
		to_warehouse_id   BIGINT,
		quantity          BIGINT NOT NULL CHECK (quantity > 0),
		movement_type     VARCHAR(20) NOT NULL
			CHECK (movement_type IN ('inbound', 'outbound', 'transfer', 'adjustment')),
		reference_number  VARCHAR(100),
		notes             TEXT,
		created_by        VARCHAR(100),
		movement_date     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements (product_id, movement_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_from ON stock_movements (from_warehouse_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_to ON stock_movements (to_warehouse_id)`,
	`CREATE TABLE IF NOT EXISTS movement_outbox (
		id           UUID PRIMARY KEY,
		movement_id  BIGINT NOT NULL REFERENCES stock_movements (movement_id),
		event_type   VARCHAR(100) NOT NULL,
		topic        VARCHAR(200) NOT NULL,
		message_key  VARCHAR(200) NOT NULL,
		payload      JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		published_at TIMESTAMPTZ,
		retry_count  INT NOT NULL DEFAULT 0,
		last_error   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movement_outbox_pending ON movement_outbox (created_at) WHERE published_at IS NULL`,
}

// Migrate crea las tablas del ledger si no existen.
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}
