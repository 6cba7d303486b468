package entity

import (
	"encoding/json"
	"time"
)

// OutboxEvent evento de movimiento pendiente de publicar.
// Se escribe en la misma transacción que el movimiento; el relay lo publica después del commit.
type OutboxEvent struct {
	ID          string
	MovementID  int64
	EventType   string
	Topic       string
	Key         string
	Payload     json.RawMessage
	CreatedAt   time.Time
	PublishedAt *time.Time
	RetryCount  int
	LastError   string
}

// IsPublished indica si el evento ya salió hacia el broker.
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}
