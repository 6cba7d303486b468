package repository

import (
	"context"

	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
)

// OutboxRepository persistencia de eventos pendientes de publicar.
type OutboxRepository interface {
	Add(ctx context.Context, event *entity.OutboxEvent) error
	// FetchPending devuelve eventos no publicados con retry_count < maxRetries, más antiguos primero.
	FetchPending(ctx context.Context, limit, maxRetries int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
}
