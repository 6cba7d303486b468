package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo eventos de movimiento pendientes (tabla movement_outbox).
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Add inserta el evento; dentro de la tx del movimiento se revierte junto con él.
func (r *OutboxRepo) Add(ctx context.Context, event *entity.OutboxEvent) error {
	query := `
		INSERT INTO movement_outbox (id, movement_id, event_type, topic, message_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		event.ID, event.MovementID, event.EventType, event.Topic, event.Key, []byte(event.Payload), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("add outbox event: %w", err)
	}
	return nil
}

// FetchPending eventos no publicados, en orden de creación.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit, maxRetries int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, movement_id, event_type, topic, message_key, payload, created_at, published_at, retry_count, COALESCE(last_error, '')
		FROM movement_outbox
		WHERE published_at IS NULL AND retry_count < $1
		ORDER BY created_at, movement_id
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox events: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.OutboxEvent, 0)
	for rows.Next() {
		var (
			e       entity.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.MovementID, &e.EventType, &e.Topic, &e.Key, &payload,
			&e.CreatedAt, &e.PublishedAt, &e.RetryCount, &e.LastError); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		e.Payload = payload
		list = append(list, &e)
	}
	return list, rows.Err()
}

// MarkPublished marca el evento como publicado.
func (r *OutboxRepo) MarkPublished(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE movement_outbox SET published_at = now(), last_error = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}

// MarkFailed incrementa retry_count y guarda el último error.
func (r *OutboxRepo) MarkFailed(ctx context.Context, id, reason string) error {
	_, err := r.q.Exec(ctx, `UPDATE movement_outbox SET retry_count = retry_count + 1, last_error = $2 WHERE id = $1`, id, reason)
	if err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	return nil
}
