// Package kafka publica los eventos del outbox en Kafka.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/warehouse-ledger/internal/application/outbox"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
)

var _ outbox.Publisher = (*Publisher)(nil)

// Publisher escritor síncrono; cada evento lleva el tópico propio del outbox.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher crea el writer contra los brokers dados. La clave del mensaje es el product_id,
// así los movimientos de un mismo producto conservan el orden dentro de la partición.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish escribe el evento y espera la confirmación del broker.
func (p *Publisher) Publish(ctx context.Context, event *entity.OutboxEvent) error {
	if err := p.writer.WriteMessages(ctx, newMessage(event)); err != nil {
		return fmt.Errorf("publish event %s to %s: %w", event.ID, event.Topic, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(event *entity.OutboxEvent) kafka.Message {
	return kafka.Message{
		Topic: event.Topic,
		Key:   []byte(event.Key),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-type", Value: []byte(event.EventType)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.CreatedAt,
	}
}
