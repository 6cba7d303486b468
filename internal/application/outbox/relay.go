// Package outbox publica hacia el broker los eventos que el procesador dejó en el outbox.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
	"github.com/jhoicas/warehouse-ledger/pkg/logger"
	"github.com/jhoicas/warehouse-ledger/pkg/metrics"
)

// Publisher envía un evento al broker (Kafka en producción).
type Publisher interface {
	Publish(ctx context.Context, event *entity.OutboxEvent) error
}

// Config parámetros del ciclo del relay.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Breaker: fallos consecutivos que abren el circuito y espera antes de probar de nuevo.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultConfig valores por defecto.
func DefaultConfig() Config {
	return Config{
		Interval:         2 * time.Second,
		BatchSize:        100,
		MaxRetries:       10,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Relay lee eventos pendientes y los publica, marcándolos publicados o fallidos.
// La publicación es al menos una vez: un evento puede repetirse si el marcado falla.
type Relay struct {
	repo      repository.OutboxRepository
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker
	log       *logger.Logger
	metrics   *metrics.Metrics
	cfg       Config
}

// NewRelay construye el relay. m puede ser nil.
func NewRelay(repo repository.OutboxRepository, publisher Publisher, cfg Config, log *logger.Logger, m *metrics.Metrics) *Relay {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	r := &Relay{
		repo:      repo,
		publisher: publisher,
		log:       log.Named("outbox_relay"),
		metrics:   m,
		cfg:       cfg,
	}
	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "outbox-publisher",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cambio de estado del circuit breaker")
			if r.metrics != nil {
				r.metrics.BreakerState.Set(float64(to))
			}
		},
	})
	return r
}

// Run procesa lotes cada Interval hasta que ctx se cancela.
func (r *Relay) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.cfg.Interval).Int("batch_size", r.cfg.BatchSize).Msg("relay del outbox iniciado")
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("relay del outbox detenido")
			return
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error().Err(err).Msg("error procesando lote del outbox")
			}
		}
	}
}

// ProcessBatch publica un lote de pendientes y devuelve cuántos se publicaron.
// Con el circuito abierto el lote se corta sin consumir reintentos.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	events, err := r.repo.FetchPending(ctx, r.cfg.BatchSize, r.cfg.MaxRetries)
	if err != nil {
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.OutboxPending.Set(float64(len(events)))
	}

	published := 0
	// Claves con un evento sin publicar en este lote: los siguientes esperan para no adelantarse.
	blocked := make(map[string]struct{})
	for _, event := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}
		if _, ok := blocked[event.Key]; ok {
			r.observe("skipped")
			continue
		}
		_, err := r.breaker.Execute(func() (interface{}, error) {
			return nil, r.publisher.Publish(ctx, event)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.observe("skipped")
			r.log.Debug().Str("event_id", event.ID).Msg("circuito abierto, se reintenta en el próximo ciclo")
			return published, nil
		}
		if err != nil {
			r.observe("failed")
			r.log.Warn().Err(err).Str("event_id", event.ID).Int64("movement_id", event.MovementID).
				Int("retry_count", event.RetryCount+1).Msg("fallo publicando evento")
			if markErr := r.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				r.log.Error().Err(markErr).Str("event_id", event.ID).Msg("no se pudo registrar el fallo")
			}
			blocked[event.Key] = struct{}{}
			continue
		}
		if err := r.repo.MarkPublished(ctx, event.ID); err != nil {
			r.log.Error().Err(err).Str("event_id", event.ID).Msg("no se pudo marcar el evento como publicado")
			blocked[event.Key] = struct{}{}
			continue
		}
		r.observe("published")
		published++
	}
	if published > 0 {
		r.log.Debug().Int("published", published).Int("fetched", len(events)).Msg("lote del outbox publicado")
	}
	return published, nil
}

// State estado actual del circuit breaker.
func (r *Relay) State() gobreaker.State {
	return r.breaker.State()
}

func (r *Relay) observe(status string) {
	if r.metrics != nil {
		r.metrics.OutboxPublished.WithLabelValues(status).Inc()
	}
}
