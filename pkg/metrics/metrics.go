package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados posibles de un movimiento.
const (
	ResultCommitted         = "committed"
	ResultInsufficientStock = "insufficient_stock"
	ResultInvalid           = "invalid"
	ResultStorageError      = "storage_error"
)

// Metrics métricas del ledger, registradas en un registry propio.
type Metrics struct {
	registry *prometheus.Registry

	MovementsTotal   *prometheus.CounterVec
	MovementDuration *prometheus.HistogramVec
	UnitsMoved       *prometheus.CounterVec

	OutboxPublished *prometheus.CounterVec
	OutboxPending   prometheus.Gauge
	BreakerState    prometheus.Gauge
}

// New crea las métricas con el namespace dado ("wms" si vacío).
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wms"
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.MovementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "movements_total",
			Help:      "Movimientos procesados por tipo y resultado",
		},
		[]string{"type", "result"},
	)
	m.MovementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "movement_duration_seconds",
			Help:      "Duración de la unidad atómica de un movimiento",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"type"},
	)
	m.UnitsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_moved_total",
			Help:      "Unidades movidas en movimientos confirmados",
		},
		[]string{"type"},
	)
	m.OutboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Eventos del outbox por resultado de publicación",
		},
		[]string{"status"},
	)
	m.OutboxPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "last_batch_size",
			Help:      "Eventos pendientes leídos en el último ciclo del relay",
		},
	)
	m.BreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "circuit_breaker_state",
			Help:      "Estado del breaker del publicador (0=closed, 1=half-open, 2=open)",
		},
	)

	registry.MustRegister(
		m.MovementsTotal, m.MovementDuration, m.UnitsMoved,
		m.OutboxPublished, m.OutboxPending, m.BreakerState,
	)
	return m
}

// ObserveMovement registra el resultado y la duración de un movimiento.
func (m *Metrics) ObserveMovement(movementType, result string, quantity int64, elapsed time.Duration) {
	m.MovementsTotal.WithLabelValues(movementType, result).Inc()
	m.MovementDuration.WithLabelValues(movementType).Observe(elapsed.Seconds())
	if result == ResultCommitted {
		m.UnitsMoved.WithLabelValues(movementType).Add(float64(quantity))
	}
}

// Registry expone el registry para tests o colectores adicionales.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler devuelve el handler HTTP de exposición.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
