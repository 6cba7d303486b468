package inventory_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jhoicas/warehouse-ledger/internal/application/inventory"
	"github.com/jhoicas/warehouse-ledger/internal/domain"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
	"github.com/jhoicas/warehouse-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/warehouse-ledger/pkg/logger"
	"github.com/jhoicas/warehouse-ledger/pkg/metrics"
)

const (
	w1 int64 = 1
	w2 int64 = 2
	p1 int64 = 100
)

func newProcessor(t *testing.T, runner inventory.TxRunner) *inventory.MovementProcessor {
	t.Helper()
	return inventory.NewMovementProcessor(runner, "wms.inventory.movements", logger.Nop(), metrics.New("test"))
}

func seed(t *testing.T, store *memory.Store, warehouseID, productID, quantity, reserved int64) {
	t.Helper()
	require.NoError(t, store.Seed(entity.LedgerEntry{
		WarehouseID: warehouseID, ProductID: productID, Quantity: quantity, ReservedQuantity: reserved,
	}))
}

func ledgerQty(t *testing.T, store *memory.Store, warehouseID, productID int64) int64 {
	t.Helper()
	e, err := store.LedgerRepository().Get(context.Background(), warehouseID, productID)
	require.NoError(t, err)
	if e == nil {
		return -1
	}
	return e.Quantity
}

func movementCount(t *testing.T, store *memory.Store) int {
	t.Helper()
	list, err := store.MovementRepository().List(context.Background(), repository.MovementFilter{Limit: 1000})
	require.NoError(t, err)
	return len(list)
}

func pendingEvents(t *testing.T, store *memory.Store) []*entity.OutboxEvent {
	t.Helper()
	list, err := store.OutboxRepository().FetchPending(context.Background(), 1000, 1)
	require.NoError(t, err)
	return list
}

// countingRunner cuenta las transacciones abiertas; las validaciones no deben llegar aquí.
type countingRunner struct {
	inner inventory.TxRunner
	calls atomic.Int32
}

func (r *countingRunner) Run(ctx context.Context, fn func(repository.LedgerRepository, repository.MovementRepository, repository.OutboxRepository) error) error {
	r.calls.Add(1)
	return r.inner.Run(ctx, fn)
}

// failingOutbox simula un fallo de almacenamiento al escribir el evento, último paso de la unidad.
type failingOutbox struct {
	repository.OutboxRepository
	err error
}

func (f failingOutbox) Add(context.Context, *entity.OutboxEvent) error { return f.err }

type failingOutboxRunner struct {
	store *memory.Store
	err   error
}

func (r failingOutboxRunner) Run(ctx context.Context, fn func(repository.LedgerRepository, repository.MovementRepository, repository.OutboxRepository) error) error {
	return r.store.Run(ctx, func(l repository.LedgerRepository, m repository.MovementRepository, o repository.OutboxRepository) error {
		return fn(l, m, failingOutbox{OutboxRepository: o, err: r.err})
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de referencia
// ──────────────────────────────────────────────────────────────────────────────

func TestOutbound_DisponibleInsuficienteNoCambiaNada(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 100, 20)
	proc := newProcessor(t, store)

	mov, err := proc.ProcessOutbound(context.Background(), inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: 90})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, mov)
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(80), ise.Available)
	assert.Equal(t, int64(90), ise.Required)
	assert.Equal(t, int64(100), ledgerQty(t, store, w1, p1))
	assert.Zero(t, movementCount(t, store))
	assert.Empty(t, pendingEvents(t, store))
}

func TestOutbound_DescuentaYRegistra(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 100, 20)
	proc := newProcessor(t, store)

	mov, err := proc.ProcessOutbound(context.Background(), inventory.OutboundInput{
		ProductID: p1, FromWarehouseID: w1, Quantity: 50,
		Metadata: entity.MovementMetadata{ReferenceNumber: "SO-9", CreatedBy: "ana"},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeOutbound, mov.Type)
	require.NotNil(t, mov.FromWarehouseID)
	assert.Equal(t, w1, *mov.FromWarehouseID)
	assert.Nil(t, mov.ToWarehouseID)
	assert.Equal(t, int64(50), mov.Quantity)
	assert.Equal(t, "SO-9", mov.ReferenceNumber)
	assert.Equal(t, int64(50), ledgerQty(t, store, w1, p1))
	assert.Equal(t, 1, movementCount(t, store))
}

func TestInbound_CreaFilaInexistente(t *testing.T) {
	store := memory.NewStore(time.Second)
	proc := newProcessor(t, store)

	mov, err := proc.ProcessInbound(context.Background(), inventory.InboundInput{ProductID: p1, ToWarehouseID: w2, Quantity: 30})

	require.NoError(t, err)
	assert.Nil(t, mov.FromWarehouseID)
	require.NotNil(t, mov.ToWarehouseID)
	assert.Equal(t, w2, *mov.ToWarehouseID)

	entry, err := store.LedgerRepository().Get(context.Background(), w2, p1)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, int64(30), entry.Quantity)
	assert.Zero(t, entry.ReservedQuantity)
}

func TestTransfer_MismaBodegaSeRechazaSinTocarAlmacenamiento(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 100, 0)
	runner := &countingRunner{inner: store}
	proc := newProcessor(t, runner)

	_, err := proc.ProcessTransfer(context.Background(), inventory.TransferInput{
		ProductID: p1, FromWarehouseID: w1, ToWarehouseID: w1, Quantity: 40,
	})

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, runner.calls.Load())
	assert.Equal(t, int64(100), ledgerQty(t, store, w1, p1))
}

func TestTransfer_ConservaUnidades(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 100, 0)
	seed(t, store, w2, p1, 7, 0)
	proc := newProcessor(t, store)

	mov, err := proc.ProcessTransfer(context.Background(), inventory.TransferInput{
		ProductID: p1, FromWarehouseID: w1, ToWarehouseID: w2, Quantity: 40,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeTransfer, mov.Type)
	assert.Equal(t, int64(60), ledgerQty(t, store, w1, p1))
	assert.Equal(t, int64(47), ledgerQty(t, store, w2, p1))
	assert.Equal(t, 1, movementCount(t, store))
}

func TestTransfer_DestinoSinFilaLaCrea(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 10, 0)
	proc := newProcessor(t, store)

	_, err := proc.ProcessTransfer(context.Background(), inventory.TransferInput{
		ProductID: p1, FromWarehouseID: w1, ToWarehouseID: w2, Quantity: 10,
	})

	require.NoError(t, err)
	assert.Zero(t, ledgerQty(t, store, w1, p1), "la fila origen queda en 0, no se borra")
	assert.Equal(t, int64(10), ledgerQty(t, store, w2, p1))
}

func TestOutbound_SinFilaReportaDisponibleCero(t *testing.T) {
	store := memory.NewStore(time.Second)
	proc := newProcessor(t, store)

	_, err := proc.ProcessOutbound(context.Background(), inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: 1})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Zero(t, ise.Available)
	assert.Equal(t, int64(-1), ledgerQty(t, store, w1, p1), "no se crea la fila")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación
// ──────────────────────────────────────────────────────────────────────────────

func TestValidacion_OcurreAntesDeAbrirTransaccion(t *testing.T) {
	long := string(make([]rune, 101))
	cases := []struct {
		name string
		call func(p *inventory.MovementProcessor) error
	}{
		{"inbound cantidad 0", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessInbound(context.Background(), inventory.InboundInput{ProductID: p1, ToWarehouseID: w1, Quantity: 0})
			return err
		}},
		{"inbound producto inválido", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessInbound(context.Background(), inventory.InboundInput{ProductID: 0, ToWarehouseID: w1, Quantity: 1})
			return err
		}},
		{"outbound cantidad negativa", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessOutbound(context.Background(), inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: -5})
			return err
		}},
		{"outbound sin bodega", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessOutbound(context.Background(), inventory.OutboundInput{ProductID: p1, Quantity: 5})
			return err
		}},
		{"transfer sin destino", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessTransfer(context.Background(), inventory.TransferInput{ProductID: p1, FromWarehouseID: w1, Quantity: 5})
			return err
		}},
		{"ajuste en cero", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessAdjustment(context.Background(), inventory.AdjustmentInput{ProductID: p1, WarehouseID: w1, Delta: 0})
			return err
		}},
		{"ajuste fuera de rango", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessAdjustment(context.Background(), inventory.AdjustmentInput{ProductID: p1, WarehouseID: w1, Delta: math.MinInt64})
			return err
		}},
		{"referencia demasiado larga", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessInbound(context.Background(), inventory.InboundInput{
				ProductID: p1, ToWarehouseID: w1, Quantity: 1,
				Metadata: entity.MovementMetadata{ReferenceNumber: long},
			})
			return err
		}},
		{"created_by demasiado largo", func(p *inventory.MovementProcessor) error {
			_, err := p.ProcessInbound(context.Background(), inventory.InboundInput{
				ProductID: p1, ToWarehouseID: w1, Quantity: 1,
				Metadata: entity.MovementMetadata{CreatedBy: long},
			})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore(time.Second)
			runner := &countingRunner{inner: store}
			err := tc.call(newProcessor(t, runner))
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, runner.calls.Load())
			assert.Zero(t, movementCount(t, store))
		})
	}
}

func TestInbound_DesbordamientoEsEntradaInvalida(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, math.MaxInt64-10, 0)
	p := newProcessor(t, store)

	_, err := p.ProcessInbound(context.Background(), inventory.InboundInput{ProductID: p1, ToWarehouseID: w1, Quantity: 11})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, int64(math.MaxInt64-10), ledgerQty(t, store, w1, p1))
	assert.Zero(t, movementCount(t, store))
}

func TestValidacion_MetadataDeCienCaracteresEsValida(t *testing.T) {
	store := memory.NewStore(time.Second)
	proc := newProcessor(t, store)
	ref := ""
	for i := 0; i < 100; i++ {
		ref += "ñ"
	}
	_, err := proc.ProcessInbound(context.Background(), inventory.InboundInput{
		ProductID: p1, ToWarehouseID: w1, Quantity: 1,
		Metadata: entity.MovementMetadata{ReferenceNumber: ref},
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustment_PositivoYNegativo(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 10, 4)
	proc := newProcessor(t, store)
	ctx := context.Background()

	up, err := proc.ProcessAdjustment(ctx, inventory.AdjustmentInput{ProductID: p1, WarehouseID: w1, Delta: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), up.Quantity)
	assert.Nil(t, up.FromWarehouseID)
	require.NotNil(t, up.ToWarehouseID)
	assert.Equal(t, int64(15), ledgerQty(t, store, w1, p1))

	down, err := proc.ProcessAdjustment(ctx, inventory.AdjustmentInput{ProductID: p1, WarehouseID: w1, Delta: -11})
	require.NoError(t, err)
	assert.Equal(t, int64(11), down.Quantity, "el registro guarda la cantidad absoluta")
	require.NotNil(t, down.FromWarehouseID)
	assert.Nil(t, down.ToWarehouseID)
	assert.Equal(t, int64(4), ledgerQty(t, store, w1, p1))

	_, err = proc.ProcessAdjustment(ctx, inventory.AdjustmentInput{ProductID: p1, WarehouseID: w1, Delta: -1})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Zero(t, ise.Available, "lo reservado no está disponible")
	assert.Equal(t, int64(4), ledgerQty(t, store, w1, p1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y outbox
// ──────────────────────────────────────────────────────────────────────────────

func TestFalloDeAlmacenamiento_RevierteTodo(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 100, 0)
	cause := errors.New("disk full")
	proc := newProcessor(t, failingOutboxRunner{store: store, err: cause})

	_, err := proc.ProcessTransfer(context.Background(), inventory.TransferInput{
		ProductID: p1, FromWarehouseID: w1, ToWarehouseID: w2, Quantity: 40,
	})

	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, int64(100), ledgerQty(t, store, w1, p1))
	assert.Equal(t, int64(-1), ledgerQty(t, store, w2, p1))
	assert.Zero(t, movementCount(t, store))

	// Los bloqueos se liberaron.
	_, err = newProcessor(t, store).ProcessOutbound(context.Background(), inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: 1})
	require.NoError(t, err)
}

func TestContextoCancelado_NoConfirma(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 100, 0)
	proc := newProcessor(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := proc.ProcessOutbound(ctx, inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: 10})

	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(100), ledgerQty(t, store, w1, p1))
	assert.Zero(t, movementCount(t, store))
}

func TestOutbox_UnEventoPorMovimiento(t *testing.T) {
	store := memory.NewStore(time.Second)
	proc := newProcessor(t, store)
	ctx := context.Background()

	in, err := proc.ProcessInbound(ctx, inventory.InboundInput{ProductID: p1, ToWarehouseID: w1, Quantity: 10})
	require.NoError(t, err)
	tr, err := proc.ProcessTransfer(ctx, inventory.TransferInput{ProductID: p1, FromWarehouseID: w1, ToWarehouseID: w2, Quantity: 3})
	require.NoError(t, err)
	_, err = proc.ProcessOutbound(ctx, inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: 99})
	require.Error(t, err)

	events := pendingEvents(t, store)
	require.Len(t, events, 2)
	assert.Equal(t, in.ID, events[0].MovementID)
	assert.Equal(t, "inventory.movement.inbound", events[0].EventType)
	assert.Equal(t, tr.ID, events[1].MovementID)
	assert.Equal(t, "inventory.movement.transfer", events[1].EventType)
	assert.Equal(t, "100", events[1].Key)
	assert.Equal(t, "wms.inventory.movements", events[1].Topic)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(events[1].Payload, &payload))
	assert.Equal(t, float64(tr.ID), payload["movement_id"])
	assert.Equal(t, float64(w1), payload["from_warehouse_id"])
	assert.Equal(t, float64(w2), payload["to_warehouse_id"])
	assert.Equal(t, float64(3), payload["quantity"])
	assert.Equal(t, "transfer", payload["movement_type"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestOutboundConcurrente_ExitosExactos(t *testing.T) {
	const (
		k       = 103
		q       = 10
		workers = 25
	)
	store := memory.NewStore(5 * time.Second)
	seed(t, store, w1, p1, k, 0)
	proc := newProcessor(t, store)

	var ok, insufficient atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := proc.ProcessOutbound(context.Background(), inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: q})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(k/q), ok.Load())
	assert.Equal(t, int32(workers-k/q), insufficient.Load())
	assert.Equal(t, int64(k-q*(k/q)), ledgerQty(t, store, w1, p1))
	assert.Equal(t, k/q, movementCount(t, store))
}

func TestMovimientosConcurrentes_ClavesDistintasNoSeBloquean(t *testing.T) {
	store := memory.NewStore(5 * time.Second)
	proc := newProcessor(t, store)

	var wg sync.WaitGroup
	for wh := int64(1); wh <= 10; wh++ {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(wh int64) {
				defer wg.Done()
				_, err := proc.ProcessInbound(context.Background(), inventory.InboundInput{ProductID: p1, ToWarehouseID: wh, Quantity: 1})
				assert.NoError(t, err)
			}(wh)
		}
	}
	wg.Wait()

	list, err := store.LedgerRepository().List(context.Background(), repository.LedgerFilter{ProductID: p1})
	require.NoError(t, err)
	require.Len(t, list, 10)
	for _, e := range list {
		assert.Equal(t, int64(10), e.Quantity)
	}
	assert.Equal(t, 100, movementCount(t, store))
}

func TestSecuenciaAleatoria_NuncaNegativo(t *testing.T) {
	store := memory.NewStore(5 * time.Second)
	seed(t, store, w1, p1, 20, 5)
	proc := newProcessor(t, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				_, _ = proc.ProcessOutbound(ctx, inventory.OutboundInput{ProductID: p1, FromWarehouseID: w1, Quantity: 7})
			case 1:
				_, _ = proc.ProcessInbound(ctx, inventory.InboundInput{ProductID: p1, ToWarehouseID: w1, Quantity: 3})
			case 2:
				_, _ = proc.ProcessTransfer(ctx, inventory.TransferInput{ProductID: p1, FromWarehouseID: w1, ToWarehouseID: w2, Quantity: 4})
			case 3:
				_, _ = proc.ProcessAdjustment(ctx, inventory.AdjustmentInput{ProductID: p1, WarehouseID: w1, Delta: -2})
			}
		}(i)
	}
	wg.Wait()

	list, err := store.LedgerRepository().List(ctx, repository.LedgerFilter{})
	require.NoError(t, err)
	for _, e := range list {
		assert.GreaterOrEqual(t, e.Quantity, int64(0))
		assert.LessOrEqual(t, e.ReservedQuantity, e.Quantity)
	}
}

// Traslados cruzados pueden esperar el bloqueo del otro; el timeout los resuelve como fallo de almacenamiento.
func TestTrasladosCruzados_TerminanSiempre(t *testing.T) {
	store := memory.NewStore(50 * time.Millisecond)
	seed(t, store, w1, p1, 1000, 0)
	seed(t, store, w2, p1, 1000, 0)
	proc := newProcessor(t, store)

	var wg sync.WaitGroup
	var committed atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := w1, w2
			if i%2 == 1 {
				from, to = w2, w1
			}
			_, err := proc.ProcessTransfer(context.Background(), inventory.TransferInput{ProductID: p1, FromWarehouseID: from, ToWarehouseID: to, Quantity: 1})
			if err == nil {
				committed.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrStorage)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(2000), ledgerQty(t, store, w1, p1)+ledgerQty(t, store, w2, p1), "las unidades se conservan")
	assert.Equal(t, int(committed.Load()), movementCount(t, store))
}

// ──────────────────────────────────────────────────────────────────────────────
// Trazas
// ──────────────────────────────────────────────────────────────────────────────

func TestProcessor_EmiteSpanPorMovimiento(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	store := memory.NewStore(time.Second)
	proc := newProcessor(t, store)
	_, err := proc.ProcessInbound(context.Background(), inventory.InboundInput{ProductID: p1, ToWarehouseID: w1, Quantity: 2})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "inventory.process_inbound", spans[0].Name())
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "committed", attrs["movement.result"])
	assert.Equal(t, int64(1), attrs["movement.id"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerQuery_LecturasNoMutan(t *testing.T) {
	store := memory.NewStore(time.Second)
	seed(t, store, w1, p1, 10, 2)
	query := inventory.NewLedgerQueryUseCase(store.LedgerRepository(), store.MovementRepository(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e, err := store.LedgerRepository().GetForUpdate(ctx, w1, p1)
		require.NoError(t, err)
		assert.Equal(t, int64(10), e.Quantity)
	}
	entry, err := query.GetLedgerEntry(ctx, w1, p1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), entry.Available())

	_, err = query.GetLedgerEntry(ctx, w2, p1)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = query.ListMovements(ctx, repository.MovementFilter{Limit: inventory.MaxMovementLimit + 1})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = query.GetMovement(ctx, 42)
	require.ErrorIs(t, err, domain.ErrNotFound)

	alerts, err := query.LowStockAlerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
