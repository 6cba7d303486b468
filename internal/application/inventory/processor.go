package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/warehouse-ledger/internal/domain"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
	"github.com/jhoicas/warehouse-ledger/pkg/logger"
	"github.com/jhoicas/warehouse-ledger/pkg/metrics"
)

const maxMetadataLen = 100

// MovementProcessor registra movimientos de inventario de forma transaccional
// (inbound, outbound, transfer, adjustment) con bloqueo de fila y Commit/Rollback.
// Cada movimiento confirmado deja exactamente un registro en el log, la mutación
// de una o dos filas del ledger y un evento en el outbox, todo en la misma transacción.
type MovementProcessor struct {
	txRunner TxRunner
	topic    string
	log      *logger.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewMovementProcessor construye el procesador. topic es el destino de los eventos del outbox.
func NewMovementProcessor(txRunner TxRunner, topic string, log *logger.Logger, m *metrics.Metrics) *MovementProcessor {
	return &MovementProcessor{
		txRunner: txRunner,
		topic:    topic,
		log:      log.Named("movement_processor"),
		metrics:  m,
		tracer:   otel.Tracer("github.com/jhoicas/warehouse-ledger/internal/application/inventory"),
	}
}

// InboundInput recepción de mercancía en una bodega.
type InboundInput struct {
	ProductID     int64
	ToWarehouseID int64
	Quantity      int64
	Metadata      entity.MovementMetadata
}

// OutboundInput despacho desde una bodega.
type OutboundInput struct {
	ProductID       int64
	FromWarehouseID int64
	Quantity        int64
	Metadata        entity.MovementMetadata
}

// TransferInput traslado entre dos bodegas distintas.
type TransferInput struct {
	ProductID       int64
	FromWarehouseID int64
	ToWarehouseID   int64
	Quantity        int64
	Metadata        entity.MovementMetadata
}

// AdjustmentInput ajuste de conteo; Delta positivo suma y negativo resta (nunca 0).
type AdjustmentInput struct {
	ProductID   int64
	WarehouseID int64
	Delta       int64
	Metadata    entity.MovementMetadata
}

// step es el cuerpo de la unidad atómica de cada tipo de movimiento.
type step func(ctx context.Context, ledger repository.LedgerRepository, movs repository.MovementRepository) (*entity.Movement, error)

// ProcessInbound suma stock en la bodega destino; crea la fila del ledger si no existe. Sin validación de stock.
func (p *MovementProcessor) ProcessInbound(ctx context.Context, in InboundInput) (*entity.Movement, error) {
	err := firstError(
		requirePositive("product_id", in.ProductID),
		requirePositive("to_warehouse_id", in.ToWarehouseID),
		requirePositive("quantity", in.Quantity),
		validateMetadata(in.Metadata),
	)
	return p.execute(ctx, entity.MovementTypeInbound, in.ProductID, in.Quantity, err,
		func(ctx context.Context, ledger repository.LedgerRepository, movs repository.MovementRepository) (*entity.Movement, error) {
			mov := newMovement(entity.MovementTypeInbound, in.ProductID, nil, ptr(in.ToWarehouseID), in.Quantity, in.Metadata)
			if err := movs.Append(ctx, mov); err != nil {
				return nil, err
			}
			if _, err := ledger.UpsertAdd(ctx, in.ToWarehouseID, in.ProductID, in.Quantity); err != nil {
				return nil, err
			}
			return mov, nil
		})
}

// ProcessOutbound bloquea la fila origen, verifica disponible >= cantidad y descuenta.
func (p *MovementProcessor) ProcessOutbound(ctx context.Context, in OutboundInput) (*entity.Movement, error) {
	err := firstError(
		requirePositive("product_id", in.ProductID),
		requirePositive("from_warehouse_id", in.FromWarehouseID),
		requirePositive("quantity", in.Quantity),
		validateMetadata(in.Metadata),
	)
	return p.execute(ctx, entity.MovementTypeOutbound, in.ProductID, in.Quantity, err,
		func(ctx context.Context, ledger repository.LedgerRepository, movs repository.MovementRepository) (*entity.Movement, error) {
			if err := lockAvailable(ctx, ledger, in.FromWarehouseID, in.ProductID, in.Quantity); err != nil {
				return nil, err
			}
			mov := newMovement(entity.MovementTypeOutbound, in.ProductID, ptr(in.FromWarehouseID), nil, in.Quantity, in.Metadata)
			if err := movs.Append(ctx, mov); err != nil {
				return nil, err
			}
			if _, err := ledger.UpsertAdd(ctx, in.FromWarehouseID, in.ProductID, -in.Quantity); err != nil {
				return nil, err
			}
			return mov, nil
		})
}

// ProcessTransfer resta de la bodega origen y suma en la destino en la misma transacción.
// Origen y destino iguales se rechazan sin tocar el almacenamiento.
func (p *MovementProcessor) ProcessTransfer(ctx context.Context, in TransferInput) (*entity.Movement, error) {
	err := firstError(
		requirePositive("product_id", in.ProductID),
		requirePositive("from_warehouse_id", in.FromWarehouseID),
		requirePositive("to_warehouse_id", in.ToWarehouseID),
		requirePositive("quantity", in.Quantity),
		validateMetadata(in.Metadata),
	)
	if err == nil && in.FromWarehouseID == in.ToWarehouseID {
		err = domain.InvalidInput("el traslado requiere bodegas distintas (bodega %d)", in.FromWarehouseID)
	}
	return p.execute(ctx, entity.MovementTypeTransfer, in.ProductID, in.Quantity, err,
		func(ctx context.Context, ledger repository.LedgerRepository, movs repository.MovementRepository) (*entity.Movement, error) {
			if err := lockAvailable(ctx, ledger, in.FromWarehouseID, in.ProductID, in.Quantity); err != nil {
				return nil, err
			}
			mov := newMovement(entity.MovementTypeTransfer, in.ProductID, ptr(in.FromWarehouseID), ptr(in.ToWarehouseID), in.Quantity, in.Metadata)
			if err := movs.Append(ctx, mov); err != nil {
				return nil, err
			}
			if _, err := ledger.UpsertAdd(ctx, in.FromWarehouseID, in.ProductID, -in.Quantity); err != nil {
				return nil, err
			}
			if _, err := ledger.UpsertAdd(ctx, in.ToWarehouseID, in.ProductID, in.Quantity); err != nil {
				return nil, err
			}
			return mov, nil
		})
}

// ProcessAdjustment: positivo se comporta como entrada, negativo como salida con validación de disponible.
// El registro guarda la cantidad absoluta y la dirección en from/to.
func (p *MovementProcessor) ProcessAdjustment(ctx context.Context, in AdjustmentInput) (*entity.Movement, error) {
	qty := in.Delta
	if qty < 0 {
		qty = -qty
	}
	err := firstError(
		requirePositive("product_id", in.ProductID),
		requirePositive("warehouse_id", in.WarehouseID),
		validateMetadata(in.Metadata),
	)
	if err == nil && in.Delta == 0 {
		err = domain.InvalidInput("el ajuste no puede ser 0")
	}
	if err == nil && qty < 0 {
		// -math.MinInt64 no es representable.
		err = domain.InvalidInput("delta fuera de rango")
	}
	return p.execute(ctx, entity.MovementTypeAdjustment, in.ProductID, qty, err,
		func(ctx context.Context, ledger repository.LedgerRepository, movs repository.MovementRepository) (*entity.Movement, error) {
			var from, to *int64
			if in.Delta < 0 {
				if err := lockAvailable(ctx, ledger, in.WarehouseID, in.ProductID, qty); err != nil {
					return nil, err
				}
				from = ptr(in.WarehouseID)
			} else {
				to = ptr(in.WarehouseID)
			}
			mov := newMovement(entity.MovementTypeAdjustment, in.ProductID, from, to, qty, in.Metadata)
			if err := movs.Append(ctx, mov); err != nil {
				return nil, err
			}
			if _, err := ledger.UpsertAdd(ctx, in.WarehouseID, in.ProductID, in.Delta); err != nil {
				return nil, err
			}
			return mov, nil
		})
}

// execute abre la transacción, corre el paso del tipo de movimiento, anexa el evento al outbox
// y clasifica el error resultante. invalid != nil corta antes de tocar el almacenamiento.
func (p *MovementProcessor) execute(ctx context.Context, movementType entity.MovementType, productID, quantity int64, invalid error, fn step) (*entity.Movement, error) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "inventory.process_"+string(movementType),
		trace.WithAttributes(
			attribute.String("movement.type", string(movementType)),
			attribute.Int64("product.id", productID),
			attribute.Int64("movement.quantity", quantity),
		))
	defer span.End()

	if invalid != nil {
		p.finish(span, movementType, quantity, start, metrics.ResultInvalid, invalid)
		p.log.Debug().Err(invalid).Str("type", string(movementType)).Msg("movimiento rechazado por validación")
		return nil, invalid
	}

	var result *entity.Movement
	err := p.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error {
		mov, err := fn(ctx, ledgerRepo, movRepo)
		if err != nil {
			return err
		}
		event, err := p.newOutboxEvent(mov)
		if err != nil {
			return err
		}
		if err := outboxRepo.Add(ctx, event); err != nil {
			return err
		}
		result = mov
		return nil
	})

	switch {
	case err == nil:
		p.finish(span, movementType, quantity, start, metrics.ResultCommitted, nil)
		span.SetAttributes(attribute.Int64("movement.id", result.ID))
		p.log.Info().
			Int64("movement_id", result.ID).
			Str("type", string(movementType)).
			Int64("product_id", productID).
			Int64("quantity", quantity).
			Msg("movimiento registrado")
		return result, nil

	case errors.Is(err, domain.ErrInsufficientStock):
		p.finish(span, movementType, quantity, start, metrics.ResultInsufficientStock, err)
		var ise *domain.InsufficientStockError
		if errors.As(err, &ise) {
			p.log.Warn().
				Str("type", string(movementType)).
				Int64("product_id", ise.ProductID).
				Int64("warehouse_id", ise.WarehouseID).
				Int64("available", ise.Available).
				Int64("required", ise.Required).
				Msg("stock insuficiente, transacción revertida")
		}
		return nil, err

	case errors.Is(err, domain.ErrInvalidInput):
		p.finish(span, movementType, quantity, start, metrics.ResultInvalid, err)
		return nil, err

	default:
		serr := &domain.StorageError{Op: "process " + string(movementType) + " movement", Err: err}
		p.finish(span, movementType, quantity, start, metrics.ResultStorageError, serr)
		p.log.Error().Err(err).Str("type", string(movementType)).Int64("product_id", productID).
			Msg("fallo de almacenamiento, transacción revertida")
		return nil, serr
	}
}

func (p *MovementProcessor) finish(span trace.Span, movementType entity.MovementType, quantity int64, start time.Time, result string, err error) {
	span.SetAttributes(attribute.String("movement.result", result))
	if err != nil && result == metrics.ResultStorageError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if p.metrics != nil {
		p.metrics.ObserveMovement(string(movementType), result, quantity, time.Since(start))
	}
}

// movementEvent payload publicado para consumidores downstream.
type movementEvent struct {
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

func (p *MovementProcessor) newOutboxEvent(mov *entity.Movement) (*entity.OutboxEvent, error) {
	payload, err := json.Marshal(movementEvent{
		MovementID:      mov.ID,
		ProductID:       mov.ProductID,
		FromWarehouseID: mov.FromWarehouseID,
		ToWarehouseID:   mov.ToWarehouseID,
		Quantity:        mov.Quantity,
		MovementType:    string(mov.Type),
		ReferenceNumber: mov.ReferenceNumber,
		Notes:           mov.Notes,
		CreatedBy:       mov.CreatedBy,
		MovementDate:    mov.MovementDate,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal movement event: %w", err)
	}
	return &entity.OutboxEvent{
		ID:         uuid.NewString(),
		MovementID: mov.ID,
		EventType:  "inventory.movement." + string(mov.Type),
		Topic:      p.topic,
		Key:        strconv.FormatInt(mov.ProductID, 10),
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// lockAvailable bloquea la fila (warehouse, product) y verifica disponible >= required.
// El bloqueo sigue tomado hasta el fin de la transacción, así la escritura posterior
// ve exactamente el valor validado.
func lockAvailable(ctx context.Context, ledger repository.LedgerRepository, warehouseID, productID, required int64) error {
	entry, err := ledger.GetForUpdate(ctx, warehouseID, productID)
	if err != nil {
		return err
	}
	if entry == nil {
		return &domain.InsufficientStockError{ProductID: productID, WarehouseID: warehouseID, Available: 0, Required: required}
	}
	if available := entry.Available(); available < required {
		return &domain.InsufficientStockError{ProductID: productID, WarehouseID: warehouseID, Available: available, Required: required}
	}
	return nil
}

func newMovement(t entity.MovementType, productID int64, from, to *int64, quantity int64, md entity.MovementMetadata) *entity.Movement {
	return &entity.Movement{
		ProductID:       productID,
		FromWarehouseID: from,
		ToWarehouseID:   to,
		Quantity:        quantity,
		Type:            t,
		ReferenceNumber: md.ReferenceNumber,
		Notes:           md.Notes,
		CreatedBy:       md.CreatedBy,
	}
}

func requirePositive(field string, v int64) error {
	if v <= 0 {
		return domain.InvalidInput("%s debe ser mayor que 0", field)
	}
	return nil
}

func validateMetadata(md entity.MovementMetadata) error {
	if utf8.RuneCountInString(md.ReferenceNumber) > maxMetadataLen {
		return domain.InvalidInput("reference_number supera %d caracteres", maxMetadataLen)
	}
	if utf8.RuneCountInString(md.CreatedBy) > maxMetadataLen {
		return domain.InvalidInput("created_by supera %d caracteres", maxMetadataLen)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func ptr(v int64) *int64 { return &v }
