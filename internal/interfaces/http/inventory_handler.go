package http

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-ledger/internal/application/dto"
	"github.com/jhoicas/warehouse-ledger/internal/application/inventory"
	"github.com/jhoicas/warehouse-ledger/internal/domain"
	"github.com/jhoicas/warehouse-ledger/internal/domain/entity"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
	"github.com/jhoicas/warehouse-ledger/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP de movimientos y consultas del ledger.
type InventoryHandler struct {
	processor *inventory.MovementProcessor
	query     *inventory.LedgerQueryUseCase
	log       *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(processor *inventory.MovementProcessor, query *inventory.LedgerQueryUseCase, log *logger.Logger) *InventoryHandler {
	return &InventoryHandler{processor: processor, query: query, log: log.Named("http")}
}

// Inbound godoc
// @Summary      Registrar entrada de mercancía
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InboundRequest  true  "product_id, to_warehouse_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/movements/inbound [post]
func (h *InventoryHandler) Inbound(c *fiber.Ctx) error {
	var in dto.InboundRequest
	if bad := h.bind(c, &in, &in.MovementMetadataRequest); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	mov, err := h.processor.ProcessInbound(c.UserContext(), in.ToInput())
	return h.respondMovement(c, mov, err)
}

// Outbound godoc
// @Summary      Registrar salida de mercancía
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OutboundRequest  true  "product_id, from_warehouse_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/movements/outbound [post]
func (h *InventoryHandler) Outbound(c *fiber.Ctx) error {
	var in dto.OutboundRequest
	if bad := h.bind(c, &in, &in.MovementMetadataRequest); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	mov, err := h.processor.ProcessOutbound(c.UserContext(), in.ToInput())
	return h.respondMovement(c, mov, err)
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_warehouse_id, to_warehouse_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/movements/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if bad := h.bind(c, &in, &in.MovementMetadataRequest); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	mov, err := h.processor.ProcessTransfer(c.UserContext(), in.ToInput())
	return h.respondMovement(c, mov, err)
}

// Adjustment godoc
// @Summary      Ajuste de conteo (delta positivo o negativo)
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, warehouse_id, delta"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/movements/adjustment [post]
func (h *InventoryHandler) Adjustment(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if bad := h.bind(c, &in, &in.MovementMetadataRequest); bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	mov, err := h.processor.ProcessAdjustment(c.UserContext(), in.ToInput())
	return h.respondMovement(c, mov, err)
}

// ListLedger godoc
// @Summary      Snapshot del ledger
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  int  false  "Filtrar por bodega"
// @Param        product_id    query  int  false  "Filtrar por producto"
// @Success      200  {object}  dto.ListResponse[dto.LedgerEntryResponse]
// @Router       /api/v1/inventory [get]
func (h *InventoryHandler) ListLedger(c *fiber.Ctx) error {
	warehouseID, err := queryInt64(c, "warehouse_id")
	if err != nil {
		return h.writeError(c, err)
	}
	productID, err := queryInt64(c, "product_id")
	if err != nil {
		return h.writeError(c, err)
	}
	list, err := h.query.ListLedger(c.UserContext(), repository.LedgerFilter{WarehouseID: warehouseID, ProductID: productID})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(dto.LedgerEntriesFromEntities(list)))
}

// GetLedgerEntry godoc
// @Summary      Stock de un producto en una bodega
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.LedgerEntryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/{warehouse_id}/{product_id} [get]
func (h *InventoryHandler) GetLedgerEntry(c *fiber.Ctx) error {
	warehouseID, err := paramInt64(c, "warehouse_id")
	if err != nil {
		return h.writeError(c, err)
	}
	productID, err := paramInt64(c, "product_id")
	if err != nil {
		return h.writeError(c, err)
	}
	entry, err := h.query.GetLedgerEntry(c.UserContext(), warehouseID, productID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.LedgerEntryFromEntity(entry))
}

// ListMovements godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         inventory
// @Produce      json
// @Param        product_id     query  int     false  "Producto"
// @Param        warehouse_id   query  int     false  "Bodega origen o destino"
// @Param        movement_type  query  string  false  "inbound|outbound|transfer|adjustment"
// @Param        limit          query  int     false  "1..500 (100 por defecto)"
// @Success      200  {object}  dto.ListResponse[dto.MovementResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var filter repository.MovementFilter
	var err error
	if filter.ProductID, err = queryInt64(c, "product_id"); err != nil {
		return h.writeError(c, err)
	}
	if filter.WarehouseID, err = queryInt64(c, "warehouse_id"); err != nil {
		return h.writeError(c, err)
	}
	limit, err := queryInt64(c, "limit")
	if err != nil {
		return h.writeError(c, err)
	}
	if c.Query("limit") != "" && limit == 0 {
		return h.writeError(c, domain.InvalidInput("limit debe estar entre 1 y %d", inventory.MaxMovementLimit))
	}
	filter.Limit = int(limit)
	filter.Type = entity.MovementType(c.Query("movement_type"))

	list, err := h.query.ListMovements(c.UserContext(), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(dto.MovementsFromEntities(list)))
}

// GetMovement godoc
// @Summary      Movimiento por ID
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	id, err := paramInt64(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	mov, err := h.query.GetMovement(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.MovementFromEntity(mov))
}

// LowStockAlerts godoc
// @Summary      Productos bajo su nivel de reorden
// @Tags         inventory
// @Produce      json
// @Success      200  {object}  dto.ListResponse[dto.LowStockAlertResponse]
// @Router       /api/v1/inventory/alerts/low-stock [get]
func (h *InventoryHandler) LowStockAlerts(c *fiber.Ctx) error {
	list, err := h.query.LowStockAlerts(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewListResponse(dto.LowStockAlertsFromEntities(list)))
}

// bind parsea y valida el body; completa created_by con el usuario del token si falta.
// Devuelve el cuerpo de error 400 o nil.
func (h *InventoryHandler) bind(c *fiber.Ctx, in any, md *dto.MovementMetadataRequest) *dto.ErrorResponse {
	if err := c.BodyParser(in); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if md.CreatedBy == "" {
		md.CreatedBy = GetUserID(c)
	}
	if fields := validateStruct(in); fields != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Details: fields}
	}
	return nil
}

func (h *InventoryHandler) respondMovement(c *fiber.Ctx, mov *entity.Movement, err error) error {
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(mov))
}

// writeError traduce errores de dominio a HTTP.
func (h *InventoryHandler) writeError(c *fiber.Ctx, err error) error {
	var ise *domain.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: ise.Error(),
			Details: map[string]any{
				"product_id":   ise.ProductID,
				"warehouse_id": ise.WarehouseID,
				"available":    ise.Available,
				"required":     ise.Required,
			},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "CANCELLED", Message: "la petición fue cancelada"})
	default:
		h.log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func queryInt64(c *fiber.Ctx, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, domain.InvalidInput("%s debe ser un entero no negativo", key)
	}
	return v, nil
}

func paramInt64(c *fiber.Ctx, key string) (int64, error) {
	v, err := strconv.ParseInt(c.Params(key), 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.InvalidInput("%s debe ser un entero positivo", key)
	}
	return v, nil
}
