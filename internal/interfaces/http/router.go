package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/warehouse-ledger/internal/application/inventory"
	"github.com/jhoicas/warehouse-ledger/pkg/logger"
	"github.com/jhoicas/warehouse-ledger/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Processor *inventory.MovementProcessor
	Query     *inventory.LedgerQueryUseCase
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
	// JWTSecret vacío deja la API sin autenticación (created_by viene solo del body).
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api/v1")
	writers := []fiber.Handler{}
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret))
		writers = append(writers, RequireRole(RoleAdmin, RoleBodeguero))
	}

	h := NewInventoryHandler(deps.Processor, deps.Query, deps.Logger)
	inv := api.Group("/inventory")

	// Movimientos (escritura)
	movements := inv.Group("/movements")
	movements.Post("/inbound", append(writers, h.Inbound)...)
	movements.Post("/outbound", append(writers, h.Outbound)...)
	movements.Post("/transfer", append(writers, h.Transfer)...)
	movements.Post("/adjustment", append(writers, h.Adjustment)...)

	// Consultas; rutas fijas antes de /:warehouse_id/:product_id
	movements.Get("/", h.ListMovements)
	movements.Get("/:id", h.GetMovement)
	inv.Get("/alerts/low-stock", h.LowStockAlerts)
	inv.Get("/", h.ListLedger)
	inv.Get("/:warehouse_id/:product_id", h.GetLedgerEntry)
}
