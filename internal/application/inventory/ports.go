package inventory

import (
	"context"

	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela antes del commit) se hace Rollback completo:
// no queda movimiento, ni delta de ledger, ni evento de outbox, ni bloqueo retenido.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		movRepo repository.MovementRepository,
		outboxRepo repository.OutboxRepository,
	) error) error
}
