package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/warehouse-ledger/internal/application/inventory"
	"github.com/jhoicas/warehouse-ledger/internal/application/outbox"
	"github.com/jhoicas/warehouse-ledger/internal/domain/repository"
	"github.com/jhoicas/warehouse-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/warehouse-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/warehouse-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/warehouse-ledger/internal/interfaces/http"
	"github.com/jhoicas/warehouse-ledger/pkg/config"
	"github.com/jhoicas/warehouse-ledger/pkg/logger"
	"github.com/jhoicas/warehouse-ledger/pkg/metrics"
	"github.com/jhoicas/warehouse-ledger/pkg/tracing"
)

// storage repositorios y runner del backend elegido.
type storage struct {
	txRunner   inventory.TxRunner
	ledgerRepo repository.LedgerRepository
	movRepo    repository.MovementRepository
	alertRepo  repository.AlertRepository
	outboxRepo repository.OutboxRepository
	pool       *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	m := metrics.New("wms")

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	if st.pool != nil {
		defer st.pool.Close()
	}

	processor := inventory.NewMovementProcessor(st.txRunner, cfg.Kafka.Topic, log, m)
	query := inventory.NewLedgerQueryUseCase(st.ledgerRepo, st.movRepo, st.alertRepo)

	var wg sync.WaitGroup
	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled() {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers)
		relay := outbox.NewRelay(st.outboxRepo, publisher, outbox.Config{
			Interval:   cfg.Kafka.RelayInterval,
			BatchSize:  cfg.Kafka.BatchSize,
			MaxRetries: cfg.Kafka.MaxRetries,
		}, log, m)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(ctx)
		}()
	} else {
		log.Warn().Msg("KAFKA_BROKERS vacío: los eventos quedan en el outbox sin publicar")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if st.pool != nil {
			if err := st.pool.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Processor: processor,
		Query:     query,
		Metrics:   m,
		Logger:    log,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	wg.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador Kafka")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage abre PostgreSQL o el store en memoria según LEDGER_STORE.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Ledger.Store == config.StoreMemory {
		log.Warn().Msg("usando store en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore(cfg.Ledger.LockTimeout)
		ledgerRepo := store.LedgerRepository()
		return &storage{
			txRunner:   store,
			ledgerRepo: ledgerRepo,
			movRepo:    store.MovementRepository(),
			alertRepo:  ledgerRepo,
			outboxRepo: store.OutboxRepository(),
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema del ledger verificado")
	}
	ledgerRepo := postgres.NewLedgerRepository(pool)
	return &storage{
		txRunner:   postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		ledgerRepo: ledgerRepo,
		movRepo:    postgres.NewMovementRepository(pool),
		alertRepo:  ledgerRepo,
		outboxRepo: postgres.NewOutboxRepository(pool),
		pool:       pool,
	}, nil
}
