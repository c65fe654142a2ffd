// @title           Inventario Movimientos API
// @version         1.0
// @description     Libro de compras y ventas con ajuste de stock coordinado por sagas.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jhoicas/Inventario-movimientos/docs"
	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/catalogclient"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-movimientos/internal/interfaces/http"
	"github.com/jhoicas/Inventario-movimientos/pkg/config"
	"github.com/jhoicas/Inventario-movimientos/pkg/logger"
)

func main() {
	cfg, err := config.Load("inventario-movimientos", 8080)
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
		Str("storage", cfg.App.Storage).
		Str("catalog", cfg.Catalog.BaseURL).
		Msg("iniciando servicio de movimientos")

	ctx := context.Background()

	var (
		txRunner movements.TxRunner
		movRepo  repository.MovementRepository
		journal  repository.SagaLogRepository
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		ledger := memory.NewLedger()
		txRunner, movRepo, journal = ledger, ledger, ledger
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool, postgres.SchemaLedger); err != nil {
			log.Fatal().Err(err).Msg("crear esquema del libro")
		}
		txRunner = postgres.NewTxRunner(pool)
		movRepo = postgres.NewMovementRepository(pool)
		journal = postgres.NewSagaLogRepository(pool)
	}

	stockClient := catalogclient.New(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	sagaUC := movements.NewCoordinator(txRunner, stockClient, journal, log.Zerolog())
	queryUC := movements.NewQueryUseCase(movRepo, journal)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Movimientos API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Saga:      sagaUC,
		Query:     queryUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Las sagas en curso terminan: commit, rollback y compensaciones no dependen del ctx de la petición.
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
