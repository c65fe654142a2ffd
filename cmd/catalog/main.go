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
	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/repository"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-movimientos/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-movimientos/internal/interfaces/http"
	"github.com/jhoicas/Inventario-movimientos/pkg/config"
	"github.com/jhoicas/Inventario-movimientos/pkg/logger"
)

func main() {
	cfg, err := config.Load("inventario-catalogo", 8081)
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
		Msg("iniciando servicio de catálogo")

	ctx := context.Background()

	var (
		txRunner    catalog.TxRunner
		productRepo repository.ProductRepository
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		store := memory.NewCatalog()
		if cfg.App.SeedFile != "" {
			n, err := store.LoadSeedFile(cfg.App.SeedFile)
			if err != nil {
				log.Fatal().Err(err).Str("file", cfg.App.SeedFile).Msg("cargar productos iniciales")
			}
			log.Info().Int("products", n).Msg("catálogo en memoria cargado")
		}
		txRunner, productRepo = store, store
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool, postgres.SchemaCatalog); err != nil {
			log.Fatal().Err(err).Msg("crear esquema del catálogo")
		}
		txRunner = postgres.NewTxRunner(pool)
		productRepo = postgres.NewProductRepository(pool)
	}

	stockUC := catalog.NewStockUseCase(txRunner, productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))

	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario Catálogo API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.CatalogRouter(app, httpRouter.CatalogDeps{Stock: stockUC})

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
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
