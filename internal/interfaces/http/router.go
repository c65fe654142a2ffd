package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
)

// RouterDeps dependencias del servicio de movimientos.
type RouterDeps struct {
	Saga      *movements.Coordinator
	Query     *movements.QueryUseCase
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas del libro de movimientos.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	h := NewMovementHandler(deps.Saga, deps.Query)
	tx := api.Group("/transactions")
	tx.Get("/", h.List)
	tx.Get("/:id", h.GetByID)
	tx.Post("/", h.Create)
	tx.Put("/:id", h.Update)
	tx.Delete("/:id", h.Delete)

	api.Get("/sagas/incidents", h.Incidents)
}

// CatalogDeps dependencias del servicio de catálogo.
type CatalogDeps struct {
	Stock *catalog.StockUseCase
}

// CatalogRouter registra las rutas del catálogo. Es un servicio interno: sin JWT.
func CatalogRouter(app *fiber.App, deps CatalogDeps) {
	api := app.Group("/api")

	h := NewProductHandler(deps.Stock)
	products := api.Group("/products")
	products.Get("/:id", h.GetByID)
	products.Patch("/:id/stock", h.UpdateStock)
}
