package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-movimientos/internal/application/catalog"
	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
)

// ProductHandler expone el stock del catálogo (/api/products).
type ProductHandler struct {
	uc *catalog.StockUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *catalog.StockUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateStock godoc
// @Summary      Ajustar stock
// @Description  add suma, subtract resta solo si hay stock suficiente. Idempotency-Key evita aplicar dos veces.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id               path    int                     true   "ID del producto"
// @Param        Idempotency-Key  header  string                  false  "Clave de idempotencia"
// @Param        body             body    dto.UpdateStockRequest  true   "Operación"
// @Success      200  {object}  dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stock [patch]
func (h *ProductHandler) UpdateStock(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.AdjustStock(c.UserContext(), id, in, c.Get("Idempotency-Key"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// writeError en el catálogo un producto inexistente es 404 (en el libro es 400).
func (h *ProductHandler) writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	}
	return writeError(c, err)
}
