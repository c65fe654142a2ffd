package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
)

// MovementHandler expone el libro de movimientos (/api/transactions).
type MovementHandler struct {
	saga  *movements.Coordinator
	query *movements.QueryUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(saga *movements.Coordinator, query *movements.QueryUseCase) *MovementHandler {
	return &MovementHandler{saga: saga, query: query}
}

// List godoc
// @Summary      Listar movimientos
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        productId  query  int     false  "Filtrar por producto"
// @Param        type       query  string  false  "PURCHASE o SALE"
// @Param        fromDate   query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        toDate     query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        page       query  int     false  "Página"          default(1)
// @Param        pageSize   query  int     false  "Tamaño de página" default(20)
// @Success      200  {object}  dto.MovementPage
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var q dto.ListMovementsQuery
	q.Page = c.QueryInt("page", dto.DefaultPage)
	q.PageSize = c.QueryInt("pageSize", dto.DefaultPageSize)
	q.Type = c.Query("type")

	if raw := c.Query("productId"); raw != "" {
		id := int64(c.QueryInt("productId", 0))
		if id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "productId inválido"})
		}
		q.ProductID = &id
	}
	var ok bool
	if q.FromDate, ok = parseDate(c.Query("fromDate"), false); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fromDate inválida"})
	}
	if q.ToDate, ok = parseDate(c.Query("toDate"), true); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "toDate inválida"})
	}

	out, err := h.query.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// parseDate acepta RFC3339 o YYYY-MM-DD; una fecha sin hora usada como límite
// superior cubre el día completo.
func parseDate(raw string, endOfDay bool) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.query.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "transacción no encontrada"})
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Registrar compra o venta
// @Description  Ajusta el stock en el catálogo y registra el movimiento; compensa si un lado falla.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *MovementHandler) Create(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.saga.Create(c.UserContext(), movements.FromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movements.ToMovementResponse(m))
}

// Update godoc
// @Summary      Editar movimiento
// @Description  Revierte el efecto anterior y aplica el nuevo (mismo producto: solo la diferencia neta).
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "ID del movimiento"
// @Param        body  body  dto.MovementRequest  true  "Movimiento"
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [put]
func (h *MovementHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.saga.Update(c.UserContext(), id, movements.FromRequest(in))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(movements.ToMovementResponse(m))
}

// Delete godoc
// @Summary      Eliminar movimiento
// @Tags         transactions
// @Security     Bearer
// @Param        id   path  int  true  "ID del movimiento"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [delete]
func (h *MovementHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.saga.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Incidents godoc
// @Summary      Sagas con compensación parcial
// @Description  Movimientos cuyo stock quedó inconsistente y requieren reparación manual.
// @Tags         sagas
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de registros" default(50)
// @Success      200  {array}  dto.SagaLogResponse
// @Router       /api/sagas/incidents [get]
func (h *MovementHandler) Incidents(c *fiber.Ctx) error {
	out, err := h.query.Incidents(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
