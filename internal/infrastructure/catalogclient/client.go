package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-movimientos/internal/application/dto"
	"github.com/jhoicas/Inventario-movimientos/internal/application/movements"
	"github.com/jhoicas/Inventario-movimientos/internal/domain"
	"github.com/jhoicas/Inventario-movimientos/internal/domain/entity"
)

// Verificar en tiempo de compilación que Client implementa movements.StockClient.
var _ movements.StockClient = (*Client)(nil)

// IdempotencyHeader cabecera con la clave de idempotencia de cada ajuste.
const IdempotencyHeader = "Idempotency-Key"

// DefaultTimeout tiempo máximo por llamada al catálogo.
const DefaultTimeout = 10 * time.Second

// Client adaptador HTTP hacia el servicio de catálogo. Traduce transporte y códigos de estado
// a errores de dominio. No reintenta: un fallo de red es un fallo definitivo para la saga.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New construye el cliente. baseURL apunta a la colección de productos,
// p. ej. "http://catalog:8081/api/products". timeout <= 0 usa DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// errorBody cuerpo de error del catálogo (dto.ErrorResponse).
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Fetch obtiene el producto: 404 → ErrProductNotFound; otro no-2xx → *UpstreamError;
// red, timeout o cancelación → ErrServiceUnavailable.
func (c *Client) Fetch(ctx context.Context, productID int64) (*entity.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.productURL(productID), nil)
	if err != nil {
		return nil, fmt.Errorf("catálogo: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// Adjust aplica add/subtract sobre el stock. Un 400 con código INSUFFICIENT_STOCK se traduce
// a ErrInsufficientStock; el resto de errores igual que Fetch.
func (c *Client) Adjust(ctx context.Context, productID int64, op entity.StockOperation, quantity int, idempotencyKey string) (*entity.Product, error) {
	body, err := json.Marshal(dto.UpdateStockRequest{Operation: string(op), Quantity: quantity})
	if err != nil {
		return nil, fmt.Errorf("catálogo: serializar request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.productURL(productID)+"/stock", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("catálogo: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}
	return c.do(req)
}

func (c *Client) productURL(productID int64) string {
	return c.baseURL + "/" + strconv.FormatInt(productID, 10)
}

func (c *Client) do(req *http.Request) (*entity.Product, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout del cliente, cancelación del contexto o error de red.
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: leer respuesta: %w", domain.ErrServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var p dto.ProductResponse
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &domain.UpstreamError{Status: http.StatusBadGateway, Message: "datos del producto no válidos"}
		}
		return toEntity(p), nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrProductNotFound
	case resp.StatusCode == http.StatusBadRequest:
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		if isInsufficientStock(eb) {
			return nil, domain.ErrInsufficientStock
		}
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Message: eb.Message}
	default:
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Message: eb.Message}
	}
}

// isInsufficientStock reconoce el rechazo por stock tanto por código como por el mensaje
// "No hay suficiente stock disponible." de catálogos que responden solo con Message.
func isInsufficientStock(eb errorBody) bool {
	if eb.Code != "" {
		return eb.Code == "INSUFFICIENT_STOCK"
	}
	return strings.Contains(strings.ToLower(eb.Message), "suficiente stock")
}

func toEntity(p dto.ProductResponse) *entity.Product {
	return &entity.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
