package dto

// Límites de paginación del listado de movimientos.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// PageRequest paginación por número de página.
type PageRequest struct {
	Page     int `query:"page"`
	PageSize int `query:"pageSize"`
}

// Normalize aplica valores por defecto: page <= 0 → 1; pageSize fuera de [1, 500] → acotado.
func (p *PageRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset devuelve el desplazamiento SQL de la página.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
