package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	//go:embed schema/ledger.sql
	ledgerSchema string
	//go:embed schema/catalog.sql
	catalogSchema string
)

// Esquemas disponibles para EnsureSchema.
const (
	SchemaLedger  = "ledger"
	SchemaCatalog = "catalog"
)

// EnsureSchema crea las tablas del servicio si no existen (sentencias idempotentes).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, name string) error {
	var ddl string
	switch name {
	case SchemaLedger:
		ddl = ledgerSchema
	case SchemaCatalog:
		ddl = catalogSchema
	default:
		return fmt.Errorf("esquema desconocido: %s", name)
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("aplicar esquema %s: %w", name, err)
	}
	return nil
}
