package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/gestao-concessionaria-api/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// Migrate aplica o schema embutido. Todas as instruções são idempotentes.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Named("database").Info("Schema aplicado")
	return nil
}
