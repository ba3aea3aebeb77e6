package migrations

import (
	"context"
	"fmt"

	"solana-mm-brain/internal/storage/postgres"
)

// RunPostgresMigrations creates the config and trade result tables. Each
// file runs as one multi-statement Exec.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	migs, err := load(dirPostgres)
	if err != nil {
		return err
	}
	for _, m := range migs {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply postgres migration %s: %w", m.name, err)
		}
	}
	return nil
}
