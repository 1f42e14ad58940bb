package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"escape-room-service/internal/domain"
	"github.com/uptrace/bun"
)

// SeedCatalog upserts catalog as a JSONB document keyed by its id.
func SeedCatalog(ctx context.Context, db bun.IDB, catalog domain.Catalog) error {
	data, err := json.Marshal(catalog)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO catalogs (id, data, updated_at) VALUES (?, ?::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		catalog.ID, string(data))
	if err != nil {
		return fmt.Errorf("seed catalog %q: %w", catalog.ID, err)
	}
	return nil
}
