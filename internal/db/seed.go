package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/partpicker/internal/catalog"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the catalog tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Seed upserts a catalog snapshot in one transaction. It is meant for local catalogs
// and tests; resolution never writes.
func (db *DB) Seed(ctx context.Context, snap catalog.Snapshot) error {
	return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		for _, c := range snap.Categories {
			_, err := tx.Exec(ctx,
				`INSERT INTO categories (id, category, subcategory) VALUES ($1, $2, $3)
				 ON CONFLICT (id) DO UPDATE SET category = $2, subcategory = $3`,
				c.ID, c.Category, c.Subcategory,
			)
			if err != nil {
				return fmt.Errorf("failed to save category %d: %w", c.ID, err)
			}
		}

		for _, r := range snap.Components {
			price, err := json.Marshal(r.Price)
			if err != nil {
				return fmt.Errorf("failed to marshal price of %s: %w", r.PartID(), err)
			}
			var extra []byte
			if len(r.Extra) > 0 {
				extra = r.Extra
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO components (lcsc, category_id, mfr, package, basic, description, stock, price, extra)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (lcsc) DO UPDATE SET category_id = $2, mfr = $3, package = $4, basic = $5,
				     description = $6, stock = $7, price = $8, extra = $9`,
				r.LCSC, r.CategoryID, r.ManufacturerPN, r.Package, r.Basic, r.Description, r.Stock, price, extra,
			)
			if err != nil {
				return fmt.Errorf("failed to save component %s: %w", r.PartID(), err)
			}
		}
		return nil
	})
}
