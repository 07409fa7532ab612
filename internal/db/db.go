// Package db provides PostgreSQL access to the parts catalog.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/partpicker/internal/catalog"
	"github.com/jonathan/partpicker/internal/query"
)

// DB wraps a PostgreSQL connection pool and implements catalog.Gateway.
type DB struct {
	pool *pgxpool.Pool
}

var _ catalog.Gateway = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// ResolveCategory returns the ids of categories matching both names, ignoring case.
func (db *DB) ResolveCategory(ctx context.Context, category, subcategory string) ([]int, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id FROM categories
		 WHERE category ILIKE $1 ESCAPE '\' AND subcategory ILIKE $2 ESCAPE '\'
		 ORDER BY id`,
		"%"+query.EscapeLike(category)+"%", "%"+query.EscapeLike(subcategory)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("category %q / %q: %w", category, subcategory, catalog.ErrNotFound)
	}
	return ids, nil
}

const componentColumns = `lcsc, mfr, category_id, package, stock, basic, description, price, extra`

// Query returns the components in categoryIDs that satisfy p.
func (db *DB) Query(ctx context.Context, categoryIDs []int, p query.Predicate) ([]catalog.Record, error) {
	sql := `SELECT ` + componentColumns + ` FROM components WHERE `
	args := []any{}
	argNum := 1

	if len(categoryIDs) > 0 {
		sql += fmt.Sprintf("category_id = ANY($%d) AND ", argNum)
		args = append(args, categoryIDs)
		argNum++
	}

	where, whereArgs := query.ToSQL(p, argNum)
	sql += where
	args = append(args, whereArgs...)

	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	records := []catalog.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read components: %w", err)
	}
	return records, nil
}

// GetPart retrieves one component by LCSC number.
func (db *DB) GetPart(ctx context.Context, lcsc int) (catalog.Record, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+componentColumns+` FROM components WHERE lcsc = $1`, lcsc)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Record{}, fmt.Errorf("part C%d: %w", lcsc, catalog.ErrNotFound)
	}
	if err != nil {
		return catalog.Record{}, err
	}
	return r, nil
}

func scanRecord(row pgx.Row) (catalog.Record, error) {
	var (
		r     catalog.Record
		price []byte
		extra []byte
	)
	if err := row.Scan(&r.LCSC, &r.ManufacturerPN, &r.CategoryID, &r.Package, &r.Stock, &r.Basic, &r.Description, &price, &extra); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("failed to scan component: %w", err)
	}

	// An unreadable price list leaves the part unpriced; ranking sorts it last
	if len(price) > 0 && json.Unmarshal(price, &r.Price) != nil {
		r.Price = nil
	}
	if len(extra) > 0 {
		r.Extra = json.RawMessage(extra)
	}
	return r, nil
}
