package catalog

import (
	"context"

	"github.com/jonathan/partpicker/internal/query"
)

// Category is one (category, subcategory) pair of the catalog taxonomy.
type Category struct {
	ID          int    `json:"id"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// Gateway is read-only access to the parts catalog. Implementations must be safe for
// concurrent use by independent resolutions.
type Gateway interface {
	// ResolveCategory returns the ids of categories whose names contain category and
	// subcategory, ignoring case. No match is an error wrapping ErrNotFound.
	ResolveCategory(ctx context.Context, category, subcategory string) ([]int, error)

	// Query returns every record in one of categoryIDs that satisfies p. An empty
	// categoryIDs means no category scope. Zero matches is an empty slice, not an error.
	Query(ctx context.Context, categoryIDs []int, p query.Predicate) ([]Record, error)

	// GetPart returns the record with the given LCSC number or an error wrapping ErrNotFound.
	GetPart(ctx context.Context, lcsc int) (Record, error)
}
