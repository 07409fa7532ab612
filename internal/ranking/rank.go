// Package ranking orders surviving catalog candidates and picks the winner: preferred
// (basic) parts first, then the cheapest unit price at the order quantity.
package ranking

import (
	"errors"
	"math"
	"slices"
	"sort"

	"github.com/jonathan/partpicker/internal/catalog"
)

// ErrEmpty is returned by Select when there is nothing to choose from.
var ErrEmpty = errors.New("no candidates to rank")

// Ranked is a candidate with the unit price it was ranked by.
type Ranked struct {
	Record    catalog.Record
	UnitPrice float64
}

// Preferred reports whether the part carries the catalog's basic flag.
func (r Ranked) Preferred() bool {
	return r.Record.Basic
}

// PriceAt returns the unit price at quantity: the price of the first tier, in ascending
// upper-bound order with the unbounded tier last, that covers quantity. When no tier
// covers it the result is +Inf so that the part sorts last.
func PriceAt(tiers []catalog.PriceTier, quantity int) float64 {
	if quantity < 1 {
		quantity = 1
	}

	ordered := slices.Clone(tiers)
	slices.SortStableFunc(ordered, func(a, b catalog.PriceTier) int {
		switch {
		case a.MaxQty == nil && b.MaxQty == nil:
			return 0
		case a.MaxQty == nil:
			return 1
		case b.MaxQty == nil:
			return -1
		}
		return *a.MaxQty - *b.MaxQty
	})

	for _, t := range ordered {
		if t.Covers(quantity) {
			return t.Price
		}
	}
	return math.Inf(1)
}

// Rank prices every record at quantity and sorts them: preferred first, then unit price
// ascending. Ties keep input order.
func Rank(records []catalog.Record, quantity int) []Ranked {
	ranked := make([]Ranked, 0, len(records))
	for _, r := range records {
		ranked = append(ranked, Ranked{Record: r, UnitPrice: PriceAt(r.Price, quantity)})
	}

	// Sort by preferred flag, then price
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Preferred() != ranked[j].Preferred() {
			return ranked[i].Preferred()
		}
		return ranked[i].UnitPrice < ranked[j].UnitPrice
	})

	return ranked
}

// Select returns the best-ranked record, or ErrEmpty.
func Select(records []catalog.Record, quantity int) (Ranked, error) {
	if len(records) == 0 {
		return Ranked{}, ErrEmpty
	}
	return Rank(records, quantity)[0], nil
}
