// Package query is the first-stage search predicate: a small boolean AST over the indexed
// text columns of a catalog record, with an in-memory interpreter and a SQL renderer.
package query

import (
	"strconv"
	"strings"
)

// Row is the part of a catalog record the first stage can see.
type Row struct {
	Description    string
	Package        string
	ManufacturerPN string
	Stock          int
}

// Predicate is a node of the search AST.
type Predicate interface {
	// Matches evaluates the predicate against one row.
	Matches(r Row) bool
	// String renders a readable form for diagnostics.
	String() string
	sql(b *builder) string
}

// And holds when every child holds. An empty And is true.
type And []Predicate

// Or holds when any child holds. An empty Or is false.
type Or []Predicate

// Const is a literal truth value.
type Const bool

// Predicate literals.
const (
	True  = Const(true)
	False = Const(false)
)

// DescriptionToken matches a description that starts with Token or contains " "+Token,
// i.e. Token at a word start.
type DescriptionToken struct{ Token string }

// DescriptionContains matches a description containing Text anywhere.
type DescriptionContains struct{ Text string }

// PackageSuffix matches a package ending in Suffix ("0402" matches "R0402" and "0402").
type PackageSuffix struct{ Suffix string }

// PackageEquals matches a package exactly.
type PackageEquals struct{ Package string }

// StockAbove matches rows with more than Min units in stock.
type StockAbove struct{ Min int }

// ManufacturerPNContains matches a manufacturer part number containing Text, ignoring case.
type ManufacturerPNContains struct{ Text string }

func (p And) Matches(r Row) bool {
	for _, c := range p {
		if !c.Matches(r) {
			return false
		}
	}
	return true
}

func (p Or) Matches(r Row) bool {
	for _, c := range p {
		if c.Matches(r) {
			return true
		}
	}
	return false
}

func (p Const) Matches(Row) bool { return bool(p) }

func (p DescriptionToken) Matches(r Row) bool {
	return strings.HasPrefix(r.Description, p.Token) || strings.Contains(r.Description, " "+p.Token)
}

func (p DescriptionContains) Matches(r Row) bool {
	return strings.Contains(r.Description, p.Text)
}

func (p PackageSuffix) Matches(r Row) bool {
	return strings.HasSuffix(r.Package, p.Suffix)
}

func (p PackageEquals) Matches(r Row) bool {
	return r.Package == p.Package
}

func (p StockAbove) Matches(r Row) bool {
	return r.Stock > p.Min
}

func (p ManufacturerPNContains) Matches(r Row) bool {
	return strings.Contains(strings.ToLower(r.ManufacturerPN), strings.ToLower(p.Text))
}

func (p And) String() string { return join(p, " AND ", "TRUE") }
func (p Or) String() string  { return join(p, " OR ", "FALSE") }

func (p Const) String() string {
	if p {
		return "TRUE"
	}
	return "FALSE"
}

func (p DescriptionToken) String() string       { return "description~" + strconv.Quote(p.Token) }
func (p DescriptionContains) String() string    { return "description*" + strconv.Quote(p.Text) }
func (p PackageSuffix) String() string          { return "package$" + strconv.Quote(p.Suffix) }
func (p PackageEquals) String() string          { return "package=" + strconv.Quote(p.Package) }
func (p StockAbove) String() string             { return "stock>" + strconv.Itoa(p.Min) }
func (p ManufacturerPNContains) String() string { return "mfr*" + strconv.Quote(p.Text) }

func join(ps []Predicate, sep, empty string) string {
	if len(ps) == 0 {
		return empty
	}
	parts := make([]string, len(ps))
	for i, c := range ps {
		parts[i] = c.String()
		if _, nested := c.(And); nested {
			parts[i] = "(" + parts[i] + ")"
		}
		if _, nested := c.(Or); nested {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, sep)
}

// AnyToken is an Or of DescriptionToken clauses.
func AnyToken(tokens ...string) Predicate {
	out := make(Or, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, DescriptionToken{Token: t})
	}
	return out
}

// AnyContains is an Or of DescriptionContains clauses.
func AnyContains(texts ...string) Predicate {
	out := make(Or, 0, len(texts))
	for _, t := range texts {
		out = append(out, DescriptionContains{Text: t})
	}
	return out
}

// AnyPackageSuffix is an Or of PackageSuffix clauses.
func AnyPackageSuffix(suffixes ...string) Predicate {
	out := make(Or, 0, len(suffixes))
	for _, s := range suffixes {
		out = append(out, PackageSuffix{Suffix: s})
	}
	return out
}
