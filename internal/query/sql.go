package query

import (
	"strconv"
	"strings"
)

// Column names of the components table.
const (
	ColumnDescription = "description"
	ColumnPackage     = "package"
	ColumnStock       = "stock"
	ColumnMfr         = "mfr"
)

type builder struct {
	args []any
	next int
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	ph := "$" + strconv.Itoa(b.next)
	b.next++
	return ph
}

// ToSQL renders p as a PostgreSQL boolean expression. Placeholders are numbered from
// startArg, so the fragment can follow arguments the caller already bound.
func ToSQL(p Predicate, startArg int) (string, []any) {
	if startArg < 1 {
		startArg = 1
	}
	b := &builder{next: startArg}
	return p.sql(b), b.args
}

// EscapeLike escapes the LIKE metacharacters of s with a backslash.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func like(b *builder, column, pattern string) string {
	return column + " LIKE " + b.arg(pattern) + ` ESCAPE '\'`
}

func (p And) sql(b *builder) string { return joinSQL(b, p, " AND ", "TRUE") }
func (p Or) sql(b *builder) string  { return joinSQL(b, p, " OR ", "FALSE") }

func (p Const) sql(*builder) string { return p.String() }

func (p DescriptionToken) sql(b *builder) string {
	tok := EscapeLike(p.Token)
	return "(" + like(b, ColumnDescription, tok+"%") + " OR " + like(b, ColumnDescription, "% "+tok+"%") + ")"
}

func (p DescriptionContains) sql(b *builder) string {
	return like(b, ColumnDescription, "%"+EscapeLike(p.Text)+"%")
}

func (p PackageSuffix) sql(b *builder) string {
	return like(b, ColumnPackage, "%"+EscapeLike(p.Suffix))
}

func (p PackageEquals) sql(b *builder) string {
	return ColumnPackage + " = " + b.arg(p.Package)
}

func (p StockAbove) sql(b *builder) string {
	return ColumnStock + " > " + b.arg(p.Min)
}

func (p ManufacturerPNContains) sql(b *builder) string {
	return ColumnMfr + " ILIKE " + b.arg("%"+EscapeLike(p.Text)+"%") + ` ESCAPE '\'`
}

func joinSQL(b *builder, ps []Predicate, sep, empty string) string {
	if len(ps) == 0 {
		return empty
	}
	parts := make([]string, len(ps))
	for i, c := range ps {
		parts[i] = c.sql(b)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
