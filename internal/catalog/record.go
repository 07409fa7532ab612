// Package catalog defines the supplier parts catalog as seen by the resolver: records,
// price tiers, sparse per-record attributes and the read-only Gateway contract.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/partpicker/internal/query"
)

// NotApplicable is the attribute marker the catalog uses for "no value".
const NotApplicable = "-"

// PriceTier is one quantity band of a part's price curve. MaxQty nil means unbounded.
type PriceTier struct {
	MinQty int     `json:"qFrom"`
	MaxQty *int    `json:"qTo"`
	Price  float64 `json:"price"`
}

// Unbounded reports whether the tier has no upper quantity.
func (t PriceTier) Unbounded() bool {
	return t.MaxQty == nil
}

// Covers reports whether quantity falls at or below the tier's upper bound.
func (t PriceTier) Covers(quantity int) bool {
	return t.MaxQty == nil || quantity <= *t.MaxQty
}

// Record is one purchasable part. Records are values; gateways hand out copies.
type Record struct {
	LCSC           int             `json:"lcsc"`
	ManufacturerPN string          `json:"mfr"`
	CategoryID     int             `json:"category_id"`
	Package        string          `json:"package"`
	Stock          int             `json:"stock"`
	Basic          bool            `json:"basic"`
	Price          []PriceTier     `json:"price"`
	Description    string          `json:"description"`
	Extra          json.RawMessage `json:"extra,omitempty"`
}

// PartID returns the supplier part number, e.g. "C25744".
func (r Record) PartID() string {
	return "C" + strconv.Itoa(r.LCSC)
}

// ParsePartID is the inverse of PartID; a bare number is accepted too.
func ParsePartID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(id)), "C"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid part id %q", id)
	}
	return n, nil
}

// Attributes decodes the "attributes" object of the record's extra blob. Values that are
// JSON strings are returned unquoted; numbers and other literals are returned as written.
// The blob is decoded on every call; callers that test several keys should keep the map.
func (r Record) Attributes() (map[string]string, error) {
	if len(r.Extra) == 0 {
		return nil, &AttributeError{PartID: r.PartID(), Message: "record has no extra data"}
	}

	var extra struct {
		Attributes map[string]json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(r.Extra, &extra); err != nil {
		return nil, &AttributeError{PartID: r.PartID(), Message: "malformed extra data", Cause: err}
	}
	if extra.Attributes == nil {
		return nil, &AttributeError{PartID: r.PartID(), Message: "extra data has no attributes"}
	}

	out := make(map[string]string, len(extra.Attributes))
	for k, raw := range extra.Attributes {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(raw)
	}
	return out, nil
}

// Attribute returns one attribute value. A missing key or the not-applicable marker is an error.
func (r Record) Attribute(key string) (string, error) {
	attrs, err := r.Attributes()
	if err != nil {
		return "", err
	}
	return Lookup(r.PartID(), attrs, key)
}

// Lookup reads key from an already decoded attribute map.
func Lookup(partID string, attrs map[string]string, key string) (string, error) {
	v, ok := attrs[key]
	if !ok {
		return "", &AttributeError{PartID: partID, Key: key, Message: "attribute missing"}
	}
	v = strings.TrimSpace(v)
	if v == "" || v == NotApplicable {
		return "", &AttributeError{PartID: partID, Key: key, Message: "attribute not applicable"}
	}
	return v, nil
}

// Row returns the fields the first-stage predicate is evaluated against.
func (r Record) Row() query.Row {
	return query.Row{
		Description:    r.Description,
		Package:        r.Package,
		ManufacturerPN: r.ManufacturerPN,
		Stock:          r.Stock,
	}
}
