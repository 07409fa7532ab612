package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/jonathan/partpicker/internal/query"
)

// Snapshot is the JSON file form of a catalog extract.
type Snapshot struct {
	Categories []Category `json:"categories"`
	Components []Record   `json:"components"`
}

// Memory is an in-memory Gateway. Records may be added while queries run.
type Memory struct {
	mu         sync.RWMutex
	categories []Category
	records    []Record
	byLCSC     map[int]int
}

// NewMemory builds a gateway over copies of categories and records.
func NewMemory(categories []Category, records []Record) *Memory {
	m := &Memory{
		categories: slices.Clone(categories),
		records:    slices.Clone(records),
		byLCSC:     make(map[int]int, len(records)),
	}
	for i, r := range m.records {
		m.byLCSC[r.LCSC] = i
	}
	return m
}

// LoadSnapshot reads a catalog snapshot file into a Memory gateway.
func LoadSnapshot(path string) (*Memory, error) {
	snap, err := ReadSnapshot(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(snap.Categories, snap.Components), nil
}

// ReadSnapshot reads and decodes a catalog snapshot file.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read catalog snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse catalog snapshot: %w", err)
	}
	return snap, nil
}

// ParseSnapshot decodes snapshot JSON into a Memory gateway.
func ParseSnapshot(data []byte) (*Memory, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse catalog snapshot: %w", err)
	}
	return NewMemory(snap.Categories, snap.Components), nil
}

// Len returns the number of records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// ResolveCategory implements Gateway.
func (m *Memory) ResolveCategory(ctx context.Context, category, subcategory string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	cat := strings.ToLower(category)
	sub := strings.ToLower(subcategory)
	var ids []int
	for _, c := range m.categories {
		if strings.Contains(strings.ToLower(c.Category), cat) && strings.Contains(strings.ToLower(c.Subcategory), sub) {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("category %q / %q: %w", category, subcategory, ErrNotFound)
	}
	return ids, nil
}

// Query implements Gateway.
func (m *Memory) Query(ctx context.Context, categoryIDs []int, p query.Predicate) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Record{}
	for _, r := range m.records {
		if len(categoryIDs) > 0 && !slices.Contains(categoryIDs, r.CategoryID) {
			continue
		}
		if p.Matches(r.Row()) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetPart implements Gateway.
func (m *Memory) GetPart(ctx context.Context, lcsc int) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byLCSC[lcsc]
	if !ok {
		return Record{}, fmt.Errorf("part C%d: %w", lcsc, ErrNotFound)
	}
	return m.records[i], nil
}

// Add appends records, replacing any with the same LCSC number.
func (m *Memory) Add(records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if i, ok := m.byLCSC[r.LCSC]; ok {
			m.records[i] = r
			continue
		}
		m.byLCSC[r.LCSC] = len(m.records)
		m.records = append(m.records, r)
	}
}
