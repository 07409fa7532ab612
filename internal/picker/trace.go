package picker

import (
	"fmt"
	"strings"
)

// Stage names that are not attribute keys.
const (
	StageCategory = "category"
	StageQuery    = "query"
	StageRank     = "rank"
)

// StageCount is the number of candidates left after one stage.
type StageCount struct {
	Stage     string `json:"stage"`
	Remaining int    `json:"remaining"`
}

// Trace records candidate counts through a resolution, in stage order.
type Trace []StageCount

func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, s := range t {
		parts[i] = fmt.Sprintf("%s=%d", s.Stage, s.Remaining)
	}
	return strings.Join(parts, " -> ")
}

// Last returns the final count, or -1 for an empty trace.
func (t Trace) Last() int {
	if len(t) == 0 {
		return -1
	}
	return t[len(t)-1].Remaining
}
