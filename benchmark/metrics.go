// Package benchmark - Repeatability benchmark runs over image sequences,
// with JSON and CSV reports.
package benchmark

import (
	"encoding/json"
	"math"
	"time"

	"github.com/nvr-ai/go-ipd/repeatability"
)

// PairResult captures the evaluation of the reference image against one
// other image of a sequence.
type PairResult struct {
	Sequence  string                  `json:"sequence"`
	Pair      int                     `json:"pair"`
	Timestamp time.Time               `json:"timestamp"`
	Summaries []repeatability.Summary `json:"summaries"`

	Regions1   int `json:"regions1"`
	Regions2   int `json:"regions2"`
	Valid1     int `json:"valid1"`
	Valid2     int `json:"valid2"`
	Candidates int `json:"candidates"`
	Degenerate int `json:"degenerate"`

	Timings     Timings       `json:"timings"`
	MemoryStats MemoryMetrics `json:"memory_stats"`
	Overlay     string        `json:"overlay,omitempty"`
}

// Timings splits the time spent on a pair.
type Timings struct {
	Load     time.Duration `json:"load"`
	Evaluate time.Duration `json:"evaluate"`
	Overlay  time.Duration `json:"overlay"`
}

// MemoryMetrics captures memory usage around an evaluation.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
}

// SequenceSummary is the mean repeatability of a sequence at one threshold.
type SequenceSummary struct {
	Sequence  string  `json:"sequence"`
	Threshold float64 `json:"threshold"`
	// Pairs is the number of pairs with a defined repeatability.
	Pairs int `json:"pairs"`
	// Mean is NaN when no pair was defined.
	Mean float64 `json:"-"`
}

// MarshalJSON writes an undefined mean as null.
func (s SequenceSummary) MarshalJSON() ([]byte, error) {
	type plain SequenceSummary
	out := struct {
		plain
		Mean *float64 `json:"mean"`
	}{plain: plain(s)}
	if !math.IsNaN(s.Mean) {
		v := s.Mean
		out.Mean = &v
	}
	return json.Marshal(out)
}

// Aggregate averages the defined repeatabilities per sequence and threshold,
// in the order results were produced.
func Aggregate(results []PairResult) []SequenceSummary {
	type key struct {
		seq string
		th  float64
	}
	index := map[key]int{}
	var out []SequenceSummary
	sums := []float64{}

	for _, r := range results {
		for _, s := range r.Summaries {
			k := key{r.Sequence, s.Threshold}
			i, ok := index[k]
			if !ok {
				i = len(out)
				index[k] = i
				out = append(out, SequenceSummary{Sequence: r.Sequence, Threshold: s.Threshold})
				sums = append(sums, 0)
			}
			if s.Undefined() {
				continue
			}
			out[i].Pairs++
			sums[i] += s.Repeatability
		}
	}
	for i := range out {
		if out[i].Pairs == 0 {
			out[i].Mean = math.NaN()
			continue
		}
		out[i].Mean = sums[i] / float64(out[i].Pairs)
	}
	return out
}
