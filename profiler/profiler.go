// Package profiler - Operation timing and counter tracking for benchmark runs.
package profiler

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Profiler records how long named operations take and accumulates numeric
// samples such as candidate counts. It is safe for concurrent use.
type Profiler struct {
	mu         sync.RWMutex
	startTime  time.Time
	maxSamples int
	operations map[string]*tracker
	metrics    map[string]*tracker
}

// tracker holds a sliding window of samples plus lifetime extremes.
type tracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

func (t *tracker) add(v float64, maxSamples int) {
	if t.count == 0 {
		t.min, t.max = v, v
	}
	t.values = append(t.values, v)
	t.sum += v
	if len(t.values) > maxSamples {
		t.sum -= t.values[0]
		t.values = t.values[1:]
	}
	t.count++
	t.min = math.Min(t.min, v)
	t.max = math.Max(t.max, v)
}

func (t *tracker) stats() Stats {
	s := Stats{Count: t.count, Min: t.min, Max: t.max}
	if len(t.values) > 0 {
		s.Mean = t.sum / float64(len(t.values))
	}
	return s
}

// Stats summarises one operation or metric. For operations the values are
// in seconds.
type Stats struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Options configures a Profiler.
type Options struct {
	// MaxSamples bounds the window used for means (default: 1000).
	MaxSamples int
}

// New creates a profiler.
func New(opts Options) *Profiler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 1000
	}
	return &Profiler{
		startTime:  time.Now(),
		maxSamples: opts.MaxSamples,
		operations: make(map[string]*tracker),
		metrics:    make(map[string]*tracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func() time.Duration: Stops the timer, records and returns the elapsed
//     time.
func (p *Profiler) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		p.RecordDuration(name, d)
		return d
	}
}

// RecordDuration records one completed operation.
func (p *Profiler) RecordDuration(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record(p.operations, name, d.Seconds(), p.maxSamples)
}

// RecordMetric records a sample of a named counter.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record(p.metrics, name, value, p.maxSamples)
}

func record(into map[string]*tracker, name string, v float64, maxSamples int) {
	t, ok := into[name]
	if !ok {
		t = &tracker{values: make([]float64, 0, 16)}
		into[name] = t
	}
	t.add(v, maxSamples)
}

// Memory is a snapshot of the Go heap.
type Memory struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	NumGC      uint32 `json:"num_gc"`
}

// ReadMemory samples the runtime memory statistics.
func ReadMemory() Memory {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Memory{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		HeapAlloc:  m.HeapAlloc,
		NumGC:      m.NumGC,
	}
}

// Snapshot is a point-in-time copy of everything the profiler tracks.
type Snapshot struct {
	Uptime     time.Duration    `json:"uptime"`
	Goroutines int              `json:"goroutines"`
	Memory     Memory           `json:"memory"`
	Operations map[string]Stats `json:"operations"`
	Metrics    map[string]Stats `json:"metrics"`
}

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		Memory:     ReadMemory(),
		Operations: make(map[string]Stats, len(p.operations)),
		Metrics:    make(map[string]Stats, len(p.metrics)),
	}
	for name, t := range p.operations {
		s.Operations[name] = t.stats()
	}
	for name, t := range p.metrics {
		s.Metrics[name] = t.stats()
	}
	return s
}

// Operation returns the statistics of one operation, if it was recorded.
func (p *Profiler) Operation(name string) (Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.operations[name]
	if !ok {
		return Stats{}, false
	}
	return t.stats(), true
}

// Report logs a status report, one entry per operation and metric in name
// order.
func (p *Profiler) Report(log logrus.FieldLogger) {
	s := p.Snapshot()

	log.WithFields(logrus.Fields{
		"uptime":     s.Uptime.Truncate(time.Millisecond).String(),
		"goroutines": s.Goroutines,
		"alloc":      FormatBytes(s.Memory.Alloc),
		"sys":        FormatBytes(s.Memory.Sys),
		"gc":         s.Memory.NumGC,
	}).Info("profiler status")

	for _, name := range sortedKeys(s.Operations) {
		st := s.Operations[name]
		log.WithFields(logrus.Fields{
			"operation": name,
			"count":     st.Count,
			"avg":       seconds(st.Mean).String(),
			"min":       seconds(st.Min).String(),
			"max":       seconds(st.Max).String(),
		}).Info("operation timing")
	}
	for _, name := range sortedKeys(s.Metrics) {
		st := s.Metrics[name]
		log.WithFields(logrus.Fields{
			"metric": name,
			"count":  st.Count,
			"avg":    fmt.Sprintf("%.2f", st.Mean),
			"min":    st.Min,
			"max":    st.Max,
		}).Info("metric")
	}
}

// Run calls Report every interval until ctx is done.
func (p *Profiler) Run(ctx context.Context, interval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Report(log)
		}
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second)).Round(time.Microsecond)
}

func sortedKeys(m map[string]Stats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatBytes formats byte counts in human-readable form.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
