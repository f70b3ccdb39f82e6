package stats

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationUs int64
}

// LatencySnapshot is a point-in-time aggregate of evaluation latencies.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinUs int64   `json:"min_us"`
	MaxUs int64   `json:"max_us"`
	AvgUs float64 `json:"avg_us"`
	P50Us float64 `json:"p50_us"`
	P95Us float64 `json:"p95_us"`
	P99Us float64 `json:"p99_us"`
}

// Counters are monotonic totals since process start.
type Counters struct {
	Evaluations    uint64 `json:"evaluations"`
	Truncations    uint64 `json:"truncations"`
	Overflows      uint64 `json:"overflows"`
	Notices        uint64 `json:"notices"`
	WarningsShown  uint64 `json:"warnings_shown"`
	ReentrantDrops uint64 `json:"reentrant_drops"`
}

// Outcome summarizes one evaluation for recording purposes.
type Outcome struct {
	Truncated    bool
	Overflowed   bool
	Noticed      bool
	WarningShown bool
}

// Recorder tracks evaluation latencies within a rolling window, plus
// monotonic outcome counters.
type Recorder struct {
	mu       sync.Mutex
	samples  []sample
	maxAge   time.Duration
	counters Counters
}

func NewRecorder(maxAge time.Duration) *Recorder {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Recorder{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// RecordEvaluation adds one completed evaluation.
func (r *Recorder) RecordEvaluation(d time.Duration, out Outcome) {
	if d < 0 {
		d = 0
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	r.samples = append(r.samples, sample{timestamp: now, durationUs: d.Microseconds()})

	r.counters.Evaluations++
	if out.Truncated {
		r.counters.Truncations++
	}
	if out.Overflowed {
		r.counters.Overflows++
	}
	if out.Noticed {
		r.counters.Notices++
	}
	if out.WarningShown {
		r.counters.WarningsShown++
	}
}

// RecordDrop counts a change notification dropped by the re-entrancy guard.
func (r *Recorder) RecordDrop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.ReentrantDrops++
}

// Counters returns the current totals.
func (r *Recorder) Counters() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters
}

// Latency returns aggregate latency stats over the rolling window.
func (r *Recorder) Latency() LatencySnapshot {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	if len(r.samples) == 0 {
		return LatencySnapshot{}
	}

	values := make([]int64, 0, len(r.samples))
	var sum int64
	for _, s := range r.samples {
		values = append(values, s.durationUs)
		sum += s.durationUs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return LatencySnapshot{
		Count: len(values),
		MinUs: values[0],
		MaxUs: values[len(values)-1],
		AvgUs: float64(sum) / float64(len(values)),
		P50Us: percentile(values, 50),
		P95Us: percentile(values, 95),
		P99Us: percentile(values, 99),
	}
}

func (r *Recorder) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.maxAge)
	writeIdx := 0
	for _, s := range r.samples {
		if !s.timestamp.Before(cutoff) {
			r.samples[writeIdx] = s
			writeIdx++
		}
	}
	r.samples = r.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
