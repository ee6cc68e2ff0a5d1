// Package telemetry aggregates search metrics in memory and flushes
// them periodically to SQLite. Recording never blocks a search and
// never fails one: telemetry errors are logged and dropped.
package telemetry

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LatencyBucket is a histogram bucket label.
type LatencyBucket string

const (
	BucketUnder10ms  LatencyBucket = "<10ms"
	Bucket10to50ms   LatencyBucket = "10-50ms"
	Bucket50to100ms  LatencyBucket = "50-100ms"
	Bucket100to500ms LatencyBucket = "100-500ms"
	BucketOver500ms  LatencyBucket = ">500ms"
)

// LatencyToBucket maps a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 10*time.Millisecond:
		return BucketUnder10ms
	case d < 50*time.Millisecond:
		return Bucket10to50ms
	case d < 100*time.Millisecond:
		return Bucket50to100ms
	case d < 500*time.Millisecond:
		return Bucket100to500ms
	default:
		return BucketOver500ms
	}
}

// SearchEvent is one recorded search.
type SearchEvent struct {
	Query       string
	ResultCount int
	Degraded    bool
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult reports whether the search found nothing.
func (e SearchEvent) IsZeroResult() bool {
	return e.ResultCount == 0 && strings.TrimSpace(e.Query) != ""
}

// zeroResultCap bounds the retained zero-result query list.
const zeroResultCap = 100

// Snapshot is a point-in-time copy of the aggregated metrics.
type Snapshot struct {
	TotalSearches     int64                   `json:"total_searches"`
	ZeroResults       int64                   `json:"zero_results"`
	DegradedSearches  int64                   `json:"degraded_searches"`
	LatencyHistogram  map[LatencyBucket]int64 `json:"latency_histogram"`
	RecentZeroQueries []string                `json:"recent_zero_queries"`
}

// ZeroResultRate returns the fraction of searches that found nothing.
func (s *Snapshot) ZeroResultRate() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResults) / float64(s.TotalSearches)
}

// Metrics aggregates search events. Safe for concurrent use.
type Metrics struct {
	mu          sync.Mutex
	total       int64
	zeroResults int64
	degraded    int64
	latency     map[LatencyBucket]int64
	zeroQueries []string

	store  *MetricsStore
	logger *slog.Logger

	flushStop chan struct{}
	flushDone chan struct{}
}

// NewMetrics creates a metrics aggregator. store may be nil, in which
// case Flush is a no-op and everything stays in memory.
func NewMetrics(store *MetricsStore, logger *slog.Logger) *Metrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Metrics{
		latency: make(map[LatencyBucket]int64),
		store:   store,
		logger:  logger,
	}
}

// Record adds one search event.
func (m *Metrics) Record(event SearchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.latency[LatencyToBucket(event.Latency)]++
	if event.Degraded {
		m.degraded++
	}
	if event.IsZeroResult() {
		m.zeroResults++
		m.zeroQueries = append(m.zeroQueries, event.Query)
		if len(m.zeroQueries) > zeroResultCap {
			m.zeroQueries = m.zeroQueries[len(m.zeroQueries)-zeroResultCap:]
		}
	}
}

// Snapshot returns a copy of the current aggregates.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	hist := make(map[LatencyBucket]int64, len(m.latency))
	for k, v := range m.latency {
		hist[k] = v
	}
	queries := make([]string, len(m.zeroQueries))
	copy(queries, m.zeroQueries)

	return &Snapshot{
		TotalSearches:     m.total,
		ZeroResults:       m.zeroResults,
		DegradedSearches:  m.degraded,
		LatencyHistogram:  hist,
		RecentZeroQueries: queries,
	}
}

// Flush persists and resets the pending aggregates.
func (m *Metrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	latency := m.latency
	zeroQueries := m.zeroQueries
	m.latency = make(map[LatencyBucket]int64)
	m.zeroQueries = nil
	m.mu.Unlock()

	today := time.Now().UTC().Format("2006-01-02")
	if err := m.store.SaveLatencyCounts(today, latency); err != nil {
		return err
	}
	return m.store.SaveZeroResultQueries(zeroQueries)
}

// StartFlusher flushes on the given interval until StopFlusher.
func (m *Metrics) StartFlusher(interval time.Duration) {
	if m.store == nil || interval <= 0 {
		return
	}
	m.flushStop = make(chan struct{})
	m.flushDone = make(chan struct{})

	go func() {
		defer close(m.flushDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.flushStop:
				return
			case <-ticker.C:
				if err := m.Flush(); err != nil {
					m.logger.Warn("flush search metrics", "error", err)
				}
			}
		}
	}()
}

// StopFlusher halts the periodic flusher and performs a final flush.
func (m *Metrics) StopFlusher() {
	if m.flushStop == nil {
		return
	}
	close(m.flushStop)
	<-m.flushDone
	m.flushStop = nil

	if err := m.Flush(); err != nil {
		m.logger.Warn("final metrics flush", "error", err)
	}
}
