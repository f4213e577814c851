// internal/utils/metrics.go
package utils

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects in-process counters and histograms
type MetricsCollector struct {
	counters   map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of observed values
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector creates an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// GetMetricsCollector returns the global metrics collector
func GetMetricsCollector() *MetricsCollector {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
	return globalMetrics
}

func (m *MetricsCollector) counter(name string) *int64 {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()
	if exists {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, exists = m.counters[name]; !exists {
		c = new(int64)
		m.counters[name] = c
	}
	return c
}

// IncrementCounter adds one to a counter
func (m *MetricsCollector) IncrementCounter(name string) {
	atomic.AddInt64(m.counter(name), 1)
}

// AddCounter adds value to a counter
func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.counter(name), value)
}

// GetCounterValue returns the current value of a counter
func (m *MetricsCollector) GetCounterValue(name string) int64 {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()
	if !exists {
		return 0
	}
	return atomic.LoadInt64(c)
}

// RecordHistogram records a value in a histogram
func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, exists := m.histograms[name]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if h, exists = m.histograms[name]; !exists {
			h = &Histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// GetMetrics returns a snapshot of all metrics
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(c)
	}

	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"histograms": histograms,
	}
}

// PipelineMetrics records request and pipeline-stage metrics
type PipelineMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

// NewPipelineMetrics creates a recorder over the given collector
func NewPipelineMetrics(metrics *MetricsCollector, logger *Logger) *PipelineMetrics {
	if metrics == nil {
		metrics = GetMetricsCollector()
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &PipelineMetrics{metrics: metrics, logger: logger}
}

// Collector exposes the underlying collector
func (pm *PipelineMetrics) Collector() *MetricsCollector {
	return pm.metrics
}

// RecordAPIRequest records metrics for an API request
func (pm *PipelineMetrics) RecordAPIRequest(endpoint, method string, statusCode int, duration time.Duration) {
	pm.metrics.IncrementCounter("api_requests_total")
	pm.metrics.IncrementCounter("api_requests_" + method + "_" + endpoint)
	pm.metrics.IncrementCounter("api_responses_" + strconv.Itoa(statusCode/100) + "xx")
	pm.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())
}

// RecordGeneration records one script generation attempt
func (pm *PipelineMetrics) RecordGeneration(provider string, ok bool, duration time.Duration) {
	pm.metrics.IncrementCounter("script_generations_total")
	if !ok {
		pm.metrics.IncrementCounter("script_generation_failures_total")
	}
	pm.metrics.IncrementCounter("script_generations_" + provider)
	pm.metrics.RecordHistogram("script_generation_time_ms", duration.Milliseconds())

	pm.logger.Debug("script generation recorded", map[string]interface{}{
		"provider": provider,
		"ok":       ok,
		"duration": duration.Milliseconds(),
	})
}

// RecordBinding records one asset-binding pass
func (pm *PipelineMetrics) RecordBinding(scenes, audioFailures int, duration time.Duration) {
	pm.metrics.IncrementCounter("asset_bindings_total")
	pm.metrics.AddCounter("asset_scenes_bound_total", int64(scenes))
	pm.metrics.AddCounter("asset_audio_failures_total", int64(audioFailures))
	pm.metrics.RecordHistogram("asset_binding_time_ms", duration.Milliseconds())
}

// RecordSynthesis records one speech synthesis call
func (pm *PipelineMetrics) RecordSynthesis(ok, cached bool) {
	switch {
	case cached:
		pm.metrics.IncrementCounter("speech_cache_hits_total")
	case ok:
		pm.metrics.IncrementCounter("speech_synthesis_total")
	default:
		pm.metrics.IncrementCounter("speech_synthesis_failures_total")
	}
}
