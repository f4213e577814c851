package utils

import (
	"sync"
	"testing"
	"time"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter("hits")
			m.AddCounter("bytes", 10)
		}()
	}
	wg.Wait()

	if got := m.GetCounterValue("hits"); got != 50 {
		t.Errorf("hits = %d, want 50", got)
	}
	if got := m.GetCounterValue("bytes"); got != 500 {
		t.Errorf("bytes = %d, want 500", got)
	}
	if got := m.GetCounterValue("missing"); got != 0 {
		t.Errorf("missing counter = %d, want 0", got)
	}
}

func TestHistogramSnapshot(t *testing.T) {
	m := NewMetricsCollector()
	for _, v := range []int64{5, 1, 9} {
		m.RecordHistogram("latency", v)
	}

	snapshot := m.GetMetrics()
	histograms := snapshot["histograms"].(map[string]map[string]int64)
	h := histograms["latency"]
	if h["count"] != 3 || h["sum"] != 15 || h["min"] != 1 || h["max"] != 9 {
		t.Errorf("unexpected histogram %+v", h)
	}
}

func TestPipelineMetricsStatusClass(t *testing.T) {
	m := NewMetricsCollector()
	pm := NewPipelineMetrics(m, NewNopLogger())

	pm.RecordAPIRequest("/api/health", "GET", 200, time.Millisecond)
	pm.RecordAPIRequest("/api/health", "GET", 502, time.Millisecond)
	pm.RecordSynthesis(true, false)
	pm.RecordSynthesis(false, false)
	pm.RecordSynthesis(true, true)

	if got := m.GetCounterValue("api_responses_2xx"); got != 1 {
		t.Errorf("2xx = %d, want 1", got)
	}
	if got := m.GetCounterValue("api_responses_5xx"); got != 1 {
		t.Errorf("5xx = %d, want 1", got)
	}
	if got := m.GetCounterValue("speech_cache_hits_total"); got != 1 {
		t.Errorf("cache hits = %d, want 1", got)
	}
	if got := m.GetCounterValue("speech_synthesis_failures_total"); got != 1 {
		t.Errorf("synthesis failures = %d, want 1", got)
	}
}
