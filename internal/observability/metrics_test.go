package observability

import (
	"strings"
	"testing"
	"time"
)

func TestCounterVecExposition(t *testing.T) {
	c := NewCounterVec("test_requests_total", "Test requests.", []string{"method", "status"})
	c.Inc("GET", "200")
	c.Inc("GET", "200")
	c.Inc("POST", "500")

	var b strings.Builder
	if err := c.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "# TYPE test_requests_total counter") {
		t.Fatalf("missing TYPE line in %q", out)
	}
	if !strings.Contains(out, `test_requests_total{method="GET",status="200"} 2.0`) {
		t.Fatalf("missing GET sample in %q", out)
	}
	if !strings.Contains(out, `test_requests_total{method="POST",status="500"} 1.0`) {
		t.Fatalf("missing POST sample in %q", out)
	}
}

func TestHistogramVecBuckets(t *testing.T) {
	h := NewHistogramVec("test_latency_seconds", "Test latency.", []string{"route"}, []float64{0.1, 1})
	h.Observe(0.05, "/cart")
	h.Observe(0.5, "/cart")
	h.Observe(2, "/cart")

	var b strings.Builder
	if err := h.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `test_latency_seconds_bucket{route="/cart",le="0.1"} 1`) {
		t.Fatalf("wrong 0.1 bucket in %q", out)
	}
	if !strings.Contains(out, `test_latency_seconds_bucket{route="/cart",le="1"} 2`) {
		t.Fatalf("wrong 1 bucket in %q", out)
	}
	if !strings.Contains(out, `test_latency_seconds_bucket{route="/cart",le="+Inf"} 3`) {
		t.Fatalf("wrong +Inf bucket in %q", out)
	}
	if !strings.Contains(out, `test_latency_seconds_count{route="/cart"} 3`) {
		t.Fatalf("wrong count in %q", out)
	}
}

func TestLabelEscaping(t *testing.T) {
	c := NewCounterVec("test_paths_total", "Paths.", []string{"path"})
	c.Inc(`a"b` + "\n")

	var b strings.Builder
	if err := c.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if !strings.Contains(b.String(), `path="a\"b\n"`) {
		t.Fatalf("label not escaped in %q", b.String())
	}
}

func TestCurrentRegistryRecords(t *testing.T) {
	m := Current()
	before := m.commitRetries.Value()
	m.RecordCommitRetry()
	m.RecordCommit("committed", 10*time.Millisecond)
	m.RecordAPIRequest("GET", "/cart", "200", time.Millisecond)
	if got := m.commitRetries.Value(); got != before+1 {
		t.Fatalf("expected retry counter to advance, got %f from %f", got, before)
	}

	var b strings.Builder
	if err := m.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if !strings.Contains(b.String(), "storefront_order_commits_total") {
		t.Fatal("expected commit counter in exposition")
	}
}
