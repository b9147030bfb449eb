// Package internal holds building blocks shared by the container engines:
// the sequence-lock state used by optimistic readers and the per-instance
// counter set reported through Info.
package internal

import (
	"fmt"
	"strings"

	"github.com/VictoriaMetrics/metrics"
)

// Counter names (the suffix of every exported metric).
const (
	CounterTryLockFailures     = "try_lock_failures"
	CounterOptimisticHits      = "optimistic_hits"
	CounterOptimisticFallbacks = "optimistic_fallbacks"
	CounterResolveRetries      = "resolve_retries"
	CounterSizeRecomputes      = "size_recomputes"
)

// Counters is the set of operational counters of one container instance.
// All counters are registered in a VictoriaMetrics set as
//
//	tsarray_<counter>_total{engine="<engine>",array="<name>"}
//
// so a caller can expose them with (*metrics.Set).WritePrometheus.
type Counters struct {
	set    *metrics.Set
	labels string

	TryLockFailures     *metrics.Counter
	OptimisticHits      *metrics.Counter
	OptimisticFallbacks *metrics.Counter
	ResolveRetries      *metrics.Counter
	SizeRecomputes      *metrics.Counter
}

// NewCounters registers the counters in set. A nil set creates a private one.
// Containers sharing a set and a name share their counters.
func NewCounters(set *metrics.Set, engine, name string) *Counters {
	if set == nil {
		set = metrics.NewSet()
	}

	c := &Counters{
		set:    set,
		labels: fmt.Sprintf(`{engine=%q,array=%q}`, sanitize(engine), sanitize(name)),
	}
	c.TryLockFailures = set.GetOrCreateCounter(c.metricName(CounterTryLockFailures + "_total"))
	c.OptimisticHits = set.GetOrCreateCounter(c.metricName(CounterOptimisticHits + "_total"))
	c.OptimisticFallbacks = set.GetOrCreateCounter(c.metricName(CounterOptimisticFallbacks + "_total"))
	c.ResolveRetries = set.GetOrCreateCounter(c.metricName(CounterResolveRetries + "_total"))
	c.SizeRecomputes = set.GetOrCreateCounter(c.metricName(CounterSizeRecomputes + "_total"))
	return c
}

// Gauge registers a callback gauge tsarray_<name>{...} backed by f.
// A gauge already registered under the same set and name keeps its first
// callback; Gauge then reports false and f is never called.
func (c *Counters) Gauge(name string, f func() float64) bool {
	full := c.metricName(name)
	for _, existing := range c.set.ListMetricNames() {
		if existing == full {
			return false
		}
	}
	c.set.GetOrCreateGauge(full, f)
	return true
}

// Set returns the metrics set the counters are registered in.
func (c *Counters) Set() *metrics.Set {
	return c.set
}

// Snapshot returns the current counter values keyed by counter name.
func (c *Counters) Snapshot() map[string]uint64 {
	return map[string]uint64{
		CounterTryLockFailures:     c.TryLockFailures.Get(),
		CounterOptimisticHits:      c.OptimisticHits.Get(),
		CounterOptimisticFallbacks: c.OptimisticFallbacks.Get(),
		CounterResolveRetries:      c.ResolveRetries.Get(),
		CounterSizeRecomputes:      c.SizeRecomputes.Get(),
	}
}

func (c *Counters) metricName(suffix string) string {
	return "tsarray_" + suffix + c.labels
}

// sanitize keeps label values inside the quoted label syntax.
func sanitize(s string) string {
	return strings.NewReplacer(`"`, "", `\`, "", "\n", " ").Replace(s)
}
