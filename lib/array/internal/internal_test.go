package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/VictoriaMetrics/metrics"
)

func TestVersionStateMachine(t *testing.T) {
	var v Version

	seq, stable := v.BeginRead()
	if !stable || seq != 0 {
		t.Fatalf("Expected stable sequence 0, got %d (stable=%v)", seq, stable)
	}

	v.BeginWrite()
	if _, stable := v.BeginRead(); stable {
		t.Errorf("Sequence must be unstable during a write")
	}
	if v.Validate(seq) {
		t.Errorf("Validate must fail once a write started")
	}
	v.EndWrite()

	if got := v.Load(); got != 2 {
		t.Errorf("Expected sequence 2 after one write, got %d", got)
	}
	if v.Writes() != 1 {
		t.Errorf("Expected 1 completed write, got %d", v.Writes())
	}

	seq, _ = v.BeginRead()
	if !v.Validate(seq) {
		t.Errorf("Validate must succeed without intervening writes")
	}
}

func TestVersionMisuse(t *testing.T) {
	t.Run("NestedBegin", func(t *testing.T) {
		var v Version
		v.BeginWrite()
		defer func() {
			if recover() == nil {
				t.Errorf("Expected panic on nested BeginWrite")
			}
		}()
		v.BeginWrite()
	})

	t.Run("EndWithoutBegin", func(t *testing.T) {
		var v Version
		defer func() {
			if recover() == nil {
				t.Errorf("Expected panic on EndWrite without BeginWrite")
			}
		}()
		v.EndWrite()
	})
}

func TestCounters(t *testing.T) {
	set := metrics.NewSet()
	c := NewCounters(set, "striped", `my"array`)
	c.TryLockFailures.Inc()
	c.ResolveRetries.Add(3)
	if !c.Gauge("elements", func() float64 { return 42 }) {
		t.Errorf("Expected first gauge registration to succeed")
	}

	snap := c.Snapshot()
	if snap[CounterTryLockFailures] != 1 || snap[CounterResolveRetries] != 3 {
		t.Errorf("Unexpected snapshot: %v", snap)
	}

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	out := buf.String()
	for _, want := range []string{
		`tsarray_try_lock_failures_total{engine="striped",array="myarray"} 1`,
		`tsarray_elements{engine="striped",array="myarray"} 42`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	// a second instance with the same name shares the counters
	dup := NewCounters(set, "striped", "myarray")
	if dup.TryLockFailures.Get() != 1 {
		t.Errorf("Expected shared counter for identical labels")
	}
	if dup.Gauge("elements", func() float64 { return 7 }) {
		t.Errorf("Expected duplicate gauge registration to be reported")
	}
	buf.Reset()
	set.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), `tsarray_elements{engine="striped",array="myarray"} 42`) {
		t.Errorf("Expected the first gauge callback to be kept:\n%s", buf.String())
	}

	if NewCounters(nil, "mono", "x").Set() == nil {
		t.Errorf("Expected a private set when none is given")
	}
}
