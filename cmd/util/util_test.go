package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/google/go-cmp/cmp"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/viper"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("short text"); got != "short text" {
		t.Errorf("Expected short text to stay on one line, got %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = (%v, %v), want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("striped", &buf)

	l.Debugf("hidden %d", 1)
	l.Warningf("partition count %d", 6)
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("Debug line written at info level:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN  | striped    | partition count 6") {
		t.Errorf("Unexpected warning line:\n%s", buf.String())
	}

	buf.Reset()
	l.SetLevel(logger.ERROR)
	l.Infof("hidden")
	l.Errorf("failed")
	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "ERROR | striped    | failed") {
		t.Errorf("Unexpected output at error level:\n%s", got)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Expected Panicf to panic")
		}
	}()
	l.Panicf("fatal %s", "state")
}

func setBenchDefaults(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("engines", "mono, striped")
	viper.Set("locks", "mutex,spinrw")
	viper.Set("partitions", 8)
	viper.Set("n", 1000)
	viper.Set("threads", 4)
	viper.Set("read-ratio", 10)
	viper.Set("batch-size", 16)
	viper.Set("optimistic", true)
	viper.Set("skip", "mixed")
	viper.Set("log-level", "info")
}

func TestGetBenchConfig(t *testing.T) {
	setBenchDefaults(t)

	conf, err := GetBenchConfig()
	if err != nil {
		t.Fatalf("GetBenchConfig failed: %v", err)
	}
	if diff := cmp.Diff([]array.Implementation{array.ImplMono, array.ImplStriped}, conf.Engines); diff != "" {
		t.Errorf("Unexpected engines (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]lock.Kind{lock.KindMutex, lock.KindSpinRW}, conf.Locks); diff != "" {
		t.Errorf("Unexpected locks (-want +got):\n%s", diff)
	}
	if !conf.ShouldSkip("mixed") || conf.ShouldSkip("push") {
		t.Errorf("Unexpected skip list %v", conf.Skip)
	}
	viper.Set("engines", "segmented")
	if conf, err := GetBenchConfig(); err != nil || conf.Engines[0] != array.ImplSegmented {
		t.Errorf("Expected the segmented engine to be accepted, got %v", err)
	}
	if !strings.Contains(conf.String(), "Read Ratio") {
		t.Errorf("Configuration summary misses the workload section:\n%s", conf.String())
	}
}

func TestGetBenchConfigRejectsInvalid(t *testing.T) {
	for key, value := range map[string]interface{}{
		"engines":    "btree",
		"locks":      "ticket",
		"threads":    0,
		"batch-size": -1,
	} {
		setBenchDefaults(t)
		viper.Set(key, value)
		if _, err := GetBenchConfig(); err == nil {
			t.Errorf("Expected an error for %s=%v", key, value)
		}
	}
}

func TestNewArray(t *testing.T) {
	setBenchDefaults(t)
	conf, err := GetBenchConfig()
	if err != nil {
		t.Fatalf("GetBenchConfig failed: %v", err)
	}

	for _, impl := range conf.Engines {
		a, err := conf.NewArray(impl, lock.KindSpinRW, nil, "test")
		if err != nil {
			t.Fatalf("NewArray(%s) failed: %v", impl, err)
		}
		a.PushBack(1)
		info := a.Info()
		if info.Impl != impl || info.Len != 1 {
			t.Errorf("Unexpected info %+v", info)
		}
		if impl == array.ImplStriped && info.Partitions != 8 {
			t.Errorf("Expected 8 partitions, got %d", info.Partitions)
		}
	}

	if _, err := conf.NewArray("btree", lock.KindMutex, nil, "test"); err == nil {
		t.Errorf("Expected an error for an unknown engine")
	}
}
