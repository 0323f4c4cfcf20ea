package tracey

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyformat99/tracey/pkg/registry"
)

func newQuietTracer(t *testing.T, mutate func(*Config)) *Tracer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ReportOnExit = false
	cfg.Output = &bytes.Buffer{}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewTracer(cfg)
}

func TestCleanProgram(t *testing.T) {
	tr := newQuietTracer(t, nil)

	tr.Watch(0x1, 8)
	tr.Forget(0x1)

	st := tr.Stats()
	assert.Equal(t, registry.Stats{LiveCount: 0, LiveBytes: 0, PeakBytes: 8}, st)

	out := tr.Report()
	assert.Contains(t, out, "0 leaks found")
	assert.Contains(t, out, "perfect!")
}

func TestSingleLeakReported(t *testing.T) {
	tr := newQuietTracer(t, nil)

	tr.Watch(0x2, 16)
	out := tr.Report()
	assert.Contains(t, out, "1 leaks found; 16 bytes wasted")
	assert.Contains(t, out, "TestSingleLeakReported")
}

func TestWatchForgetRoundTripPreservesStats(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x10, 100)
	tr.Forget(0x10)
	before := tr.Stats()

	tr.Watch(0x11, 50)
	tr.Forget(0x11)
	after := tr.Stats()

	assert.Equal(t, before.LiveCount, after.LiveCount)
	assert.Equal(t, before.LiveBytes, after.LiveBytes)
}

func TestDoubleWatch(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x3, 10)
	tr.Watch(0x3, 20)
	tr.Forget(0x3)

	st := tr.Stats()
	assert.Equal(t, uint64(0), st.LiveCount)
	assert.Equal(t, uint64(0), st.LiveBytes)
}

func TestNullPointerBoundaries(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0, 8)
	tr.Forget(0)
	assert.Equal(t, registry.Stats{}, tr.Stats())
}

func TestZeroByteWatch(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x5, 0)
	st := tr.Stats()
	assert.Equal(t, uint64(1), st.LiveCount)
	assert.Equal(t, uint64(0), st.LiveBytes)
	assert.Equal(t, uint64(0), tr.SizeOf(0x5))
}

func TestSizeOf(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x6, 77)
	assert.Equal(t, uint64(77), tr.SizeOf(0x6))
	assert.Equal(t, uint64(0), tr.SizeOf(0x7))
}

func TestWildFreeDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	tr := newQuietTracer(t, func(c *Config) {
		c.ReportWildPointers = true
		c.Output = &buf
	})

	tr.Watch(0x1, 8)
	before := tr.Stats()
	tr.Forget(0xDEADBEEF)

	assert.Equal(t, before, tr.Stats())
	assert.Equal(t, 1, strings.Count(buf.String(), "wild pointer deallocation"))
}

func TestResetFiltersReport(t *testing.T) {
	tr := newQuietTracer(t, nil)

	tr.Watch(0xa, 5)
	tr.Reset()
	assert.Equal(t, registry.Stats{}, tr.Stats())

	tr.Watch(0xb, 7)
	out := tr.Report()
	assert.Contains(t, out, "1 leaks found; 7 bytes wasted")
}

func TestResetThenReportIsClean(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x1, 10)
	tr.Watch(0x2, 20)
	tr.Reset()

	out := tr.Report()
	assert.Contains(t, out, "0 leaks found")
	assert.Contains(t, out, "perfect!")
}

func TestAllocReleaseRoundTrip(t *testing.T) {
	tr := newQuietTracer(t, nil)

	buf := tr.Alloc(32)
	require.Len(t, buf, 32)
	st := tr.Stats()
	assert.Equal(t, uint64(1), st.LiveCount)
	assert.Equal(t, uint64(32), st.LiveBytes)

	tr.Release(buf)
	st = tr.Stats()
	assert.Equal(t, uint64(0), st.LiveCount)
	assert.Equal(t, uint64(0), st.LiveBytes)
}

func TestAllocZeroBytes(t *testing.T) {
	tr := newQuietTracer(t, nil)
	buf := tr.Alloc(0)
	assert.Len(t, buf, 0)
	assert.Equal(t, uint64(1), tr.Stats().LiveCount)
	tr.Release(buf)
	assert.Equal(t, uint64(0), tr.Stats().LiveCount)
}

func TestAllocationOverheadPadsCapacity(t *testing.T) {
	tr := newQuietTracer(t, func(c *Config) {
		c.AllocationOverhead = 2.0
	})
	buf := tr.Alloc(16)
	assert.Len(t, buf, 16)
	assert.GreaterOrEqual(t, cap(buf), 32)
	// Recorded size is what was asked for, not the padded capacity.
	assert.Equal(t, uint64(16), tr.Stats().LiveBytes)
}

func TestNop(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Nop()
	st := tr.Stats()
	assert.Equal(t, uint64(0), st.LiveCount)
	assert.Equal(t, uint64(1), st.PeakBytes)
}

func TestReleaseNilIsNoOp(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Release(nil)
	assert.Equal(t, registry.Stats{}, tr.Stats())
}

func TestSettingsDump(t *testing.T) {
	tr := newQuietTracer(t, nil)
	s := tr.Settings()
	assert.Contains(t, s, Version())
	assert.Contains(t, s, "with MaxFrames=128")
	assert.Contains(t, s, "with ReportWildPointers=no")
	assert.Contains(t, s, "with ReportOnExit=no")
	assert.Contains(t, s, "with AllocationOverhead=x1")
}

func TestConfigNormalization(t *testing.T) {
	tr := newQuietTracer(t, func(c *Config) {
		c.MaxFrames = -1
		c.AllocationOverhead = 0.5
		c.SkipBegin = -3
	})
	cfg := tr.Config()
	assert.Equal(t, 128, cfg.MaxFrames)
	assert.Equal(t, 1.0, cfg.AllocationOverhead)
	assert.Equal(t, 0, cfg.SkipBegin)
}

func TestShutdownTearsDownRegistry(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x1, 8)
	tr.Shutdown()

	// Frees arriving after teardown are silent no-ops.
	tr.Forget(0x1)
	tr.Watch(0x2, 8)
	assert.Equal(t, registry.Stats{}, tr.Stats())

	// Shutdown is idempotent.
	tr.Shutdown()
}

func TestReportDeterministicForSameState(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x1, 10)
	tr.Watch(0x2, 20)

	a := tr.Report()
	b := tr.Report()

	// The timestamp line is clock-dependent; everything else must match.
	trim := func(s string) string {
		lines := strings.Split(s, "\n")
		out := lines[:0]
		for _, l := range lines {
			if strings.Contains(l, "report created on") {
				continue
			}
			out = append(out, l)
		}
		return strings.Join(out, "\n")
	}
	assert.Equal(t, trim(a), trim(b))
}

func TestProfileAndFoldedExports(t *testing.T) {
	tr := newQuietTracer(t, nil)
	tr.Watch(0x1, 24)

	p := tr.Profile()
	require.NoError(t, p.CheckValid())
	require.Len(t, p.Sample, 1)
	assert.Equal(t, []int64{1, 24}, p.Sample[0].Value)

	folded := tr.Folded()
	assert.Contains(t, folded, " 24\n")
	assert.Contains(t, folded, "TestProfileAndFoldedExports")
}

func TestVersionAndURL(t *testing.T) {
	assert.NotEmpty(t, Version())
	assert.True(t, strings.HasPrefix(URL(), "https://"))
}
