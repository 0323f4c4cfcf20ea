// Package tracey is a process-embedded memory-leak detector. The host routes
// its allocations through Watch and Forget; tracey records each live
// allocation with the call stack that produced it and, on demand, attributes
// the unfreed bytes to the code paths responsible.
//
// Every tracked mutation funnels through the registry's single critical
// section, whose per-goroutine reentrancy guard turns recursive calls from
// inside the tracer (symbol resolution, diagnostics, report I/O) into no-ops.
package tracey

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/pprof/profile"

	"github.com/skyformat99/tracey/pkg/diag"
	"github.com/skyformat99/tracey/pkg/registry"
	"github.com/skyformat99/tracey/pkg/report"
	"github.com/skyformat99/tracey/pkg/stack"
	"github.com/skyformat99/tracey/pkg/symbolize"
)

// Version identifies this build of the tracer.
// Format is major.minor.(a)lpha/(b)eta/(r)elease/(c)andidate.
func Version() string {
	return "tracey-0.21.a"
}

// URL points at the project home.
func URL() string {
	return "https://github.com/skyformat99/tracey"
}

// Tracer owns one allocation registry and its report machinery. Hosts that
// are happy with a single process-wide tracer can use the package-level
// functions instead.
type Tracer struct {
	cfg      Config
	diag     *diag.Logger
	resolver *symbolize.Resolver
	reg      *registry.Registry
	gen      *report.Generator

	allocMu   sync.Mutex
	allocBufs map[uintptr][]byte

	shutdown sync.Once
}

// NewTracer creates a tracer with the given configuration.
func NewTracer(cfg Config) *Tracer {
	cfg = cfg.normalize()
	log := diag.New(cfg.Output)
	resolver := symbolize.New(log)
	reg := registry.New(log, resolver)
	// Two tracer frames sit between the host's free and the capture.
	reg.SetReportWildPointers(cfg.ReportWildPointers, 2)
	gen := report.NewGenerator(report.Options{
		Version:   Version(),
		URL:       URL(),
		SkipBegin: cfg.SkipBegin,
		SkipEnd:   cfg.SkipEnd,
		Tab:       cfg.TabChar,
		Linefeed:  cfg.LinefeedChar,
	}, resolver, log)
	return &Tracer{
		cfg:       cfg,
		diag:      log,
		resolver:  resolver,
		reg:       reg,
		gen:       gen,
		allocBufs: make(map[uintptr][]byte),
	}
}

// Config returns the effective configuration.
func (t *Tracer) Config() Config {
	return t.cfg
}

// Registry exposes the underlying registry for collaborators such as the
// embedded dashboard.
func (t *Tracer) Registry() *registry.Registry {
	return t.reg
}

// Diag exposes the diagnostic channel.
func (t *Tracer) Diag() *diag.Logger {
	return t.diag
}

// Watch registers a new live allocation at addr. A nil address is a no-op;
// re-watching a live address replaces the prior record.
func (t *Tracer) Watch(addr uintptr, size uint64) {
	t.watch(addr, size, 1)
}

func (t *Tracer) watch(addr uintptr, size uint64, skip int) {
	if addr == 0 {
		return
	}
	stk := stack.Capture(skip+1, t.cfg.MaxFrames)
	t.reg.Insert(addr, size, stk)
}

// Forget deregisters a live allocation. A nil address is a no-op; forgetting
// an unknown address is absorbed (and reported if wild-pointer reporting is
// on).
func (t *Tracer) Forget(addr uintptr) {
	t.reg.Remove(addr)
}

// Stats snapshots the running counters.
func (t *Tracer) Stats() registry.Stats {
	return t.reg.Stats()
}

// SizeOf returns the tracked size of addr, or 0 when unknown.
func (t *Tracer) SizeOf(addr uintptr) uint64 {
	return t.reg.SizeOf(addr)
}

// Reset clears the registry and advances the id watermark so subsequent
// reports cover only allocations made after this call.
func (t *Tracer) Reset() {
	t.reg.Reset()
}

// Report builds and returns the textual leak report.
func (t *Tracer) Report() string {
	return t.gen.Generate(t.reg.Snapshot(), t.reg.Total())
}

// Folded renders the current leaks in folded-stack form for flame graph
// tooling.
func (t *Tracer) Folded() string {
	return t.gen.Folded(t.reg.Snapshot())
}

// Profile exports the current leaks as a heap-style pprof profile.
func (t *Tracer) Profile() *profile.Profile {
	return t.gen.Profile(t.reg.Snapshot())
}

// View hands a report to the platform's default viewer. The argument is a
// report path or the report text itself.
func (t *Tracer) View(pathOrText string) error {
	path, err := report.View(pathOrText)
	if err != nil {
		return fmt.Errorf("cannot view report: %w", err)
	}
	t.diag.Infof("report available at %s", path)
	return nil
}

// Settings returns the effective configuration as text, one setting per line.
func (t *Tracer) Settings() string {
	c := t.cfg
	lf := c.LinefeedChar
	var b strings.Builder
	fmt.Fprintf(&b, "%s ready%s", Version(), lf)
	fmt.Fprintf(&b, "with MaxFrames=%d%s", c.MaxFrames, lf)
	fmt.Fprintf(&b, "with SkipBegin=%d%s", c.SkipBegin, lf)
	fmt.Fprintf(&b, "with SkipEnd=%d%s", c.SkipEnd, lf)
	fmt.Fprintf(&b, "with ReportWildPointers=%s%s", yesno(c.ReportWildPointers), lf)
	fmt.Fprintf(&b, "with MemsetAllocations=%s%s", yesno(c.MemsetAllocations), lf)
	fmt.Fprintf(&b, "with ReportOnExit=%s%s", yesno(c.ReportOnExit), lf)
	fmt.Fprintf(&b, "with AllocationOverhead=x%g%s", c.AllocationOverhead, lf)
	if c.DashboardAddr != "" {
		fmt.Fprintf(&b, "with Dashboard=%s%s", c.DashboardAddr, lf)
	}
	return b.String()
}

func yesno(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Shutdown emits the final report when configured and tears the registry
// down. Frees arriving afterwards are silent no-ops. Shutdown is idempotent
// and is a call the host makes, not a destructor side effect.
func (t *Tracer) Shutdown() {
	t.shutdown.Do(func() {
		if t.cfg.ReportOnExit {
			if err := t.View(t.Report()); err != nil {
				t.diag.Warnf("cannot open final report: %v", err)
			}
		}
		t.reg.Close()
	})
}
