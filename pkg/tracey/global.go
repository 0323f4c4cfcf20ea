package tracey

import (
	"sync"

	"github.com/google/pprof/profile"

	"github.com/skyformat99/tracey/pkg/registry"
)

// The process-wide tracer is created on first use and lives for the rest of
// the process. Hosts that want non-default settings call Configure before the
// first tracked allocation.
var (
	defaultMu     sync.Mutex
	defaultTracer *Tracer
)

// Default returns the process-wide tracer, creating it with DefaultConfig on
// first use.
func Default() *Tracer {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTracer == nil {
		defaultTracer = NewTracer(DefaultConfig())
	}
	return defaultTracer
}

// Configure replaces the process-wide tracer with one built from cfg and
// returns it. Records held by a previously created default tracer are not
// carried over.
func Configure(cfg Config) *Tracer {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTracer = NewTracer(cfg)
	return defaultTracer
}

// Watch registers a new live allocation with the process-wide tracer.
func Watch(addr uintptr, size uint64) {
	Default().watch(addr, size, 1)
}

// Forget deregisters a live allocation from the process-wide tracer.
func Forget(addr uintptr) {
	Default().Forget(addr)
}

// Stats snapshots the process-wide counters.
func Stats() registry.Stats {
	return Default().Stats()
}

// SizeOf returns the tracked size of addr, or 0 when unknown.
func SizeOf(addr uintptr) uint64 {
	return Default().SizeOf(addr)
}

// Reset clears the process-wide registry and advances its watermark.
func Reset() {
	Default().Reset()
}

// Report builds and returns the textual leak report.
func Report() string {
	return Default().Report()
}

// Folded renders the current leaks in folded-stack form.
func Folded() string {
	return Default().Folded()
}

// Profile exports the current leaks as a pprof profile.
func Profile() *profile.Profile {
	return Default().Profile()
}

// View hands a report to the platform's default viewer.
func View(pathOrText string) error {
	return Default().View(pathOrText)
}

// Settings returns the effective configuration as text.
func Settings() string {
	return Default().Settings()
}

// Shutdown emits the final report when configured and tears the process-wide
// tracer down.
func Shutdown() {
	Default().Shutdown()
}
