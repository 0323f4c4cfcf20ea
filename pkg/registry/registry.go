// Package registry tracks every live allocation the host has asked the
// tracer to watch. A single mutex serializes all mutation; a per-goroutine
// reentrancy guard turns recursive calls from inside the tracer's own call
// chain into no-ops instead of deadlocks.
package registry

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/skyformat99/tracey/pkg/diag"
	"github.com/skyformat99/tracey/pkg/stack"
	"github.com/skyformat99/tracey/pkg/symbolize"
)

// Record is one live allocation.
type Record struct {
	Addr  uintptr
	Size  uint64
	ID    uint64
	Stack stack.Stack
}

// Stats are the running counters, readable atomically with respect to the
// registry lock.
type Stats struct {
	LiveCount uint64 `json:"live_count"`
	LiveBytes uint64 `json:"live_bytes"`
	PeakBytes uint64 `json:"peak_bytes"`
}

// Registry maps live addresses to allocation records.
type Registry struct {
	mu     sync.Mutex
	owner  atomic.Int64 // goid of the goroutine inside the critical section
	closed atomic.Bool

	live    map[uintptr]Record
	nextID  uint64
	resetID uint64
	total   uint64 // allocations observed since the last reset
	stats   Stats

	reportWild bool
	wildSkip   int

	diag     *diag.Logger
	resolver *symbolize.Resolver
}

// New creates an empty registry reporting through log and symbolizing wild
// frees through resolver.
func New(log *diag.Logger, resolver *symbolize.Resolver) *Registry {
	if log == nil {
		log = diag.Discard()
	}
	if resolver == nil {
		resolver = symbolize.New(log)
	}
	return &Registry{
		live:     make(map[uintptr]Record),
		diag:     log,
		resolver: resolver,
	}
}

// SetReportWildPointers enables diagnostics for frees of unknown addresses.
// skip is the number of tracer frames to drop from the reported stack.
func (r *Registry) SetReportWildPointers(on bool, skip int) {
	r.reportWild = on
	r.wildSkip = skip
}

// enter acquires the critical section. It returns false when the calling
// goroutine is already inside it, in which case the operation must be treated
// as "not tracked". Blocking on another goroutine's section is fine; blocking
// on our own would recurse forever.
func (r *Registry) enter() bool {
	gid := goid.Get()
	if r.owner.Load() == gid {
		return false
	}
	r.mu.Lock()
	r.owner.Store(gid)
	return true
}

func (r *Registry) leave() {
	r.owner.Store(0)
	r.mu.Unlock()
}

// Insert records a live allocation. A re-watch of a live address releases the
// prior accounting and counts only the newest request. Returns false when the
// call was not tracked (nil address, reentrancy, closed registry).
func (r *Registry) Insert(addr uintptr, size uint64, stk stack.Stack) bool {
	if addr == 0 || r.closed.Load() {
		return false
	}
	if !r.enter() {
		return false
	}
	defer r.leave()

	if old, ok := r.live[addr]; ok {
		r.stats.LiveCount--
		r.stats.LiveBytes -= old.Size
	}
	r.nextID++
	r.live[addr] = Record{Addr: addr, Size: size, ID: r.nextID, Stack: stk}
	r.total++
	r.stats.LiveCount++
	r.stats.LiveBytes += size
	if r.stats.LiveBytes > r.stats.PeakBytes {
		r.stats.PeakBytes = r.stats.LiveBytes
	}
	return true
}

// Remove drops a live allocation. Removing an address that was never watched
// is absorbed; with wild-pointer reporting enabled it additionally emits one
// diagnostic carrying the caller's stack.
func (r *Registry) Remove(addr uintptr) bool {
	if addr == 0 || r.closed.Load() {
		return false
	}
	if !r.enter() {
		return false
	}
	var wild stack.Stack
	found := false
	if rec, ok := r.live[addr]; ok {
		found = true
		delete(r.live, addr)
		r.stats.LiveCount--
		r.stats.LiveBytes -= rec.Size
	} else if r.reportWild {
		wild = stack.Capture(r.wildSkip, stack.MaxFrames)
	}
	r.leave()

	if !found && r.reportWild {
		r.reportWildFree(addr, wild)
	}
	return found
}

// reportWildFree symbolizes outside the critical section.
func (r *Registry) reportWildFree(addr uintptr, stk stack.Stack) {
	var b strings.Builder
	for _, sym := range r.resolver.Resolve(stk.PCs()) {
		b.WriteString("\n\t")
		b.WriteString(sym)
	}
	r.diag.Warnf("wild pointer deallocation at 0x%x%s", addr, b.String())
}

// SizeOf returns the recorded size for addr, or 0 when unknown.
func (r *Registry) SizeOf(addr uintptr) uint64 {
	if addr == 0 || r.closed.Load() {
		return 0
	}
	if !r.enter() {
		return 0
	}
	defer r.leave()
	return r.live[addr].Size
}

// Stats snapshots the counters. A reentrant call observes zeros.
func (r *Registry) Stats() Stats {
	if r.closed.Load() || !r.enter() {
		return Stats{}
	}
	defer r.leave()
	return r.stats
}

// Total returns the number of allocations observed since the last reset.
func (r *Registry) Total() uint64 {
	if r.closed.Load() || !r.enter() {
		return 0
	}
	defer r.leave()
	return r.total
}

// Reset clears the map, zeroes the counters and advances the id watermark so
// later reports exclude everything recorded before this call.
func (r *Registry) Reset() {
	if r.closed.Load() || !r.enter() {
		return
	}
	defer r.leave()
	r.live = make(map[uintptr]Record)
	r.resetID = r.nextID
	r.total = 0
	r.stats = Stats{}
}

// Snapshot copies the surviving records out under the lock, filtered to the
// current watermark and ordered by insertion id. Symbolization and report
// building run on the copy, never on the live map.
func (r *Registry) Snapshot() []Record {
	if r.closed.Load() || !r.enter() {
		return nil
	}
	out := make([]Record, 0, len(r.live))
	for _, rec := range r.live {
		if rec.ID > r.resetID {
			out = append(out, rec)
		}
	}
	r.leave()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close marks the registry torn down. Every subsequent operation, including
// frees arriving during the host's own destruction, is a silent no-op.
func (r *Registry) Close() {
	r.closed.Store(true)
}
