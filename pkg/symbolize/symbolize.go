// Package symbolize resolves captured return addresses to human-readable
// frames. Resolution runs on snapshots only; it never touches the allocation
// registry or its lock.
package symbolize

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/skyformat99/tracey/pkg/diag"
)

// Placeholder is emitted for an address with no symbol information.
const Placeholder = "????"

// Resolver translates addresses into "symbol (file, line N)" strings using
// the process's own symbol table. Each Tracer creates one resolver and shares
// it between its registry and its report generator; it is safe for
// concurrent use.
type Resolver struct {
	diag *diag.Logger

	initOnce  sync.Once
	available bool
}

// New creates a resolver reporting through log.
func New(log *diag.Logger) *Resolver {
	if log == nil {
		log = diag.Discard()
	}
	return &Resolver{diag: log}
}

// ensureInit probes the symbol table with one of our own addresses. Binaries
// stripped of their function table degrade to placeholders everywhere.
func (r *Resolver) ensureInit() {
	r.initOnce.Do(func() {
		pc, _, _, ok := runtime.Caller(0)
		r.available = ok && runtime.FuncForPC(pc) != nil
		if !r.available {
			r.diag.WarnOncef("no-symbols",
				"failed to resolve symbols. Is debug information available?")
		}
	})
}

// Resolve translates each address, preserving input order. The result always
// has the same length as addrs; unresolvable entries hold the placeholder.
func (r *Resolver) Resolve(addrs []uintptr) []string {
	r.ensureInit()
	out := make([]string, len(addrs))
	for i, pc := range addrs {
		out[i] = r.resolveOne(pc)
	}
	return out
}

// ResolveFrames is Resolve plus structured access to the frames, used by the
// pprof export. Unresolvable addresses yield a Frame with an empty Function.
func (r *Resolver) ResolveFrames(addrs []uintptr) []runtime.Frame {
	r.ensureInit()
	out := make([]runtime.Frame, len(addrs))
	for i, pc := range addrs {
		if !r.available || pc == 0 {
			out[i] = runtime.Frame{PC: pc}
			continue
		}
		frames := runtime.CallersFrames([]uintptr{pc})
		f, _ := frames.Next()
		f.PC = pc
		out[i] = f
	}
	return out
}

func (r *Resolver) resolveOne(pc uintptr) string {
	if !r.available || pc == 0 {
		return Placeholder
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.Function == "" {
		return Placeholder
	}
	if f.File == "" {
		return f.Function
	}
	return fmt.Sprintf("%s (%s, line %d)", f.Function, f.File, f.Line)
}
