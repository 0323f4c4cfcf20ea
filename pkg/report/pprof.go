package report

import (
	"io"

	"github.com/google/pprof/profile"

	"github.com/skyformat99/tracey/pkg/registry"
)

// Profile exports the surviving allocations as a heap-style pprof profile
// with inuse_objects/inuse_space sample types, one sample per leak. The
// result can be written to disk and inspected with standard pprof tooling.
func (g *Generator) Profile(leaks []registry.Record) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "inuse_objects", Unit: "count"},
			{Type: "inuse_space", Unit: "bytes"},
		},
		PeriodType: &profile.ValueType{Type: "space", Unit: "bytes"},
		Period:     1,
		TimeNanos:  g.now().UnixNano(),
	}

	locs := make(map[uintptr]*profile.Location)
	funcs := make(map[string]*profile.Function)

	locationFor := func(pc uintptr) *profile.Location {
		if loc, ok := locs[pc]; ok {
			return loc
		}
		loc := &profile.Location{
			ID:      uint64(len(locs) + 1),
			Address: uint64(pc),
		}
		frame := g.resolver.ResolveFrames([]uintptr{pc})[0]
		if frame.Function != "" {
			fn, ok := funcs[frame.Function]
			if !ok {
				fn = &profile.Function{
					ID:       uint64(len(funcs) + 1),
					Name:     frame.Function,
					Filename: frame.File,
				}
				funcs[frame.Function] = fn
				p.Function = append(p.Function, fn)
			}
			loc.Line = []profile.Line{{Function: fn, Line: int64(frame.Line)}}
		}
		locs[pc] = loc
		p.Location = append(p.Location, loc)
		return loc
	}

	for _, leak := range leaks {
		sample := &profile.Sample{
			Value: []int64{1, int64(leak.Size)},
		}
		for _, pc := range leak.Stack.PCs() {
			sample.Location = append(sample.Location, locationFor(pc))
		}
		p.Sample = append(p.Sample, sample)
	}
	return p
}

// WriteProfile serializes the leak profile in compressed protobuf form.
func (g *Generator) WriteProfile(w io.Writer, leaks []registry.Record) error {
	return g.Profile(leaks).Write(w)
}
