package tracey

import (
	"io"

	"github.com/skyformat99/tracey/pkg/stack"
)

// Config enumerates the tracer's tunables. NewTracer fills in MaxFrames,
// AllocationOverhead, TabChar and LinefeedChar when they are unset or out of
// range, but the zero value leaves MemsetAllocations and ReportOnExit off;
// start from DefaultConfig for the defaults.
type Config struct {
	// MaxFrames caps the captured stack depth, up to stack.MaxFrames.
	MaxFrames int

	// SkipBegin and SkipEnd drop frames from the innermost and outermost
	// ends of every stack when reports are built.
	SkipBegin int
	SkipEnd   int

	// ReportWildPointers emits a diagnostic when a never-watched address is
	// forgotten.
	ReportWildPointers bool

	// MemsetAllocations zero-fills buffers handed out by Alloc. Go clears
	// fresh memory anyway; disabling this only matters for reused buffers.
	MemsetAllocations bool

	// ReportOnExit makes Shutdown build one final report and hand it to the
	// platform viewer.
	ReportOnExit bool

	// TabChar and LinefeedChar control report rendering.
	TabChar      string
	LinefeedChar string

	// AllocationOverhead multiplies the capacity of buffers handed out by
	// Alloc. Values below 1.0 are raised to 1.0.
	AllocationOverhead float64

	// DashboardAddr is the listen address of the embedded status endpoint,
	// shown in the settings dump when set. The tracer does not start the
	// endpoint itself; web.Start takes its own address.
	DashboardAddr string

	// Output receives diagnostics. Nil means stdout.
	Output io.Writer
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		MaxFrames:          stack.MaxFrames,
		SkipBegin:          0,
		SkipEnd:            0,
		ReportWildPointers: false,
		MemsetAllocations:  true,
		ReportOnExit:       true,
		TabChar:            "\t",
		LinefeedChar:       "\n",
		AllocationOverhead: 1.0,
	}
}

// normalize clamps out-of-range values.
func (c Config) normalize() Config {
	if c.MaxFrames <= 0 || c.MaxFrames > stack.MaxFrames {
		c.MaxFrames = stack.MaxFrames
	}
	if c.SkipBegin < 0 {
		c.SkipBegin = 0
	}
	if c.SkipEnd < 0 {
		c.SkipEnd = 0
	}
	if c.AllocationOverhead < 1.0 {
		c.AllocationOverhead = 1.0
	}
	if c.TabChar == "" {
		c.TabChar = "\t"
	}
	if c.LinefeedChar == "" {
		c.LinefeedChar = "\n"
	}
	return c
}
