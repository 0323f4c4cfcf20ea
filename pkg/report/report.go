// Package report turns a snapshot of surviving allocations into the leak
// report: two call-frame trees with per-node byte attribution, wrapped in a
// minimal HTML envelope so browsers render it monospace.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/skyformat99/tracey/pkg/diag"
	"github.com/skyformat99/tracey/pkg/frametree"
	"github.com/skyformat99/tracey/pkg/registry"
	"github.com/skyformat99/tracey/pkg/symbolize"
)

// Synthetic tree roots. The bottom-up key sorts below the top-down key so the
// bottom-up tree always prints first.
const (
	bottomUpKey = ^uintptr(0) - 1
	topDownKey  = ^uintptr(0)
)

const (
	bottomUpLabel = "bottom-up tree (useful to find leak endings)"
	topDownLabel  = "top-down tree (useful to find leak beginnings)"
)

// Options configure report generation.
type Options struct {
	Version   string
	URL       string
	SkipBegin int
	SkipEnd   int
	Tab       string
	Linefeed  string
}

// Generator builds reports from registry snapshots. It never touches the
// registry itself; callers hand it the copied-out records.
type Generator struct {
	opts     Options
	resolver *symbolize.Resolver
	diag     *diag.Logger
	now      func() time.Time
}

// NewGenerator creates a generator.
func NewGenerator(opts Options, resolver *symbolize.Resolver, log *diag.Logger) *Generator {
	if log == nil {
		log = diag.Discard()
	}
	if resolver == nil {
		resolver = symbolize.New(log)
	}
	if opts.SkipBegin < 0 {
		opts.SkipBegin = 0
	}
	if opts.SkipEnd < 0 {
		opts.SkipEnd = 0
	}
	if opts.Tab == "" {
		opts.Tab = "\t"
	}
	if opts.Linefeed == "" {
		opts.Linefeed = "\n"
	}
	return &Generator{opts: opts, resolver: resolver, diag: log, now: time.Now}
}

// SetClock overrides the timestamp source. Two generators with the same clock
// and the same snapshot produce byte-identical reports.
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// Score buckets the leak percentage. "perfect!" is reserved for exactly zero
// leaks; the remaining buckets widen as the ratio of leaked allocations to
// everything ever tracked grows.
func Score(leaks, total uint64) string {
	if leaks == 0 {
		return "perfect!"
	}
	pct := float64(leaks) * 100.0 / float64(total)
	switch {
	case pct <= 1.25:
		return "excellent"
	case pct <= 2.5:
		return "good"
	case pct <= 5:
		return "poor"
	case pct <= 10:
		return "mediocre"
	default:
		return "lame"
	}
}

// Generate emits the textual report for the given surviving allocations.
// total is the number of allocations ever observed, the score denominator.
func (g *Generator) Generate(leaks []registry.Record, total uint64) string {
	lf := g.opts.Linefeed

	var wasted uint64
	for _, l := range leaks {
		wasted += l.Size
	}
	nLeaks := uint64(len(leaks))
	status := "ok"
	if nLeaks > 0 {
		status = "error"
	}

	var b strings.Builder
	b.WriteString("<html><body><xmp>")
	fmt.Fprintf(&b, "<tracey> says: generated with %s (%s)%s", g.opts.Version, g.opts.URL, lf)
	fmt.Fprintf(&b, "<tracey> says: best viewed on a foldable text editor with tabs=2sp and no word-wrap%s", lf)
	fmt.Fprintf(&b, "<tracey> says: report created on %s%s", g.now().UTC().Format(time.RFC1123), lf)
	fmt.Fprintf(&b, "<tracey> says: %s, %d leaks found; %d bytes wasted ('%s' score)%s",
		status, nLeaks, wasted, Score(nLeaks, total), lf)

	tree, addrs := g.buildTrees(leaks)
	if len(addrs) == 0 {
		if nLeaks > 0 {
			g.diag.Warnf("failed to resolve symbols. Is debug information available?")
			fmt.Fprintf(&b, "<tracey> says: error! failed to resolve symbols%s", lf)
		}
	} else {
		labels := g.resolveLabels(addrs)
		tree.Recalc()
		tree.Print(labels, &b, g.opts.Tab, 0)
	}

	b.WriteString("</xmp></body></html>")
	return b.String()
}

// buildTrees inserts every leak's frames into a combined tree with two
// synthetic roots, one per orientation. Each leak credits its size to a node
// at most once, even when a recursive stack revisits the node. The returned
// addresses are the unique frames across both trees.
func (g *Generator) buildTrees(leaks []registry.Record) (*frametree.Tree[uintptr], []uintptr) {
	tree := frametree.New[uintptr]()
	bottomRoot := tree.Insert(bottomUpKey)
	topRoot := tree.Insert(topDownKey)

	seen := make(map[uintptr]struct{})
	for _, leak := range leaks {
		depth := leak.Stack.Depth
		if depth == 0 {
			continue
		}
		start := g.opts.SkipBegin
		end := depth - 1 - g.opts.SkipEnd
		if start < 0 || start > end {
			continue
		}
		bu, td := bottomRoot, topRoot
		credited := make(map[*frametree.Tree[uintptr]]bool)
		for i := 0; start+i <= end; i++ {
			inner := leak.Stack.Frames[start+i]
			outer := leak.Stack.Frames[end-i]
			seen[inner] = struct{}{}
			seen[outer] = struct{}{}

			bu = bu.Insert(inner)
			if !credited[bu] {
				bu.AddValue(leak.Size)
				credited[bu] = true
			}
			td = td.Insert(outer)
			if !credited[td] {
				td.AddValue(leak.Size)
				credited[td] = true
			}
		}
	}

	addrs := make([]uintptr, 0, len(seen))
	for a := range seen {
		addrs = append(addrs, a)
	}
	return tree, addrs
}

// resolveLabels batch-resolves the unique frames and adds the synthetic root
// labels.
func (g *Generator) resolveLabels(addrs []uintptr) map[uintptr]string {
	slices.Sort(addrs)
	symbols := g.resolver.Resolve(addrs)
	labels := make(map[uintptr]string, len(addrs)+2)
	for i, a := range addrs {
		labels[a] = symbols[i]
	}
	labels[bottomUpKey] = bottomUpLabel
	labels[topDownKey] = topDownLabel
	return labels
}
