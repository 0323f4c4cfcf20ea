package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skyformat99/tracey/pkg/registry"
	"github.com/skyformat99/tracey/pkg/symbolize"
)

// Folded renders the surviving allocations in folded-stack form, one line per
// unique call path: "outermost;...;innermost bytes". The output feeds flame
// graph tooling directly. Leaks whose stacks fold to the same path are summed.
func (g *Generator) Folded(leaks []registry.Record) string {
	stacks := make(map[string]uint64)
	for _, leak := range leaks {
		pcs := leak.Stack.PCs()
		if len(pcs) == 0 {
			continue
		}
		frames := g.resolver.ResolveFrames(pcs)

		// Captured stacks are leaf-first; folded format wants root-first.
		parts := make([]string, 0, len(frames))
		for i := len(frames) - 1; i >= 0; i-- {
			name := frames[i].Function
			if name == "" {
				name = symbolize.Placeholder
			}
			parts = append(parts, name)
		}
		stacks[strings.Join(parts, ";")] += leak.Size
	}

	// Sort for deterministic output
	keys := make([]string, 0, len(stacks))
	for k := range stacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %d\n", k, stacks[k])
	}
	return b.String()
}
