package report

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyformat99/tracey/pkg/registry"
	"github.com/skyformat99/tracey/pkg/stack"
)

func TestProfileShape(t *testing.T) {
	g := newTestGenerator()
	leaks := []registry.Record{
		mkRecord(0x1, 10, 1, 0x100, 0x200),
		mkRecord(0x2, 20, 2, 0x100, 0x300),
	}
	p := g.Profile(leaks)
	require.NoError(t, p.CheckValid())

	require.Len(t, p.SampleType, 2)
	assert.Equal(t, "inuse_objects", p.SampleType[0].Type)
	assert.Equal(t, "inuse_space", p.SampleType[1].Type)

	require.Len(t, p.Sample, 2)
	assert.Equal(t, []int64{1, 10}, p.Sample[0].Value)
	assert.Equal(t, []int64{1, 20}, p.Sample[1].Value)

	// 0x100 is shared; locations are deduplicated.
	assert.Len(t, p.Location, 3)
}

func TestProfileResolvesRealFrames(t *testing.T) {
	g := newTestGenerator()
	s := stack.Capture(0, stack.MaxFrames)
	require.Greater(t, s.Depth, 0)

	p := g.Profile([]registry.Record{{Addr: 0x1, Size: 64, ID: 1, Stack: s}})
	require.NoError(t, p.CheckValid())
	require.NotEmpty(t, p.Function)

	found := false
	for _, fn := range p.Function {
		if fn.Name != "" && fn.Filename != "" {
			found = true
		}
	}
	assert.True(t, found, "expected at least one fully resolved function")
}

func TestWriteProfileRoundTrips(t *testing.T) {
	g := newTestGenerator()
	leaks := []registry.Record{mkRecord(0x1, 42, 1, 0x100)}

	var buf bytes.Buffer
	require.NoError(t, g.WriteProfile(&buf, leaks))

	parsed, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed.Sample, 1)
	assert.Equal(t, []int64{1, 42}, parsed.Sample[0].Value)
}
