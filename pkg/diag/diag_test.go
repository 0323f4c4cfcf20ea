package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarnOncefDeduplicates(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.WarnOncef("k", "symbol table unavailable")
	l.WarnOncef("k", "symbol table unavailable")
	l.WarnOncef("other", "different condition")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "symbol table unavailable"))
	assert.Equal(t, 1, strings.Count(out, "different condition"))
}

func TestWarnfAlwaysEmits(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Warnf("wild pointer at 0x%x", 0xdead)
	l.Warnf("wild pointer at 0x%x", 0xdead)
	assert.Equal(t, 2, strings.Count(buf.String(), "wild pointer at 0xdead"))
}

func TestFatalfRequestsTermination(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	var code = -1
	l.exit = func(c int) { code = c }
	l.Fatalf("error! out of memory")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "out of memory")
}

func TestDiscardSwallowsEverything(t *testing.T) {
	l := Discard()
	l.Infof("nothing")
	l.Warnf("nothing")
	l.WarnOncef("k", "nothing")
}
