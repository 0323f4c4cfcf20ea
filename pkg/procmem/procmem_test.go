package procmem

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	sample, err := Read()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		require.Error(t, err)
		return
	}
	require.NoError(t, err)
	assert.NotZero(t, sample.RSSBytes)
	assert.GreaterOrEqual(t, sample.MaxRSSBytes, sample.RSSBytes)
}
