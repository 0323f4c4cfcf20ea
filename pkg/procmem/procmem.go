// Package procmem samples the host process's own memory footprint. The
// dashboard shows it next to the tracker's counters so tracked bytes can be
// compared against what the OS sees.
package procmem

// Sample is one observation of the process's resident memory.
type Sample struct {
	RSSBytes    uint64 `json:"rss_bytes"`
	MaxRSSBytes uint64 `json:"max_rss_bytes"`
}

// Read gathers the current sample.
// Platform-specific implementation in procmem_linux.go and procmem_darwin.go.
func Read() (Sample, error) {
	return platformRead()
}
