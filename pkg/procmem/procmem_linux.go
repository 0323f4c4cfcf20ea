//go:build linux

package procmem

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

func platformRead() (Sample, error) {
	var s Sample

	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return s, fmt.Errorf("cannot read /proc/self/statm: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return s, fmt.Errorf("unexpected /proc/self/statm format: %q", string(data))
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return s, fmt.Errorf("cannot parse resident pages: %w", err)
	}
	s.RSSBytes = pages * uint64(os.Getpagesize())

	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return s, fmt.Errorf("getrusage failed: %w", err)
	}
	// Linux reports ru_maxrss in kilobytes.
	s.MaxRSSBytes = uint64(ru.Maxrss) * 1024
	return s, nil
}
