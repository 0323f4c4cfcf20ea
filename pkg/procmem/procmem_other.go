//go:build !linux && !darwin

package procmem

import "errors"

func platformRead() (Sample, error) {
	return Sample{}, errors.New("process memory sampling not supported on this platform")
}
