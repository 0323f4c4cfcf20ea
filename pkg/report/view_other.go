//go:build !linux && !darwin && !windows

package report

import "errors"

func platformOpen(string) error {
	return errors.New("no report viewer available on this platform")
}
