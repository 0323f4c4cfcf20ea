//go:build linux

package report

import (
	"fmt"
	"os/exec"
)

func platformOpen(path string) error {
	if _, err := exec.LookPath("xdg-open"); err != nil {
		return fmt.Errorf("xdg-open not found: %w", err)
	}
	return exec.Command("xdg-open", path).Start()
}
