//go:build darwin

package report

import "os/exec"

func platformOpen(path string) error {
	return exec.Command("open", path).Start()
}
