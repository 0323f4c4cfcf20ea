//go:build windows

package report

import "os/exec"

func platformOpen(path string) error {
	return exec.Command("cmd", "/c", "start", "", path).Start()
}
