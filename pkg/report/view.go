package report

import (
	"fmt"
	"os"
)

// View hands a report to the platform's default viewer. The argument is
// either a path to an existing report file or the report text itself, in
// which case it is written to a temporary file first. Returns the path that
// was opened.
// Platform-specific open in view_linux.go, view_darwin.go, view_windows.go.
func View(pathOrText string) (string, error) {
	path := pathOrText
	if _, err := os.Stat(path); err != nil {
		f, err := os.CreateTemp("", "tracey-*.html")
		if err != nil {
			return "", fmt.Errorf("cannot create report file: %w", err)
		}
		if _, err := f.WriteString(pathOrText); err != nil {
			f.Close()
			return "", fmt.Errorf("cannot write report file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("cannot close report file: %w", err)
		}
		path = f.Name()
	}
	if err := platformOpen(path); err != nil {
		return path, err
	}
	return path, nil
}
