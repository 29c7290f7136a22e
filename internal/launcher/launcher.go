// Package launcher starts external applications out-of-process. Launches
// are fire-and-forget: a failure is reported to the caller for logging
// but is never fatal to the core.
package launcher

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Launch starts app with the given arguments and does not wait for it.
func Launch(app string, args ...string) error {
	cmd := exec.Command(app, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launcher: start %s: %w", app, err)
	}
	// Reap the child in the background so it never zombies.
	go func() { _ = cmd.Wait() }()
	return nil
}

// OpenDir opens a directory in the platform file browser.
func OpenDir(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return Launch("open", path)
	case "windows":
		return Launch("explorer", path)
	default:
		return Launch("xdg-open", path)
	}
}
