package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser launches the system browser at url without waiting for it.
//
// Used by 'serve --open' to drop the operator onto the admin API.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
