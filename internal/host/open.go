package host

import (
	"fmt"
	"os/exec"
	"runtime"
)

func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// The opener detaches quickly; reap it so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}
