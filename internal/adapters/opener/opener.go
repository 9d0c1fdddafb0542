package opener

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens files with the operating system's default application
type Opener struct {
	goos string
}

// NewOpener creates an opener for the running platform
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS}
}

// Open launches the default application for path without waiting for it
func (o *Opener) Open(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command returns the platform command that opens path
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		return exec.Command("open", path), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", path), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path), nil
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", o.goos)
	}
}
