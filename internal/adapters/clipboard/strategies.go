package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"snapname/internal/domain"
)

const (
	StrategyNativeHelper = "native_helper"
	StrategyUIAutomation = "ui_automation"
	StrategyPasteboard   = "pasteboard"

	// HelperName is the platform helper binary looked up beside the executable and on PATH
	HelperName = "snapname-clip"
)

var errHelperNotFound = errors.New("native clipboard helper not installed")

// Platform builds the strategy chain for one operating system
type Platform struct {
	GOOS       string
	Runner     CommandRunner
	HelperPath string

	LookPath   func(string) (string, error)
	Executable func() (string, error)
	Getenv     func(string) string
	ReadFile   func(string) ([]byte, error)
}

// NewPlatform returns a Platform for the running OS
func NewPlatform(helperPath string) *Platform {
	return &Platform{
		GOOS:       runtime.GOOS,
		Runner:     ExecRunner{},
		HelperPath: helperPath,
		LookPath:   exec.LookPath,
		Executable: os.Executable,
		Getenv:     os.Getenv,
		ReadFile:   os.ReadFile,
	}
}

// DefaultStrategies returns the chain for the running OS in priority order
func DefaultStrategies(helperPath string) []Strategy {
	return NewPlatform(helperPath).Strategies()
}

// Strategies returns the ordered chain: native helper, UI automation, pasteboard
func (p *Platform) Strategies() []Strategy {
	return []Strategy{
		{Name: StrategyNativeHelper, Run: p.nativeHelper},
		{Name: StrategyUIAutomation, Run: p.uiAutomation},
		{Name: StrategyPasteboard, Run: p.pasteboard},
	}
}

func (p *Platform) nativeHelper(ctx context.Context, filePath string) error {
	helper, err := p.findHelper()
	if err != nil {
		return err
	}
	return p.Runner.Run(ctx, helper, []string{filePath}, nil)
}

func (p *Platform) findHelper() (string, error) {
	if p.HelperPath != "" {
		if _, err := os.Stat(p.HelperPath); err != nil {
			return "", fmt.Errorf("%w: %v", errHelperNotFound, err)
		}
		return p.HelperPath, nil
	}

	name := HelperName
	if p.GOOS == "windows" {
		name += ".exe"
	}
	if p.Executable != nil {
		if exe, err := p.Executable(); err == nil {
			beside := filepath.Join(filepath.Dir(exe), name)
			if _, err := os.Stat(beside); err == nil {
				return beside, nil
			}
		}
	}
	if p.LookPath != nil {
		if path, err := p.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errHelperNotFound
}

// uiAutomation copies the file as a file reference so the name survives a paste
func (p *Platform) uiAutomation(ctx context.Context, filePath string) error {
	switch p.GOOS {
	case "darwin":
		err := p.Runner.Run(ctx, "osascript", []string{"-e", finderCopyScript(filePath)}, nil)
		if err == nil {
			return nil
		}
		if ferr := p.Runner.Run(ctx, "osascript", []string{"-e", readAsClipboardScript(filePath, "")}, nil); ferr != nil {
			return errors.Join(err, ferr)
		}
		return nil

	case "windows":
		err := p.Runner.Run(ctx, "powershell", []string{
			"-NoProfile", "-NonInteractive", "-Command",
			"Set-Clipboard -Path " + psQuote(filePath),
		}, nil)
		if err == nil {
			return nil
		}
		if ferr := p.Runner.Run(ctx, "powershell", []string{
			"-NoProfile", "-NonInteractive", "-STA", "-Command",
			"Add-Type -AssemblyName System.Windows.Forms; Add-Type -AssemblyName System.Drawing; " +
				"[System.Windows.Forms.Clipboard]::SetImage([System.Drawing.Image]::FromFile(" + psQuote(filePath) + "))",
		}, nil); ferr != nil {
			return errors.Join(err, ferr)
		}
		return nil

	case "linux":
		uri := (&url.URL{Scheme: "file", Path: filePath}).String() + "\n"
		name, args := p.linuxCopyCommand("text/uri-list")
		return p.Runner.Run(ctx, name, args, strings.NewReader(uri))

	default:
		return fmt.Errorf("ui automation unsupported on %s", p.GOOS)
	}
}

// pasteboard pipes the raw bytes into the platform clipboard utility
func (p *Platform) pasteboard(ctx context.Context, filePath string) error {
	data, err := p.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	mime := domain.MimeType(filePath)

	switch p.GOOS {
	case "linux":
		name, args := p.linuxCopyCommand(mime)
		return p.Runner.Run(ctx, name, args, bytes.NewReader(data))

	case "darwin":
		return p.Runner.Run(ctx, "osascript",
			[]string{"-e", readAsClipboardScript("/dev/stdin", mime)}, bytes.NewReader(data))

	case "windows":
		return p.Runner.Run(ctx, "powershell", []string{
			"-NoProfile", "-NonInteractive", "-STA", "-Command",
			"$ms = New-Object System.IO.MemoryStream; [Console]::OpenStandardInput().CopyTo($ms); " +
				"Add-Type -AssemblyName System.Windows.Forms; Add-Type -AssemblyName System.Drawing; " +
				"[System.Windows.Forms.Clipboard]::SetImage([System.Drawing.Image]::FromStream($ms))",
		}, bytes.NewReader(data))

	default:
		return fmt.Errorf("pasteboard unsupported on %s", p.GOOS)
	}
}

// linuxCopyCommand picks wl-copy under Wayland and xclip otherwise
func (p *Platform) linuxCopyCommand(mime string) (string, []string) {
	if p.Getenv != nil && p.Getenv("WAYLAND_DISPLAY") != "" {
		return "wl-copy", []string{"--type", mime}
	}
	return "xclip", []string{"-selection", "clipboard", "-t", mime, "-i"}
}

func finderCopyScript(filePath string) string {
	return fmt.Sprintf(`tell application "Finder"
	activate
	reveal POSIX file %s
	select POSIX file %s
end tell
delay 0.3
tell application "System Events" to keystroke "c" using command down`,
		appleQuote(filePath), appleQuote(filePath))
}

// readAsClipboardScript reads the file as typed clipboard data.
// An empty mime derives the type from the file extension.
func readAsClipboardScript(filePath, mime string) string {
	if mime == "" {
		mime = domain.MimeType(filePath)
	}
	return fmt.Sprintf(`set the clipboard to (read (POSIX file %s) as %s)`,
		appleQuote(filePath), appleClass(mime))
}

func appleClass(mime string) string {
	switch mime {
	case "image/jpeg":
		return "JPEG picture"
	case "image/gif":
		return "GIF picture"
	default:
		return "«class PNGf»"
	}
}

func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
