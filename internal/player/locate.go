package player

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/tr1v3r/pkg/log"
)

// FindEngine resolves the mpv binary: an explicit override first, then the
// bundled location next to our own executable, then well-known system
// install paths, then $PATH.
func FindEngine(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("configured engine path %s: %w", override, err)
		}
		return override, nil
	}

	if bundled := bundledPath(); bundled != "" {
		if _, err := os.Stat(bundled); err == nil {
			log.Info("found bundled mpv: %s", bundled)
			return bundled, nil
		}
	}

	for _, path := range systemPaths() {
		if _, err := os.Stat(path); err == nil {
			log.Info("found system mpv: %s", path)
			return path, nil
		}
	}

	if path, err := exec.LookPath(engineBinary()); err == nil {
		log.Info("found mpv in PATH: %s", path)
		return path, nil
	}

	return "", fmt.Errorf("mpv not found - install mpv or check bundled resources")
}

func engineBinary() string {
	if runtime.GOOS == "windows" {
		return "mpv.exe"
	}
	return "mpv"
}

func bundledPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "resources", "mpv", engineBinary())
}

func systemPaths() []string {
	switch runtime.GOOS {
	case "windows":
		paths := []string{
			`C:\Program Files\mpv\mpv.exe`,
			`C:\Program Files (x86)\mpv\mpv.exe`,
			`C:\ProgramData\chocolatey\lib\mpvio.install\tools\mpv.exe`,
		}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			paths = append(paths, filepath.Join(local, "Programs", "mpv", "mpv.exe"))
		}
		return paths
	case "darwin":
		return []string{"/opt/homebrew/bin/mpv", "/usr/local/bin/mpv", "/usr/bin/mpv"}
	default:
		return []string{"/usr/bin/mpv", "/usr/local/bin/mpv"}
	}
}
