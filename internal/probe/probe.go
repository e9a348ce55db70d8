// Package probe reads the platform's foreground window and idle time. Raw
// executable paths and window titles never leave this package; both are
// hashed before they reach the sampler.
package probe

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
)

// ForegroundProbe reads the currently focused application and window.
// A nil info with nil error means nothing has focus right now; that is a
// normal state, not a failure.
type ForegroundProbe interface {
	Foreground() (*model.ForegroundInfo, error)
}

// IdleProbe reads seconds since the last user input.
type IdleProbe interface {
	IdleSeconds() (int, error)
}

// NewForPlatform returns the probes for the current operating system.
func NewForPlatform() (ForegroundProbe, IdleProbe, error) {
	switch runtime.GOOS {
	case "linux":
		return &linuxForeground{}, &linuxIdle{}, nil
	case "windows":
		return &windowsForeground{}, &windowsIdle{}, nil
	default:
		return nil, nil, fmt.Errorf("probe: unsupported platform %s", runtime.GOOS)
	}
}

// browserProcesses are the foreground processes whose window titles are
// mined for a domain before the title is hashed away.
var browserProcesses = map[string]bool{
	"firefox":  true,
	"chrome":   true,
	"chromium": true,
	"msedge":   true,
	"brave":    true,
	"safari":   true,
	"opera":    true,
	"vivaldi":  true,
}

// domainPattern matches a hostname-like token, with or without a scheme or
// leading www.
var domainPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?([a-z0-9][a-z0-9-]*(?:\.[a-z0-9][a-z0-9-]*)+)`)

// newInfo builds the hashed foreground observation from raw probe output.
// The raw path and title are consumed here and nowhere else.
func newInfo(processName, execPath, windowTitle string) *model.ForegroundInfo {
	return &model.ForegroundInfo{
		ProcessName:     processName,
		ProcessPathHash: privacy.HashSHA256(execPath),
		WindowHash:      privacy.HashSHA256(windowTitle),
		Domain:          extractDomain(processName, windowTitle),
	}
}

// extractDomain pulls a domain out of a browser window title. Non-browser
// processes never yield a domain, whatever their titles look like.
func extractDomain(processName, windowTitle string) string {
	name := strings.ToLower(processName)
	name = strings.TrimSuffix(name, ".exe")
	if !browserProcesses[name] {
		return ""
	}
	m := domainPattern.FindStringSubmatch(strings.ToLower(windowTitle))
	if m == nil {
		return ""
	}
	return m[1]
}
