package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/vigil/internal/model"
)

// probeTimeout bounds each shell-out; a wedged X server must not stall the
// sampling loop.
const probeTimeout = 2 * time.Second

// linuxForeground reads the active window via xdotool and resolves the
// owning process through /proc.
type linuxForeground struct{}

func (p *linuxForeground) Foreground() (*model.ForegroundInfo, error) {
	pidOut, err := runProbe("xdotool", "getactivewindow", "getwindowpid")
	if err != nil {
		// No active window (empty desktop, locked screen) is a normal
		// no-focus state.
		return nil, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(pidOut))
	if err != nil {
		return nil, fmt.Errorf("parsing window pid: %w", err)
	}

	title, err := runProbe("xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return nil, nil
	}

	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return nil, fmt.Errorf("reading process name for pid %d: %w", pid, err)
	}
	processName := strings.TrimSpace(string(comm))

	execPath, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		// Permission denied on /proc/<pid>/exe still leaves a usable name.
		execPath = filepath.Join("/proc", strconv.Itoa(pid), processName)
	}

	return newInfo(processName, execPath, strings.TrimSpace(title)), nil
}

// linuxIdle reads idle milliseconds from xprintidle.
type linuxIdle struct{}

func (p *linuxIdle) IdleSeconds() (int, error) {
	out, err := runProbe("xprintidle")
	if err != nil {
		return 0, fmt.Errorf("running xprintidle: %w", err)
	}
	ms, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing xprintidle output %q: %w", out, err)
	}
	return ms / 1000, nil
}

func runProbe(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
