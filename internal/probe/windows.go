package probe

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tinytelemetry/vigil/internal/model"
)

// Windows probes shell out to PowerShell rather than linking user32
// directly, so this file builds everywhere and the binary stays cgo-free.

// foregroundScript emits the focused window's process name, executable
// path and title as one JSON object, or nothing when no window has focus.
const foregroundScript = `
Add-Type @"
using System;
using System.Runtime.InteropServices;
public class FG {
  [DllImport("user32.dll")] public static extern IntPtr GetForegroundWindow();
  [DllImport("user32.dll")] public static extern uint GetWindowThreadProcessId(IntPtr h, out uint pid);
}
"@
$h = [FG]::GetForegroundWindow()
if ($h -eq [IntPtr]::Zero) { exit 0 }
$procId = 0
[void][FG]::GetWindowThreadProcessId($h, [ref]$procId)
$p = Get-Process -Id $procId -ErrorAction SilentlyContinue
if ($null -eq $p) { exit 0 }
@{ name = $p.ProcessName; path = "$($p.Path)"; title = "$($p.MainWindowTitle)" } | ConvertTo-Json -Compress
`

// idleScript prints milliseconds since last input.
const idleScript = `
Add-Type @"
using System;
using System.Runtime.InteropServices;
public class Idle {
  [StructLayout(LayoutKind.Sequential)] public struct LASTINPUTINFO { public uint cbSize; public uint dwTime; }
  [DllImport("user32.dll")] public static extern bool GetLastInputInfo(ref LASTINPUTINFO plii);
}
"@
$lii = New-Object Idle+LASTINPUTINFO
$lii.cbSize = [System.Runtime.InteropServices.Marshal]::SizeOf($lii)
[void][Idle]::GetLastInputInfo([ref]$lii)
[Environment]::TickCount - $lii.dwTime
`

type windowsForeground struct{}

func (p *windowsForeground) Foreground() (*model.ForegroundInfo, error) {
	out, err := runProbe("powershell", "-NoProfile", "-NonInteractive", "-Command", foregroundScript)
	if err != nil {
		return nil, fmt.Errorf("running foreground probe: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}

	var raw struct {
		Name  string `json:"name"`
		Path  string `json:"path"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, fmt.Errorf("parsing foreground probe output: %w", err)
	}
	if raw.Name == "" {
		return nil, nil
	}
	return newInfo(raw.Name, raw.Path, raw.Title), nil
}

type windowsIdle struct{}

func (p *windowsIdle) IdleSeconds() (int, error) {
	out, err := runProbe("powershell", "-NoProfile", "-NonInteractive", "-Command", idleScript)
	if err != nil {
		return 0, fmt.Errorf("running idle probe: %w", err)
	}
	ms, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parsing idle probe output %q: %w", out, err)
	}
	return ms / 1000, nil
}
