package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/tinytelemetry/vigil/internal/classify"
	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
)

// winEventCollector queries the Windows Event Log through PowerShell's
// Get-WinEvent, one pass per configured log name.
type winEventCollector struct {
	logNames   []string
	classifier *classify.Classifier
	policy     privacy.Policy
}

// winEvent is the JSON shape the PowerShell query emits per record.
type winEvent struct {
	TimeCreated string `json:"TimeCreated"`
	ID          int64  `json:"Id"`
	Level       string `json:"Level"`
	Message     string `json:"Message"`
	MachineName string `json:"MachineName"`
	UserName    string `json:"UserName"`
}

func (c *winEventCollector) SupportedLogSources() []string {
	return c.logNames
}

// CollectEvents queries every configured log. A single failed log is logged
// and skipped; if every log fails the whole pass is an error so the caller
// keeps its since watermark.
func (c *winEventCollector) CollectEvents(since time.Time, eventTypes []string) ([]model.SystemEvent, error) {
	var events []model.SystemEvent
	var lastErr error
	failed := 0
	for _, logName := range c.logNames {
		batch, err := c.collectFromLog(logName, since)
		if err != nil {
			log.Printf("eventlog: Get-WinEvent failed for %s: %v", logName, err)
			lastErr = err
			failed++
			continue
		}
		events = append(events, batch...)
	}
	if failed == len(c.logNames) && failed > 0 {
		return nil, fmt.Errorf("all event logs failed: %w", lastErr)
	}
	return filterTypes(events, eventTypes), nil
}

func (c *winEventCollector) collectFromLog(logName string, since time.Time) ([]model.SystemEvent, error) {
	script := fmt.Sprintf(`Get-WinEvent -LogName %q -MaxEvents %d`, logName, maxEventsPerCall)
	if !since.IsZero() {
		script += fmt.Sprintf(` | Where-Object { $_.TimeCreated -ge [DateTime]::Parse(%q) }`,
			since.Format(time.RFC3339))
	}
	script += ` | ForEach-Object {
		[PSCustomObject]@{
			TimeCreated = $_.TimeCreated.ToString('yyyy-MM-ddTHH:mm:ss')
			Id = $_.Id
			Level = $_.LevelDisplayName
			Message = $_.Message
			MachineName = $_.MachineName
			UserName = "$($_.UserId)"
		}
	} | ConvertTo-Json -Compress`

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script).Output()
	if err != nil {
		return nil, err
	}

	return c.parseOutput(strings.TrimSpace(string(out))), nil
}

// parseOutput handles ConvertTo-Json's habit of emitting a bare object for a
// single record and an array otherwise.
func (c *winEventCollector) parseOutput(out string) []model.SystemEvent {
	if out == "" {
		return nil
	}

	var records []winEvent
	if strings.HasPrefix(out, "[") {
		if err := json.Unmarshal([]byte(out), &records); err != nil {
			log.Printf("eventlog: parsing event log output: %v", err)
			return nil
		}
	} else {
		var single winEvent
		if err := json.Unmarshal([]byte(out), &single); err != nil {
			log.Printf("eventlog: parsing event log output: %v", err)
			return nil
		}
		records = []winEvent{single}
	}

	events := make([]model.SystemEvent, 0, len(records))
	for _, rec := range records {
		raw, _ := json.Marshal(rec)
		var ts time.Time
		if rec.TimeCreated != "" {
			ts, _ = time.ParseInLocation("2006-01-02T15:04:05", rec.TimeCreated, time.Local)
			ts = ts.UTC()
		}
		events = append(events, normalize(rawEvent{
			Timestamp:   ts,
			EventID:     rec.ID,
			Level:       rec.Level,
			Message:     rec.Message,
			UserName:    rec.UserName,
			MachineName: rec.MachineName,
			RawJSON:     string(raw),
		}, "windows_eventlog", c.classifier, c.policy))
	}
	return events
}
