package eventlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"time"

	"github.com/tinytelemetry/vigil/internal/classify"
	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
)

// syslogPriorities maps the configured minimum priority name to journald's
// numeric scale (0 = emerg, 7 = debug).
var syslogPriorities = map[string]int{
	"emerg":   0,
	"alert":   1,
	"crit":    2,
	"err":     3,
	"warning": 4,
	"notice":  5,
	"info":    6,
	"debug":   7,
}

// priorityLevels translates journald's numeric PRIORITY back into the level
// strings the classifier understands.
var priorityLevels = map[string]string{
	"0": "crit",
	"1": "crit",
	"2": "crit",
	"3": "err",
	"4": "warning",
	"5": "info",
	"6": "info",
	"7": "debug",
}

// journalCollector shells out to journalctl for JSON-lines output.
type journalCollector struct {
	facilities  []string
	priorityMin string
	classifier  *classify.Classifier
	policy      privacy.Policy
}

// journalEntry is the subset of journald JSON fields we consume.
type journalEntry struct {
	RealtimeTimestamp string `json:"__REALTIME_TIMESTAMP"`
	Priority          string `json:"PRIORITY"`
	Message           string `json:"MESSAGE"`
	Comm              string `json:"_COMM"`
	UID               string `json:"_UID"`
	Hostname          string `json:"_HOSTNAME"`
}

func (c *journalCollector) SupportedLogSources() []string {
	return []string{"journald"}
}

// CollectEvents queries journald since the watermark. Unparseable lines are
// skipped; a failed or missing journalctl is an error so the watermark is
// not advanced over the gap.
func (c *journalCollector) CollectEvents(since time.Time, eventTypes []string) ([]model.SystemEvent, error) {
	args := []string{"--no-pager", "--output=json", fmt.Sprintf("--lines=%d", maxEventsPerCall)}
	if !since.IsZero() {
		args = append(args, "--since="+since.Format("2006-01-02 15:04:05"))
	}
	if prio, ok := syslogPriorities[c.priorityMin]; ok {
		args = append(args, fmt.Sprintf("--priority=%d..7", prio))
	}
	for _, facility := range c.facilities {
		args = append(args, "--facility="+facility)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "journalctl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("journalctl: %w", err)
	}

	events, skipped := c.parseOutput(out)
	if skipped > 0 {
		log.Printf("eventlog: skipped %d unparseable journal lines", skipped)
	}
	return filterTypes(events, eventTypes), nil
}

// parseOutput decodes journalctl's JSON-lines output, skipping lines that
// fail to decode.
func (c *journalCollector) parseOutput(out []byte) (events []model.SystemEvent, skipped int) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry journalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			skipped++
			continue
		}
		events = append(events, normalize(rawEvent{
			Timestamp:   journalTime(entry.RealtimeTimestamp),
			Level:       priorityLevels[entry.Priority],
			Message:     entry.Message,
			ProcessName: entry.Comm,
			UserName:    entry.UID,
			MachineName: entry.Hostname,
			RawJSON:     string(line),
		}, "linux_syslog", c.classifier, c.policy))
	}
	return events, skipped
}

// journalTime converts journald's microsecond epoch string; zero on failure
// so normalize falls back to now.
func journalTime(usec string) time.Time {
	n, err := strconv.ParseInt(usec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(n).UTC()
}
