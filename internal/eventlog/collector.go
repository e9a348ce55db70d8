// Package eventlog collects platform log entries (Windows Event Log, Linux
// journald) and normalizes them into system events via classification and
// privacy redaction.
package eventlog

import (
	"fmt"
	"runtime"
	"time"

	"github.com/tinytelemetry/vigil/internal/classify"
	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
)

// commandTimeout bounds each shell-out to the platform log facility.
const commandTimeout = 30 * time.Second

// maxEventsPerCall caps one collection pass; anything older is picked up by
// the next cycle's since watermark.
const maxEventsPerCall = 1000

// Collector reads raw platform log entries and returns them normalized.
// Individual malformed records are skipped with a log line; total facility
// failure (command missing, timeout) is an error so the caller can keep its
// since watermark and re-cover the window on the next cycle. An empty slice
// with a nil error means the window genuinely held no events.
type Collector interface {
	CollectEvents(since time.Time, eventTypes []string) ([]model.SystemEvent, error)
	SupportedLogSources() []string
}

// Config selects and tunes the platform collector.
type Config struct {
	// WindowsLogNames are the event logs queried on Windows.
	WindowsLogNames []string
	// LinuxFacilities filters journald by syslog facility.
	LinuxFacilities []string
	// LinuxPriorityMin is the least severe syslog priority collected
	// (debug, info, notice, warning, err, crit, alert, emerg).
	LinuxPriorityMin string
}

// NewForPlatform builds the collector for the current (or overridden)
// operating system. platformOverride is normally empty.
func NewForPlatform(cfg Config, classifier *classify.Classifier, policy privacy.Policy, platformOverride string) (Collector, error) {
	goos := platformOverride
	if goos == "" {
		goos = runtime.GOOS
	}

	switch goos {
	case "linux":
		facilities := cfg.LinuxFacilities
		if len(facilities) == 0 {
			facilities = []string{"kern", "user", "daemon"}
		}
		priorityMin := cfg.LinuxPriorityMin
		if priorityMin == "" {
			priorityMin = "warning"
		}
		return &journalCollector{
			facilities:  facilities,
			priorityMin: priorityMin,
			classifier:  classifier,
			policy:      policy,
		}, nil

	case "windows":
		logNames := cfg.WindowsLogNames
		if len(logNames) == 0 {
			logNames = []string{"Application", "System"}
		}
		return &winEventCollector{
			logNames:   logNames,
			classifier: classifier,
			policy:     policy,
		}, nil

	default:
		return nil, fmt.Errorf("eventlog: unsupported platform %s", goos)
	}
}

// filterTypes drops events whose type is not in wanted. Empty wanted keeps
// everything.
func filterTypes(events []model.SystemEvent, wanted []string) []model.SystemEvent {
	if len(wanted) == 0 {
		return events
	}
	allow := make(map[string]bool, len(wanted))
	for _, t := range wanted {
		allow[t] = true
	}
	kept := make([]model.SystemEvent, 0, len(events))
	for _, ev := range events {
		if allow[ev.EventType] {
			kept = append(kept, ev)
		}
	}
	return kept
}
