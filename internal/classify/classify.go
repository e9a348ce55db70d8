// Package classify maps raw platform log records to a normalized
// (event type, severity, category) triple.
//
// The pipeline order is load-bearing: ordered pattern rules run first, then
// Windows event-ID bands, then syslog level strings, then the keyword
// category pass, and the severity clamp last. Later stages override earlier,
// coarser classifications.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tinytelemetry/vigil/internal/model"
)

// Rule is one ordered classification rule. Pattern is matched
// case-insensitively against the message; the first matching rule wins.
// Omitted fields leave the running classification untouched; Severity is a
// pointer so an explicit 0 is distinguishable from an absent field.
type Rule struct {
	Pattern   string `yaml:"pattern"`
	EventType string `yaml:"event_type"`
	Severity  *int   `yaml:"severity"`
	Category  string `yaml:"category"`

	re *regexp.Regexp
}

// Input is the subset of a raw platform record the classifier inspects.
type Input struct {
	Message string
	EventID int64  // Windows event id, 0 = none
	Level   string // syslog/eventlog level string, "" = none
}

// Classifier evaluates rules in order, then applies the platform override
// layers. Safe for concurrent use after construction.
type Classifier struct {
	rules []Rule
}

// New compiles the rule patterns and returns a ready classifier. Rules with
// empty patterns are dropped; an invalid pattern is an error.
func New(rules []Rule) (*Classifier, error) {
	compiled := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: compiling pattern %q: %w", i, r.Pattern, err)
		}
		r.re = re
		compiled = append(compiled, r)
	}
	return &Classifier{rules: compiled}, nil
}

// Classify returns the event type, severity (clamped to [0,100]) and
// category for one raw record.
func (c *Classifier) Classify(in Input) (eventType string, severity int, category string) {
	eventType = "info"
	severity = 50
	category = "other"

	message := strings.ToLower(in.Message)

	for _, r := range c.rules {
		if !r.re.MatchString(message) {
			continue
		}
		if r.EventType != "" {
			eventType = r.EventType
		}
		if r.Severity != nil {
			severity = *r.Severity
		}
		if r.Category != "" {
			category = r.Category
		}
		break
	}

	// Windows event-ID bands override rule-matched values.
	if in.EventID != 0 {
		switch {
		case in.EventID >= 4000:
			eventType, severity = "critical", 90
		case in.EventID >= 3000:
			eventType, severity = "error", 70
		case in.EventID >= 2000:
			eventType, severity = "warning", 60
		case in.EventID >= 1000:
			eventType, severity = "info", 40
		}
	}

	// Log-level strings run after ID bands and take precedence when present.
	switch strings.ToLower(in.Level) {
	case "error", "err":
		eventType, severity = "error", 70
	case "warning", "warn":
		eventType, severity = "warning", 60
	case "critical", "crit":
		eventType, severity = "critical", 90
	case "info":
		eventType, severity = "info", 40
	}

	// Keyword category pass. Security findings are floored at severity 70.
	switch {
	case containsAny(message, "security", "auth", "login", "logout"):
		category = "security"
		if severity < 70 {
			severity = 70
		}
	case containsAny(message, "network", "connection", "socket"):
		category = "network"
	case containsAny(message, "disk", "storage", "file system"):
		category = "storage"
	case containsAny(message, "performance", "slow", "timeout"):
		category = "performance"
	}

	return eventType, model.ClampSeverity(severity), category
}

func containsAny(message string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}
