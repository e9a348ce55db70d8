package eventlog

import (
	"time"

	"github.com/tinytelemetry/vigil/internal/classify"
	"github.com/tinytelemetry/vigil/internal/model"
	"github.com/tinytelemetry/vigil/internal/privacy"
)

// rawEvent is one platform log record after source-specific field mapping
// but before classification and redaction.
type rawEvent struct {
	Timestamp   time.Time
	EventID     int64
	Level       string
	Message     string
	ProcessName string
	UserName    string
	MachineName string
	RawJSON     string
}

// normalize turns a raw record into a stored system event: classification,
// severity clamp, then privacy redaction. A zero timestamp falls back to
// now, matching the behavior on records the facility emits without one.
func normalize(raw rawEvent, source string, classifier *classify.Classifier, policy privacy.Policy) model.SystemEvent {
	eventType, severity, category := classifier.Classify(classify.Input{
		Message: raw.Message,
		EventID: raw.EventID,
		Level:   raw.Level,
	})

	message, messageHash := policy.RedactMessage(raw.Message)
	userName := policy.RedactUserName(raw.UserName)

	ts := raw.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return model.SystemEvent{
		Timestamp:   ts,
		EventType:   eventType,
		Severity:    model.ClampSeverity(severity),
		Source:      source,
		Category:    category,
		EventID:     raw.EventID,
		Message:     message,
		MessageHash: messageHash,
		RawJSON:     raw.RawJSON,
		ProcessName: raw.ProcessName,
		UserName:    userName,
		MachineName: raw.MachineName,
	}
}
