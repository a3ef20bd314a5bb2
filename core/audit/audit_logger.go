package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEvent represents a resolution or access event at the gateway.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"` // e.g., "TimelineResolve", "AccessComplete"
	EntityID  string            `json:"entityId"`  // wallet address or record id
	Result    string            `json:"result"`    // "success" or "failure"
	Reason    string            `json:"reason"`    // error message or reason code
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent builds a timestamped event with a fresh id.
func NewEvent(eventType, entityID, result, reason string) AuditEvent {
	return AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		EntityID:  entityID,
		Result:    result,
		Reason:    reason,
	}
}

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// StdoutAuditLogger is a simple implementation that logs to stdout.
type StdoutAuditLogger struct{}

func (l *StdoutAuditLogger) LogEvent(event AuditEvent) {
	fmt.Printf("[%s] [%s] Entity: %s, Result: %s, Reason: %s, Metadata: %+v\n",
		event.Timestamp.Format(time.RFC3339), event.EventType, event.EntityID, event.Result, event.Reason, event.Metadata)
}

// NewStdoutAuditLogger returns a new StdoutAuditLogger.
func NewStdoutAuditLogger() AuditLogger {
	return &StdoutAuditLogger{}
}
