package audit

import (
	"encoding/json"
	"fmt"

	"medvault/core/storage"
)

// StoreAuditLogger persists audit events to the local encrypted store and
// mirrors them to a fallback logger so events remain visible even if the
// write fails.
type StoreAuditLogger struct {
	store    storage.KVBackend
	fallback AuditLogger
}

func NewStoreAuditLogger(store storage.KVBackend) *StoreAuditLogger {
	return &StoreAuditLogger{store: store, fallback: NewStdoutAuditLogger()}
}

// eventKey orders events per entity by timestamp, with the id as tiebreaker.
func eventKey(event AuditEvent) string {
	return fmt.Sprintf("%s%s:%019d:%s", storage.AuditPrefix, event.EntityID, event.Timestamp.UnixNano(), event.ID)
}

func (l *StoreAuditLogger) LogEvent(event AuditEvent) {
	if event.ID == "" || event.Timestamp.IsZero() {
		filled := NewEvent(event.EventType, event.EntityID, event.Result, event.Reason)
		filled.Metadata = event.Metadata
		event = filled
	}
	payload, err := json.Marshal(event)
	if err != nil {
		l.fallback.LogEvent(event)
		return
	}
	if err := l.store.Put(eventKey(event), payload); err != nil {
		fmt.Printf("[AUDIT] [WARN] failed to persist event %s: %v\n", event.ID, err)
		l.fallback.LogEvent(event)
	}
}

// EventsByEntity returns the most recent events for an entity, newest first.
// page is zero-based; limit caps the page size.
func (l *StoreAuditLogger) EventsByEntity(entityID string, page, limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if page < 0 {
		page = 0
	}
	prefix := storage.AuditPrefix + entityID + ":"
	values, err := l.store.ScanPrefix(prefix, (page+1)*limit)
	if err != nil {
		return nil, err
	}
	start := page * limit
	if start >= len(values) {
		return []AuditEvent{}, nil
	}
	values = values[start:]

	events := make([]AuditEvent, 0, len(values))
	for _, raw := range values {
		var event AuditEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
