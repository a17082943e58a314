// Package kafka implements the reconciliation event stream: on a failed
// document-store mirror write, the dual-store writer publishes a
// mirror.write_failed event on topic irae.mirror-reconcile; a separate
// long-lived consumer (cmd/reconciler) drains it and retries the mirror
// write with backoff, independent of any request's lifetime.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultReconcileTopic is used when config.KafkaConfig.Topic is unset.
const DefaultReconcileTopic = "irae.mirror-reconcile"

// EventEnvelope standardizes every message published on the reconcile
// topic: event_id/event_type/source/timestamp/schema_version/payload.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// EventTypeMirrorWriteFailed is the sole event type carried on the
// reconcile topic.
const EventTypeMirrorWriteFailed = "mirror.write_failed"

// MirrorWriteFailedPayload carries everything the reconciler needs to
// retry the document-store write: the canonical name, when the failure
// was observed, and the cause for operator visibility.
type MirrorWriteFailedPayload struct {
	CanonicalName string    `json:"canonical_name"`
	AttemptedAt   time.Time `json:"attempted_at"`
	Error         string    `json:"error"`
}

// NewMirrorWriteFailedEnvelope builds the envelope published by the
// Dual-Store Writer.
func NewMirrorWriteFailedEnvelope(canonicalName string, attemptedAt time.Time, cause error) (EventEnvelope, error) {
	payload := MirrorWriteFailedPayload{
		CanonicalName: canonicalName,
		AttemptedAt:   attemptedAt,
	}
	if cause != nil {
		payload.Error = cause.Error()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     EventTypeMirrorWriteFailed,
		Source:        "irae-dualstore",
		Timestamp:     attemptedAt,
		SchemaVersion: "1",
		Payload:       body,
	}, nil
}

// DecodeMirrorWriteFailed extracts the payload from an envelope already
// known to carry EventTypeMirrorWriteFailed.
func DecodeMirrorWriteFailed(env EventEnvelope) (MirrorWriteFailedPayload, error) {
	var p MirrorWriteFailedPayload
	err := json.Unmarshal(env.Payload, &p)
	return p, err
}
