package connector

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies connector audit events
type EventType string

const (
	// EventInvoke records a capability invocation starting
	EventInvoke EventType = "INVOKE"
	// EventSuccess records a capability invocation succeeding
	EventSuccess EventType = "SUCCESS"
	// EventFailure records a capability invocation failing after retries
	EventFailure EventType = "FAILURE"
	// EventCircuitOpen records the breaker opening for a configuration
	EventCircuitOpen EventType = "CIRCUIT_OPEN"
	// EventCircuitClose records the breaker closing for a configuration
	EventCircuitClose EventType = "CIRCUIT_CLOSE"
	// EventCredentialRotate records a vault entry payload rotation
	EventCredentialRotate EventType = "CREDENTIAL_ROTATE"
	// EventCredentialAccess records a vault entry decryption
	EventCredentialAccess EventType = "CREDENTIAL_ACCESS"
	// EventTestConnection records a connection test
	EventTestConnection EventType = "TEST_CONNECTION"
	// EventWebhookReceived records an inbound webhook
	EventWebhookReceived EventType = "WEBHOOK_RECEIVED"
)

// Event is an immutable, append-only audit record. The raw vendor error from
// a failed invocation is preserved here and nowhere else.
type Event struct {
	// ID is the event identifier
	ID uuid.UUID
	// ConnectorCode is the code of the connector involved
	ConnectorCode string
	// ConfigID is the configuration involved, if any
	ConfigID *uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// Type classifies the event
	Type EventType
	// Timestamp is when the event occurred
	Timestamp time.Time
	// Details carries structured context (capability, attempts, raw error)
	Details map[string]any
}

// NewEvent creates an audit event stamped with the current time
func NewEvent(tenantID uuid.UUID, connectorCode string, configID *uuid.UUID, typ EventType, details map[string]any) *Event {
	if details == nil {
		details = make(map[string]any)
	}
	return &Event{
		ID:            uuid.New(),
		ConnectorCode: connectorCode,
		ConfigID:      configID,
		TenantID:      tenantID,
		Type:          typ,
		Timestamp:     time.Now(),
		Details:       details,
	}
}
