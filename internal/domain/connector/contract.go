package connector

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metadata describes a connector plugin to the registry
type Metadata struct {
	// Code is the connector's unique code (e.g. "sap-s4hana")
	Code string
	// Name is the human-readable connector name
	Name string
	// Version is the plugin implementation version
	Version string
	// Type classifies the external system
	Type Type
	// Direction declares the supported data flow
	Direction Direction
	// Description explains what the connector integrates with
	Description string
}

// CredentialRequirement declares one secret field a connector needs
type CredentialRequirement struct {
	// Key is the field name inside the credential payload
	Key string
	// Label is the display name
	Label string
	// Required indicates whether the field is mandatory
	Required bool
	// Secret marks fields that must never be echoed back
	Secret bool
}

// ExecutionContext carries everything a plugin needs to perform one call
type ExecutionContext struct {
	// TenantID is the tenant on whose behalf the call runs
	TenantID uuid.UUID
	// ConfigID is the configuration being executed
	ConfigID uuid.UUID
	// Config is the configuration's settings with schema defaults applied
	Config map[string]any
	// Credentials is the decrypted secret payload, nil when no vault entry is set
	Credentials map[string]any
	// CorrelationID ties the call to the caller's request chain
	CorrelationID string
	// UserID is the initiating user, if any
	UserID string
	// Metadata carries additional caller context
	Metadata map[string]string
}

// ExecutionResult is a plugin's raw outcome before canonical mapping
type ExecutionResult struct {
	// Data is the vendor response mapped to a canonical or plain shape
	Data any
	// Metadata carries vendor diagnostics (request IDs, timings)
	Metadata map[string]any
}

// WebhookPayload is an inbound vendor event prior to verification
type WebhookPayload struct {
	// EventType is the vendor-declared event type, if present
	EventType string
	// Data is the raw event body
	Data []byte
	// Timestamp is when the event was received
	Timestamp time.Time
	// Signature is the vendor-supplied signature, if any
	Signature string
	// Headers are the transport headers relevant to verification
	Headers map[string]string
}

// WebhookResult is the outcome of webhook verification and decoding.
// Verification fails closed: an invalid signature yields Valid=false and no
// side effects.
type WebhookResult struct {
	// Valid reports whether the payload verified
	Valid bool
	// Error explains a failed verification
	Error string
	// EventType is the decoded event type for valid payloads
	EventType string
	// Data is the decoded event body for valid payloads
	Data map[string]any
}

// TestResult is the outcome of a connection test. Tests never return errors;
// failures are reported through the result.
type TestResult struct {
	// Success reports whether the external system answered
	Success bool
	// Message is a human-readable summary
	Message string
	// Latency is the observed round-trip time
	Latency time.Duration
}

// Plugin is the contract every vendor connector implements. Implementations
// are compiled in and registered at startup; there is no runtime code loading.
type Plugin interface {
	// Metadata describes the connector to the registry
	Metadata() Metadata

	// CredentialRequirements declares the secret fields the connector needs
	CredentialRequirements() []CredentialRequirement

	// ConfigSchema describes the settings a configuration must provide
	ConfigSchema() *ConfigSchema

	// Capabilities declares the operations the connector performs
	Capabilities() []Capability

	// Initialize prepares the plugin for use; called once at registration
	Initialize(ctx context.Context) error

	// TestConnection verifies the external system is reachable with the
	// given configuration and credentials
	TestConnection(ctx context.Context, execCtx ExecutionContext) TestResult

	// ExecuteCapability performs one named operation. Vendor failures are
	// returned as errors for the resilience policy to classify.
	ExecuteCapability(ctx context.Context, code string, input map[string]any, execCtx ExecutionContext) (*ExecutionResult, error)
}

// WebhookHandler is implemented by plugins that accept inbound vendor events
type WebhookHandler interface {
	// HandleWebhook verifies and decodes an inbound event. Invalid
	// signatures must produce Valid=false, never an error with side effects.
	HandleWebhook(ctx context.Context, payload WebhookPayload, execCtx ExecutionContext) WebhookResult
}

// Destroyer is implemented by plugins that hold releasable resources
type Destroyer interface {
	// Destroy releases plugin resources at shutdown
	Destroy() error
}
