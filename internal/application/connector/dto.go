package connector

import (
	"time"

	"github.com/google/uuid"

	"github.com/b2bhub/backend/internal/domain/connector"
)

// ConfigureConnectorInput creates a tenant configuration for a connector
type ConfigureConnectorInput struct {
	TenantID            uuid.UUID
	ConnectorCode       string
	Name                string
	Config              map[string]any
	CredentialVaultID   *uuid.UUID
	EnabledCapabilities []string
	WebhookURL          string
	WebhookSecret       string
	WebhookEvents       []string
}

// CreateVaultEntryInput creates an encrypted credential entry
type CreateVaultEntryInput struct {
	TenantID       uuid.UUID
	Name           string
	Type           connector.CredentialType
	Credentials    map[string]any
	ExpiresAt      *time.Time
	RotationPolicy connector.RotationPolicy
	AccessPolicy   connector.AccessPolicy
}

// VaultEntryView is the metadata projection of a vault entry. Plaintext and
// ciphertext never appear here.
type VaultEntryView struct {
	ID             uuid.UUID                `json:"id"`
	TenantID       uuid.UUID                `json:"tenantId"`
	Name           string                   `json:"name"`
	Type           connector.CredentialType `json:"type"`
	ExpiresAt      *time.Time               `json:"expiresAt,omitempty"`
	RotatedAt      *time.Time               `json:"rotatedAt,omitempty"`
	LastAccessedAt *time.Time               `json:"lastAccessedAt,omitempty"`
	AccessCount    int                      `json:"accessCount"`
	RotationPolicy connector.RotationPolicy `json:"rotationPolicy"`
	AccessPolicy   connector.AccessPolicy   `json:"accessPolicy"`
	CreatedAt      time.Time                `json:"createdAt"`
}

func vaultEntryView(entry *connector.VaultEntry) VaultEntryView {
	return VaultEntryView{
		ID:             entry.ID,
		TenantID:       entry.TenantID,
		Name:           entry.Name,
		Type:           entry.Type,
		ExpiresAt:      entry.ExpiresAt,
		RotatedAt:      entry.RotatedAt,
		LastAccessedAt: entry.LastAccessedAt,
		AccessCount:    entry.AccessCount,
		RotationPolicy: entry.RotationPolicy,
		AccessPolicy:   entry.AccessPolicy,
		CreatedAt:      entry.CreatedAt,
	}
}

// ExecuteRequest asks the executor to run one capability
type ExecuteRequest struct {
	TenantID      uuid.UUID
	ConfigID      uuid.UUID
	Capability    string
	Input         map[string]any
	CorrelationID string
	UserID        string
}

// Executor error codes reported through ExecuteResponse.ErrorCode for
// failures that happen before the vendor is called.
const (
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConnectorDisabled    = "CONNECTOR_DISABLED"
	ErrCodeCapabilityNotEnabled = "CAPABILITY_NOT_ENABLED"
	ErrCodeCircuitOpen          = "CIRCUIT_OPEN"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeSystem               = "SYSTEM"
)

// ExecuteResponse is the structured outcome of a capability execution. The
// executor never returns an error alongside it; every failure is expressed
// through these fields.
type ExecuteResponse struct {
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TestConnectionResponse reports a connection test outcome
type TestConnectionResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Latency  time.Duration `json:"latency"`
	TestedAt time.Time     `json:"testedAt"`
}

// WebhookRequest carries one inbound vendor event for a configuration
type WebhookRequest struct {
	TenantID   uuid.UUID
	ConfigID   uuid.UUID
	DeliveryID string
	EventType  string
	Body       []byte
	Signature  string
	Headers    map[string]string
}

// WebhookResponse reports the outcome of webhook ingestion
type WebhookResponse struct {
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
	EventType string `json:"eventType,omitempty"`
}
