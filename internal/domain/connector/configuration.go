package connector

import (
	"time"

	"github.com/b2bhub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Configuration is the per-tenant binding of a connector: settings, enabled
// capability subset, credentials reference and webhook wiring. A tenant may
// hold several configurations for one connector; marking at most one primary
// is a caller policy, not enforced here.
type Configuration struct {
	shared.TenantAggregateRoot
	// ConnectorID references the connector catalog record
	ConnectorID uuid.UUID
	// ConnectorCode denormalizes the connector code for event records
	ConnectorCode string
	// Name is the tenant-chosen configuration name
	Name string
	// IsActive gates whether capability calls are accepted
	IsActive bool
	// IsPrimary marks the tenant's preferred configuration for the connector
	IsPrimary bool
	// Config holds the connector settings validated against the config schema
	Config map[string]any
	// CredentialVaultID references the vault entry holding the secrets, if any
	CredentialVaultID *uuid.UUID
	// EnabledCapabilities is the subset of declared capabilities this
	// configuration may invoke
	EnabledCapabilities []string
	// WebhookURL is the inbound webhook endpoint registered with the vendor
	WebhookURL string
	// WebhookSecret is the shared secret used to verify webhook signatures
	WebhookSecret string
	// WebhookEvents are the vendor event types subscribed to
	WebhookEvents []string
	// RateLimit overrides the connector rate limit when > 0
	RateLimit int
	// LastTestedAt is when testConnection last ran
	LastTestedAt *time.Time
	// LastTestResult is whether the last connection test succeeded
	LastTestResult bool
	// LastTestError holds the last connection test failure message
	LastTestError string
}

// NewConfiguration creates a tenant configuration for a connector
func NewConfiguration(tenantID uuid.UUID, conn *Connector, name string, config map[string]any) (*Configuration, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "tenant ID is required")
	}
	if conn == nil {
		return nil, ErrConnectorNotFound
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "configuration name is required")
	}
	if config == nil {
		config = make(map[string]any)
	}

	return &Configuration{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ConnectorID:         conn.ID,
		ConnectorCode:       conn.Code,
		Name:                name,
		IsActive:            true,
		Config:              config,
		EnabledCapabilities: make([]string, 0),
	}, nil
}

// IsCapabilityEnabled reports whether the capability code is in the enabled set
func (c *Configuration) IsCapabilityEnabled(code string) bool {
	for _, enabled := range c.EnabledCapabilities {
		if enabled == code {
			return true
		}
	}
	return false
}

// EnableCapabilities replaces the enabled capability set. Every code must be
// declared by the owning connector.
func (c *Configuration) EnableCapabilities(conn *Connector, codes []string) error {
	for _, code := range codes {
		if !conn.HasCapability(code) {
			return ErrCapabilityNotDeclared
		}
	}
	c.EnabledCapabilities = append([]string(nil), codes...)
	c.Touch()
	return nil
}

// SetCredentials points the configuration at a vault entry
func (c *Configuration) SetCredentials(vaultID uuid.UUID) {
	c.CredentialVaultID = &vaultID
	c.Touch()
}

// ClearCredentials removes the vault reference
func (c *Configuration) ClearCredentials() {
	c.CredentialVaultID = nil
	c.Touch()
}

// Disable soft-disables the configuration. Idempotent.
func (c *Configuration) Disable() {
	if c.IsActive {
		c.IsActive = false
		c.Touch()
	}
}

// Enable re-activates the configuration. Idempotent.
func (c *Configuration) Enable() {
	if !c.IsActive {
		c.IsActive = true
		c.Touch()
	}
}

// RecordTestResult persists the outcome of a connection test
func (c *Configuration) RecordTestResult(ok bool, errMsg string) {
	now := time.Now()
	c.LastTestedAt = &now
	c.LastTestResult = ok
	c.LastTestError = errMsg
	c.Touch()
}
