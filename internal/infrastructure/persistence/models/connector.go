package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/b2bhub/backend/internal/domain/connector"
)

// ConnectorModel is the persistence model for the Connector catalog record.
type ConnectorModel struct {
	AggregateModel
	Code             string              `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name             string              `gorm:"type:varchar(255);not null"`
	Type             connector.Type      `gorm:"type:varchar(20);not null"`
	Direction        connector.Direction `gorm:"type:varchar(20);not null"`
	IsActive         bool                `gorm:"not null;default:true"`
	IsBuiltIn        bool                `gorm:"not null;default:false"`
	CapabilitiesJSON string              `gorm:"type:jsonb;column:capabilities"`
	ConfigSchemaJSON string              `gorm:"type:jsonb;column:config_schema"`
	RateLimit        int                 `gorm:"not null;default:0"`
	RateLimitWindow  int64               `gorm:"not null;default:0"`
	FailureThreshold int                 `gorm:"not null;default:5"`
	SuccessThreshold int                 `gorm:"not null;default:2"`
}

// TableName returns the table name for GORM
func (ConnectorModel) TableName() string {
	return "connectors"
}

// ToDomain converts the persistence model to a domain Connector
func (m *ConnectorModel) ToDomain() *connector.Connector {
	conn := &connector.Connector{
		Code:             m.Code,
		Name:             m.Name,
		Type:             m.Type,
		Direction:        m.Direction,
		IsActive:         m.IsActive,
		IsBuiltIn:        m.IsBuiltIn,
		Capabilities:     make([]connector.Capability, 0),
		RateLimit:        m.RateLimit,
		RateLimitWindow:  time.Duration(m.RateLimitWindow),
		FailureThreshold: m.FailureThreshold,
		SuccessThreshold: m.SuccessThreshold,
	}
	m.PopulateAggregateRoot(&conn.BaseAggregateRoot)

	if m.CapabilitiesJSON != "" {
		var capabilities []connector.Capability
		if err := json.Unmarshal([]byte(m.CapabilitiesJSON), &capabilities); err == nil {
			conn.Capabilities = capabilities
		}
	}
	if m.ConfigSchemaJSON != "" {
		var schema connector.ConfigSchema
		if err := json.Unmarshal([]byte(m.ConfigSchemaJSON), &schema); err == nil {
			conn.ConfigSchema = &schema
		}
	}
	return conn
}

// FromDomain populates the persistence model from a domain Connector
func (m *ConnectorModel) FromDomain(conn *connector.Connector) {
	m.FromDomainAggregateRoot(conn.BaseAggregateRoot)
	m.Code = conn.Code
	m.Name = conn.Name
	m.Type = conn.Type
	m.Direction = conn.Direction
	m.IsActive = conn.IsActive
	m.IsBuiltIn = conn.IsBuiltIn
	m.RateLimit = conn.RateLimit
	m.RateLimitWindow = int64(conn.RateLimitWindow)
	m.FailureThreshold = conn.FailureThreshold
	m.SuccessThreshold = conn.SuccessThreshold

	m.CapabilitiesJSON = marshalOrEmptyArray(conn.Capabilities)
	if conn.ConfigSchema != nil {
		if jsonBytes, err := json.Marshal(conn.ConfigSchema); err == nil {
			m.ConfigSchemaJSON = string(jsonBytes)
		}
	} else {
		m.ConfigSchemaJSON = ""
	}
}

// ConnectorModelFromDomain creates a new persistence model from a domain Connector
func ConnectorModelFromDomain(conn *connector.Connector) *ConnectorModel {
	m := &ConnectorModel{}
	m.FromDomain(conn)
	return m
}

// ConfigurationModel is the persistence model for tenant connector configurations.
type ConfigurationModel struct {
	TenantAggregateModel
	ConnectorID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	ConnectorCode           string     `gorm:"type:varchar(64);not null;index"`
	Name                    string     `gorm:"type:varchar(255);not null"`
	IsActive                bool       `gorm:"not null;default:true"`
	IsPrimary               bool       `gorm:"not null;default:false"`
	ConfigJSON              string     `gorm:"type:jsonb;column:config"`
	CredentialVaultID       *uuid.UUID `gorm:"type:uuid;index"`
	EnabledCapabilitiesJSON string     `gorm:"type:jsonb;column:enabled_capabilities"`
	WebhookURL              string     `gorm:"type:varchar(2048)"`
	WebhookSecret           string     `gorm:"type:varchar(255)"`
	WebhookEventsJSON       string     `gorm:"type:jsonb;column:webhook_events"`
	RateLimit               int        `gorm:"not null;default:0"`
	LastTestedAt            *time.Time
	LastTestResult          bool   `gorm:"not null;default:false"`
	LastTestError           string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ConfigurationModel) TableName() string {
	return "connector_configurations"
}

// ToDomain converts the persistence model to a domain Configuration
func (m *ConfigurationModel) ToDomain() *connector.Configuration {
	cfg := &connector.Configuration{
		ConnectorID:         m.ConnectorID,
		ConnectorCode:       m.ConnectorCode,
		Name:                m.Name,
		IsActive:            m.IsActive,
		IsPrimary:           m.IsPrimary,
		Config:              make(map[string]any),
		CredentialVaultID:   m.CredentialVaultID,
		EnabledCapabilities: make([]string, 0),
		WebhookURL:          m.WebhookURL,
		WebhookSecret:       m.WebhookSecret,
		WebhookEvents:       make([]string, 0),
		RateLimit:           m.RateLimit,
		LastTestedAt:        m.LastTestedAt,
		LastTestResult:      m.LastTestResult,
		LastTestError:       m.LastTestError,
	}
	m.PopulateTenantAggregateRoot(&cfg.TenantAggregateRoot)

	if m.ConfigJSON != "" {
		var config map[string]any
		if err := json.Unmarshal([]byte(m.ConfigJSON), &config); err == nil {
			cfg.Config = config
		}
	}
	if m.EnabledCapabilitiesJSON != "" {
		var capabilities []string
		if err := json.Unmarshal([]byte(m.EnabledCapabilitiesJSON), &capabilities); err == nil {
			cfg.EnabledCapabilities = capabilities
		}
	}
	if m.WebhookEventsJSON != "" {
		var events []string
		if err := json.Unmarshal([]byte(m.WebhookEventsJSON), &events); err == nil {
			cfg.WebhookEvents = events
		}
	}
	return cfg
}

// FromDomain populates the persistence model from a domain Configuration
func (m *ConfigurationModel) FromDomain(cfg *connector.Configuration) {
	m.FromDomainTenantAggregateRoot(cfg.TenantAggregateRoot)
	m.ConnectorID = cfg.ConnectorID
	m.ConnectorCode = cfg.ConnectorCode
	m.Name = cfg.Name
	m.IsActive = cfg.IsActive
	m.IsPrimary = cfg.IsPrimary
	m.CredentialVaultID = cfg.CredentialVaultID
	m.WebhookURL = cfg.WebhookURL
	m.WebhookSecret = cfg.WebhookSecret
	m.RateLimit = cfg.RateLimit
	m.LastTestedAt = cfg.LastTestedAt
	m.LastTestResult = cfg.LastTestResult
	m.LastTestError = cfg.LastTestError

	m.ConfigJSON = marshalOrEmptyObject(cfg.Config)
	m.EnabledCapabilitiesJSON = marshalOrEmptyArray(cfg.EnabledCapabilities)
	m.WebhookEventsJSON = marshalOrEmptyArray(cfg.WebhookEvents)
}

// ConfigurationModelFromDomain creates a new persistence model from a domain Configuration
func ConfigurationModelFromDomain(cfg *connector.Configuration) *ConfigurationModel {
	m := &ConfigurationModel{}
	m.FromDomain(cfg)
	return m
}

// VaultEntryModel is the persistence model for encrypted credential entries.
// The payload column only ever holds ciphertext.
type VaultEntryModel struct {
	TenantAggregateModel
	Name               string                   `gorm:"type:varchar(255);not null"`
	Type               connector.CredentialType `gorm:"type:varchar(20);not null"`
	EncryptedPayload   string                   `gorm:"type:text;not null"`
	ExpiresAt          *time.Time               `gorm:"index"`
	RotatedAt          *time.Time
	LastAccessedAt     *time.Time
	AccessCount        int    `gorm:"not null;default:0"`
	RotationPolicyJSON string `gorm:"type:jsonb;column:rotation_policy"`
	AccessPolicyJSON   string `gorm:"type:jsonb;column:access_policy"`
}

// TableName returns the table name for GORM
func (VaultEntryModel) TableName() string {
	return "credential_vault_entries"
}

// ToDomain converts the persistence model to a domain VaultEntry
func (m *VaultEntryModel) ToDomain() *connector.VaultEntry {
	entry := &connector.VaultEntry{
		Name:             m.Name,
		Type:             m.Type,
		EncryptedPayload: m.EncryptedPayload,
		ExpiresAt:        m.ExpiresAt,
		RotatedAt:        m.RotatedAt,
		LastAccessedAt:   m.LastAccessedAt,
		AccessCount:      m.AccessCount,
	}
	m.PopulateTenantAggregateRoot(&entry.TenantAggregateRoot)

	if m.RotationPolicyJSON != "" {
		var policy connector.RotationPolicy
		if err := json.Unmarshal([]byte(m.RotationPolicyJSON), &policy); err == nil {
			entry.RotationPolicy = policy
		}
	}
	if m.AccessPolicyJSON != "" {
		var policy connector.AccessPolicy
		if err := json.Unmarshal([]byte(m.AccessPolicyJSON), &policy); err == nil {
			entry.AccessPolicy = policy
		}
	}
	return entry
}

// FromDomain populates the persistence model from a domain VaultEntry
func (m *VaultEntryModel) FromDomain(entry *connector.VaultEntry) {
	m.FromDomainTenantAggregateRoot(entry.TenantAggregateRoot)
	m.Name = entry.Name
	m.Type = entry.Type
	m.EncryptedPayload = entry.EncryptedPayload
	m.ExpiresAt = entry.ExpiresAt
	m.RotatedAt = entry.RotatedAt
	m.LastAccessedAt = entry.LastAccessedAt
	m.AccessCount = entry.AccessCount

	if jsonBytes, err := json.Marshal(entry.RotationPolicy); err == nil {
		m.RotationPolicyJSON = string(jsonBytes)
	}
	if jsonBytes, err := json.Marshal(entry.AccessPolicy); err == nil {
		m.AccessPolicyJSON = string(jsonBytes)
	}
}

// VaultEntryModelFromDomain creates a new persistence model from a domain VaultEntry
func VaultEntryModelFromDomain(entry *connector.VaultEntry) *VaultEntryModel {
	m := &VaultEntryModel{}
	m.FromDomain(entry)
	return m
}

// EventModel is the persistence model for append-only connector audit events.
type EventModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_connector_events_tenant_time,priority:1"`
	ConnectorCode string              `gorm:"type:varchar(64);not null"`
	ConfigID      *uuid.UUID          `gorm:"type:uuid;index:idx_connector_events_config_time,priority:1"`
	Type          connector.EventType `gorm:"type:varchar(32);not null"`
	Timestamp     time.Time           `gorm:"not null;index:idx_connector_events_tenant_time,priority:2;index:idx_connector_events_config_time,priority:2"`
	DetailsJSON   string              `gorm:"type:jsonb;column:details"`
}

// TableName returns the table name for GORM
func (EventModel) TableName() string {
	return "connector_events"
}

// ToDomain converts the persistence model to a domain Event
func (m *EventModel) ToDomain() *connector.Event {
	event := &connector.Event{
		ID:            m.ID,
		TenantID:      m.TenantID,
		ConnectorCode: m.ConnectorCode,
		ConfigID:      m.ConfigID,
		Type:          m.Type,
		Timestamp:     m.Timestamp,
		Details:       make(map[string]any),
	}
	if m.DetailsJSON != "" {
		var details map[string]any
		if err := json.Unmarshal([]byte(m.DetailsJSON), &details); err == nil {
			event.Details = details
		}
	}
	return event
}

// EventModelFromDomain creates a new persistence model from a domain Event
func EventModelFromDomain(event *connector.Event) *EventModel {
	m := &EventModel{
		ID:            event.ID,
		TenantID:      event.TenantID,
		ConnectorCode: event.ConnectorCode,
		ConfigID:      event.ConfigID,
		Type:          event.Type,
		Timestamp:     event.Timestamp,
		DetailsJSON:   marshalOrEmptyObject(event.Details),
	}
	return m
}

func marshalOrEmptyArray(v any) string {
	jsonBytes, err := json.Marshal(v)
	if err != nil || string(jsonBytes) == "null" {
		return "[]"
	}
	return string(jsonBytes)
}

func marshalOrEmptyObject(v any) string {
	jsonBytes, err := json.Marshal(v)
	if err != nil || string(jsonBytes) == "null" {
		return "{}"
	}
	return string(jsonBytes)
}
