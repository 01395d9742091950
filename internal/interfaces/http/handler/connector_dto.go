package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/b2bhub/backend/internal/domain/connector"
)

// ConnectorResponse represents a connector catalog record
type ConnectorResponse struct {
	ID               uuid.UUID               `json:"id"`
	Code             string                  `json:"code"`
	Name             string                  `json:"name"`
	Type             string                  `json:"type"`
	Direction        string                  `json:"direction"`
	IsActive         bool                    `json:"is_active"`
	IsBuiltIn        bool                    `json:"is_built_in"`
	Capabilities     []CapabilityResponse    `json:"capabilities"`
	ConfigSchema     *connector.ConfigSchema `json:"config_schema,omitempty"`
	FailureThreshold int                     `json:"failure_threshold"`
	SuccessThreshold int                     `json:"success_threshold"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// CapabilityResponse represents a declared capability
type CapabilityResponse struct {
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	RequiredScopes []string `json:"required_scopes,omitempty"`
	IsOptional     bool     `json:"is_optional,omitempty"`
	IsDeprecated   bool     `json:"is_deprecated,omitempty"`
}

func toConnectorResponse(conn *connector.Connector) ConnectorResponse {
	capabilities := make([]CapabilityResponse, len(conn.Capabilities))
	for i, capability := range conn.Capabilities {
		capabilities[i] = CapabilityResponse{
			Code:           capability.Code,
			Name:           capability.Name,
			Category:       string(capability.Category),
			RequiredScopes: capability.RequiredScopes,
			IsOptional:     capability.IsOptional,
			IsDeprecated:   capability.IsDeprecated,
		}
	}

	return ConnectorResponse{
		ID:               conn.ID,
		Code:             conn.Code,
		Name:             conn.Name,
		Type:             conn.Type.String(),
		Direction:        conn.Direction.String(),
		IsActive:         conn.IsActive,
		IsBuiltIn:        conn.IsBuiltIn,
		Capabilities:     capabilities,
		ConfigSchema:     conn.ConfigSchema,
		FailureThreshold: conn.FailureThreshold,
		SuccessThreshold: conn.SuccessThreshold,
		CreatedAt:        conn.CreatedAt,
		UpdatedAt:        conn.UpdatedAt,
	}
}

// ConfigurationResponse represents a tenant connector configuration.
// Credentials are referenced by vault ID only; the webhook secret is never
// included.
type ConfigurationResponse struct {
	ID                  uuid.UUID      `json:"id"`
	TenantID            uuid.UUID      `json:"tenant_id"`
	ConnectorID         uuid.UUID      `json:"connector_id"`
	ConnectorCode       string         `json:"connector_code"`
	Name                string         `json:"name"`
	IsActive            bool           `json:"is_active"`
	IsPrimary           bool           `json:"is_primary"`
	Config              map[string]any `json:"config"`
	CredentialVaultID   *uuid.UUID     `json:"credential_vault_id,omitempty"`
	EnabledCapabilities []string       `json:"enabled_capabilities"`
	WebhookURL          string         `json:"webhook_url,omitempty"`
	WebhookEvents       []string       `json:"webhook_events,omitempty"`
	LastTestedAt        *time.Time     `json:"last_tested_at,omitempty"`
	LastTestResult      bool           `json:"last_test_result"`
	LastTestError       string         `json:"last_test_error,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func toConfigurationResponse(cfg *connector.Configuration) ConfigurationResponse {
	return ConfigurationResponse{
		ID:                  cfg.ID,
		TenantID:            cfg.TenantID,
		ConnectorID:         cfg.ConnectorID,
		ConnectorCode:       cfg.ConnectorCode,
		Name:                cfg.Name,
		IsActive:            cfg.IsActive,
		IsPrimary:           cfg.IsPrimary,
		Config:              cfg.Config,
		CredentialVaultID:   cfg.CredentialVaultID,
		EnabledCapabilities: cfg.EnabledCapabilities,
		WebhookURL:          cfg.WebhookURL,
		WebhookEvents:       cfg.WebhookEvents,
		LastTestedAt:        cfg.LastTestedAt,
		LastTestResult:      cfg.LastTestResult,
		LastTestError:       cfg.LastTestError,
		CreatedAt:           cfg.CreatedAt,
		UpdatedAt:           cfg.UpdatedAt,
	}
}

// EventResponse represents one audit event
type EventResponse struct {
	ID            uuid.UUID      `json:"id"`
	ConnectorCode string         `json:"connector_code"`
	ConfigID      *uuid.UUID     `json:"config_id,omitempty"`
	Type          string         `json:"type"`
	Timestamp     time.Time      `json:"timestamp"`
	Details       map[string]any `json:"details"`
}

func toEventResponses(events []connector.Event) []EventResponse {
	responses := make([]EventResponse, len(events))
	for i, event := range events {
		responses[i] = EventResponse{
			ID:            event.ID,
			ConnectorCode: event.ConnectorCode,
			ConfigID:      event.ConfigID,
			Type:          string(event.Type),
			Timestamp:     event.Timestamp,
			Details:       event.Details,
		}
	}
	return responses
}
