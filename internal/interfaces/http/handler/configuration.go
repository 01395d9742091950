package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	connectorapp "github.com/b2bhub/backend/internal/application/connector"
)

// ConfigurationHandler handles tenant connector configuration endpoints
type ConfigurationHandler struct {
	BaseHandler
	registry *connectorapp.RegistryService
	executor *connectorapp.ExecutorService
	vault    *connectorapp.VaultService
}

// NewConfigurationHandler creates a new ConfigurationHandler
func NewConfigurationHandler(
	registry *connectorapp.RegistryService,
	executor *connectorapp.ExecutorService,
	vault *connectorapp.VaultService,
) *ConfigurationHandler {
	return &ConfigurationHandler{
		registry: registry,
		executor: executor,
		vault:    vault,
	}
}

// CreateConfigurationRequest represents a request to configure a connector
type CreateConfigurationRequest struct {
	ConnectorCode       string         `json:"connector_code" binding:"required,min=1,max=64"`
	Name                string         `json:"name" binding:"required,min=1,max=200"`
	Config              map[string]any `json:"config"`
	CredentialVaultID   *uuid.UUID     `json:"credential_vault_id"`
	EnabledCapabilities []string       `json:"enabled_capabilities"`
	WebhookURL          string         `json:"webhook_url" binding:"omitempty,url,max=500"`
	WebhookSecret       string         `json:"webhook_secret" binding:"max=200"`
	WebhookEvents       []string       `json:"webhook_events"`
}

// ExecuteCapabilityRequest represents a request to run one capability
type ExecuteCapabilityRequest struct {
	Capability    string         `json:"capability" binding:"required,min=2,max=64"`
	Input         map[string]any `json:"input"`
	CorrelationID string         `json:"correlation_id" binding:"max=128"`
}

// Create configures a connector for the calling tenant
func (h *ConfigurationHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	cfg, err := h.registry.ConfigureConnector(c.Request.Context(), connectorapp.ConfigureConnectorInput{
		TenantID:            tenantID,
		ConnectorCode:       req.ConnectorCode,
		Name:                req.Name,
		Config:              req.Config,
		CredentialVaultID:   req.CredentialVaultID,
		EnabledCapabilities: req.EnabledCapabilities,
		WebhookURL:          req.WebhookURL,
		WebhookSecret:       req.WebhookSecret,
		WebhookEvents:       req.WebhookEvents,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toConfigurationResponse(cfg))
}

// List returns the calling tenant's configurations
func (h *ConfigurationHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configs, err := h.registry.ListConfigurations(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]ConfigurationResponse, len(configs))
	for i := range configs {
		responses[i] = toConfigurationResponse(&configs[i])
	}
	h.Success(c, responses)
}

// GetByID returns one configuration scoped to the calling tenant
func (h *ConfigurationHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	cfg, err := h.registry.GetConfiguration(c.Request.Context(), tenantID, configID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toConfigurationResponse(cfg))
}

// Enable re-activates a configuration
func (h *ConfigurationHandler) Enable(c *gin.Context) {
	h.toggle(c, h.registry.EnableConfiguration)
}

// Disable soft-disables a configuration
func (h *ConfigurationHandler) Disable(c *gin.Context) {
	h.toggle(c, h.registry.DisableConfiguration)
}

func (h *ConfigurationHandler) toggle(c *gin.Context, op func(ctx context.Context, tenantID, id uuid.UUID) error) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	if err := op(c.Request.Context(), tenantID, configID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete removes a disabled configuration
func (h *ConfigurationHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	if err := h.registry.DeleteConfiguration(c.Request.Context(), tenantID, configID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Test runs the connector's connection test against the configuration
func (h *ConfigurationHandler) Test(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	result, err := h.registry.TestConnection(c.Request.Context(), tenantID, configID, h.vault.Decrypt)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// Execute runs one capability through the executor. The executor reports
// every outcome through the response body; the HTTP status mirrors the
// error code.
func (h *ConfigurationHandler) Execute(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	var req ExecuteCapabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result := h.executor.Execute(c.Request.Context(), connectorapp.ExecuteRequest{
		TenantID:      tenantID,
		ConfigID:      configID,
		Capability:    req.Capability,
		Input:         req.Input,
		CorrelationID: req.CorrelationID,
		UserID:        getUserID(c),
	})

	c.JSON(executeStatus(result), result)
}

// Events returns the recent audit trail for a configuration
func (h *ConfigurationHandler) Events(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	configID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.registry.ListConfigurationEvents(c.Request.Context(), tenantID, configID, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponses(events))
}

// TenantEvents lists recent audit events across all of the tenant's
// configurations
func (h *ConfigurationHandler) TenantEvents(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.registry.ListTenantEvents(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toEventResponses(events))
}

// executeStatus maps an execution outcome to an HTTP status code
func executeStatus(result *connectorapp.ExecuteResponse) int {
	if result.Success {
		return http.StatusOK
	}

	switch result.ErrorCode {
	case connectorapp.ErrCodeNotFound:
		return http.StatusNotFound
	case connectorapp.ErrCodeConnectorDisabled, connectorapp.ErrCodeCapabilityNotEnabled:
		return http.StatusUnprocessableEntity
	case connectorapp.ErrCodeCircuitOpen:
		return http.StatusServiceUnavailable
	case connectorapp.ErrCodeForbidden:
		return http.StatusForbidden
	case "VALIDATION", "BUSINESS_RULE":
		return http.StatusUnprocessableEntity
	case "CONFLICT":
		return http.StatusConflict
	case "RATE_LIMIT":
		return http.StatusTooManyRequests
	default:
		// Vendor-side failures (network, timeout, auth against the vendor)
		return http.StatusBadGateway
	}
}

// RegisterRoutes registers configuration routes
func (h *ConfigurationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	configs := rg.Group("/configurations")
	{
		configs.POST("", h.Create)
		configs.GET("", h.List)
		configs.GET("/:id", h.GetByID)
		configs.POST("/:id/enable", h.Enable)
		configs.POST("/:id/disable", h.Disable)
		configs.DELETE("/:id", h.Delete)
		configs.POST("/:id/test", h.Test)
		configs.POST("/:id/execute", h.Execute)
		configs.GET("/:id/events", h.Events)
	}

	rg.GET("/events", h.TenantEvents)
}
