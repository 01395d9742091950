package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	connectorapp "github.com/b2bhub/backend/internal/application/connector"
	"github.com/b2bhub/backend/internal/domain/connector"
)

// VaultHandler handles credential vault endpoints. Responses only ever
// carry entry metadata; decrypted secrets are never exposed over HTTP.
type VaultHandler struct {
	BaseHandler
	vault *connectorapp.VaultService
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(vault *connectorapp.VaultService) *VaultHandler {
	return &VaultHandler{vault: vault}
}

// CreateVaultEntryRequest represents a request to store credentials
type CreateVaultEntryRequest struct {
	Name           string                   `json:"name" binding:"required,min=1,max=200"`
	Type           string                   `json:"type" binding:"required,oneof=BASIC OAUTH2 API_KEY CERTIFICATE CUSTOM"`
	Credentials    map[string]any           `json:"credentials" binding:"required"`
	ExpiresAt      *time.Time               `json:"expires_at"`
	RotationPolicy connector.RotationPolicy `json:"rotation_policy"`
	AccessPolicy   connector.AccessPolicy   `json:"access_policy"`
}

// RotateVaultEntryRequest represents a request to replace the stored secret
type RotateVaultEntryRequest struct {
	Credentials map[string]any `json:"credentials" binding:"required"`
}

// Create stores a new encrypted credential entry
func (h *VaultHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateVaultEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entry, err := h.vault.Create(c.Request.Context(), connectorapp.CreateVaultEntryInput{
		TenantID:       tenantID,
		Name:           req.Name,
		Type:           connector.CredentialType(req.Type),
		Credentials:    req.Credentials,
		ExpiresAt:      req.ExpiresAt,
		RotationPolicy: req.RotationPolicy,
		AccessPolicy:   req.AccessPolicy,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, entry)
}

// List returns the calling tenant's vault entry metadata
func (h *VaultHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	entries, err := h.vault.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// GetByID returns metadata for one vault entry
func (h *VaultHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vault entry ID format")
		return
	}

	entry, err := h.vault.Get(c.Request.Context(), tenantID, entryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// Rotate replaces the stored secret material
func (h *VaultHandler) Rotate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vault entry ID format")
		return
	}

	var req RotateVaultEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	entry, err := h.vault.Rotate(c.Request.Context(), tenantID, entryID, req.Credentials)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entry)
}

// Delete removes an unreferenced vault entry
func (h *VaultHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vault entry ID format")
		return
	}

	if err := h.vault.Delete(c.Request.Context(), tenantID, entryID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Expiring returns entries whose expiry falls within the given window
func (h *VaultHandler) Expiring(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	window, err := time.ParseDuration(c.DefaultQuery("window", "720h"))
	if err != nil || window <= 0 {
		h.BadRequest(c, "Invalid window duration")
		return
	}

	entries, err := h.vault.GetExpiring(c.Request.Context(), tenantID, window)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// RotationDue returns entries whose rotation interval has elapsed
func (h *VaultHandler) RotationDue(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	entries, err := h.vault.GetNeedingRotation(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// RegisterRoutes registers vault routes
func (h *VaultHandler) RegisterRoutes(rg *gin.RouterGroup) {
	vault := rg.Group("/vault")
	{
		vault.POST("", h.Create)
		vault.GET("", h.List)
		vault.GET("/expiring", h.Expiring)
		vault.GET("/rotation-due", h.RotationDue)
		vault.GET("/:id", h.GetByID)
		vault.POST("/:id/rotate", h.Rotate)
		vault.DELETE("/:id", h.Delete)
	}
}
