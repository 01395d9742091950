package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	connectorapp "github.com/b2bhub/backend/internal/application/connector"
)

// ConnectorHandler handles connector catalog endpoints
type ConnectorHandler struct {
	BaseHandler
	registry *connectorapp.RegistryService
}

// NewConnectorHandler creates a new ConnectorHandler
func NewConnectorHandler(registry *connectorapp.RegistryService) *ConnectorHandler {
	return &ConnectorHandler{registry: registry}
}

// List returns all connectors in the catalog
func (h *ConnectorHandler) List(c *gin.Context) {
	connectors, err := h.registry.ListConnectors(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]ConnectorResponse, len(connectors))
	for i := range connectors {
		responses[i] = toConnectorResponse(&connectors[i])
	}
	h.Success(c, responses)
}

// GetByID returns one connector catalog record
func (h *ConnectorHandler) GetByID(c *gin.Context) {
	connectorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connector ID format")
		return
	}

	conn, err := h.registry.GetConnector(c.Request.Context(), connectorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toConnectorResponse(conn))
}

// Enable activates a connector
func (h *ConnectorHandler) Enable(c *gin.Context) {
	connectorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connector ID format")
		return
	}

	if err := h.registry.EnableConnector(c.Request.Context(), connectorID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Disable deactivates a connector. Existing configurations remain but new
// capability calls are refused.
func (h *ConnectorHandler) Disable(c *gin.Context) {
	connectorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connector ID format")
		return
	}

	if err := h.registry.DisableConnector(c.Request.Context(), connectorID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Unregister removes a connector with no remaining configurations
func (h *ConnectorHandler) Unregister(c *gin.Context) {
	connectorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connector ID format")
		return
	}

	if err := h.registry.UnregisterConnector(c.Request.Context(), connectorID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers connector catalog routes
func (h *ConnectorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	connectors := rg.Group("/connectors")
	{
		connectors.GET("", h.List)
		connectors.GET("/:id", h.GetByID)
		connectors.POST("/:id/enable", h.Enable)
		connectors.POST("/:id/disable", h.Disable)
		connectors.DELETE("/:id", h.Unregister)
	}
}
