package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	connectorapp "github.com/b2bhub/backend/internal/application/connector"
)

// Webhook headers recognized on inbound deliveries. Vendors that use their
// own header names are normalized by the connector plugin from the full
// header map.
const (
	webhookSignatureHeader = "X-Webhook-Signature"
	webhookDeliveryHeader  = "X-Webhook-Delivery"
	webhookEventHeader     = "X-Webhook-Event"
)

// WebhookHandler handles inbound vendor webhook deliveries. The route is
// addressed by tenant and configuration because vendors cannot send tenant
// headers; both IDs are part of the webhook URL registered with the vendor.
type WebhookHandler struct {
	BaseHandler
	webhooks *connectorapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *connectorapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Receive ingests one vendor delivery
func (h *WebhookHandler) Receive(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	configID, err := uuid.Parse(c.Param("configId"))
	if err != nil {
		h.BadRequest(c, "Invalid configuration ID format")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name, values := range c.Request.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	result := h.webhooks.Ingest(c.Request.Context(), connectorapp.WebhookRequest{
		TenantID:   tenantID,
		ConfigID:   configID,
		DeliveryID: c.GetHeader(webhookDeliveryHeader),
		EventType:  c.GetHeader(webhookEventHeader),
		Body:       body,
		Signature:  c.GetHeader(webhookSignatureHeader),
		Headers:    headers,
	})

	c.JSON(webhookStatus(result), result)
}

// webhookStatus maps an ingestion outcome to an HTTP status code. Rejections
// return 4xx so a misconfigured vendor sees the failure; replays return 200
// so the vendor stops retrying.
func webhookStatus(result *connectorapp.WebhookResponse) int {
	if result.Accepted {
		return http.StatusOK
	}
	switch {
	case strings.Contains(result.Error, "not found"):
		return http.StatusNotFound
	case strings.Contains(result.Error, "signature"):
		return http.StatusUnauthorized
	default:
		return http.StatusUnprocessableEntity
	}
}

// RegisterRoutes registers the webhook ingestion route
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/:tenantId/:configId", h.Receive)
}
