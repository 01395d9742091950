package connector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/cache"
)

// WebhookService ingests inbound vendor events: it verifies the signature
// through the connector plugin, deduplicates on the vendor delivery ID and
// records an audit event. Verification runs before deduplication so forged
// deliveries cannot shadow real ones.
type WebhookService struct {
	connectors connector.ConnectorRepository
	configs    connector.ConfigurationRepository
	events     connector.EventRepository
	plugins    *PluginRegistry
	dedupe     cache.DedupeStore
	dedupeTTL  time.Duration
	logger     *zap.Logger
}

// NewWebhookService creates the webhook service
func NewWebhookService(
	connectors connector.ConnectorRepository,
	configs connector.ConfigurationRepository,
	events connector.EventRepository,
	plugins *PluginRegistry,
	dedupe cache.DedupeStore,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		connectors: connectors,
		configs:    configs,
		events:     events,
		plugins:    plugins,
		dedupe:     dedupe,
		dedupeTTL:  cache.DefaultDedupeTTL,
		logger:     logger,
	}
}

// SetDedupeTTL overrides how long delivery IDs are remembered
func (s *WebhookService) SetDedupeTTL(ttl time.Duration) {
	if ttl > 0 {
		s.dedupeTTL = ttl
	}
}

// Ingest verifies, deduplicates and records one inbound vendor event. It
// never returns a Go error; delivery problems are expressed through the
// response so the HTTP layer can map them to status codes.
func (s *WebhookService) Ingest(ctx context.Context, req WebhookRequest) *WebhookResponse {
	cfg, err := s.configs.FindByIDForTenant(ctx, req.TenantID, req.ConfigID)
	if err != nil {
		return &WebhookResponse{Error: "configuration not found"}
	}
	if !cfg.IsActive {
		return &WebhookResponse{Error: "configuration is disabled"}
	}

	conn, err := s.connectors.FindByID(ctx, cfg.ConnectorID)
	if err != nil {
		return &WebhookResponse{Error: "connector not found"}
	}

	plugin, ok := s.plugins.Resolve(conn.Code)
	if !ok {
		return &WebhookResponse{Error: "connector plugin unavailable"}
	}
	handler, ok := plugin.(connector.WebhookHandler)
	if !ok {
		return &WebhookResponse{Error: "connector does not accept webhooks"}
	}

	execCtx := connector.ExecutionContext{
		TenantID: req.TenantID,
		ConfigID: cfg.ID,
		Config:   s.effectiveConfig(conn, cfg),
	}
	result := handler.HandleWebhook(ctx, connector.WebhookPayload{
		EventType: req.EventType,
		Data:      req.Body,
		Timestamp: time.Now(),
		Signature: req.Signature,
		Headers:   req.Headers,
	}, execCtx)
	if !result.Valid {
		s.logger.Warn("webhook verification failed",
			zap.String("config", cfg.ID.String()),
			zap.String("delivery", req.DeliveryID),
			zap.String("reason", result.Error))
		return &WebhookResponse{Error: "signature verification failed"}
	}

	if req.DeliveryID != "" {
		first, err := s.dedupe.MarkProcessed(ctx, dedupeKey(req), s.dedupeTTL)
		if err != nil {
			s.logger.Warn("webhook dedupe store unavailable",
				zap.String("delivery", req.DeliveryID), zap.Error(err))
		} else if !first {
			// Replay of an already processed delivery. Acknowledge so the
			// vendor stops retrying, but do not record it again.
			return &WebhookResponse{Accepted: true, Duplicate: true, EventType: result.EventType}
		}
	}

	event := connector.NewEvent(req.TenantID, conn.Code, &cfg.ID, connector.EventWebhookReceived, map[string]any{
		"deliveryId": req.DeliveryID,
		"eventType":  result.EventType,
		"data":       result.Data,
	})
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append webhook event", zap.Error(err))
	}

	s.logger.Info("webhook accepted",
		zap.String("config", cfg.ID.String()),
		zap.String("delivery", req.DeliveryID),
		zap.String("event", result.EventType))
	return &WebhookResponse{Accepted: true, EventType: result.EventType}
}

func (s *WebhookService) effectiveConfig(conn *connector.Connector, cfg *connector.Configuration) map[string]any {
	config := conn.ConfigSchema.ApplyDefaults(cfg.Config)
	if cfg.WebhookSecret != "" {
		config["webhookSecret"] = cfg.WebhookSecret
	}
	return config
}

// dedupeKey scopes the vendor delivery ID to the configuration so two
// vendors reusing an ID cannot collide.
func dedupeKey(req WebhookRequest) string {
	return req.ConfigID.String() + ":" + req.DeliveryID
}
