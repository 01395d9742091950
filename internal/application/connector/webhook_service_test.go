package connector

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/cache"
)

type webhookFixture struct {
	service *WebhookService
	events  *recordingEventRepo
	plugins *PluginRegistry
	dedupe  *cache.InMemoryDedupeStore

	tenantID uuid.UUID
	conn     *connector.Connector
	cfg      *connector.Configuration
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	connectors := new(MockConnectorRepository)
	configs := new(MockConfigurationRepository)
	events := &recordingEventRepo{}
	plugins := NewPluginRegistry()
	dedupe := cache.NewInMemoryDedupeStore()
	t.Cleanup(func() { dedupe.Close() })

	service := NewWebhookService(connectors, configs, events, plugins, dedupe, newTestLogger())

	tenantID := uuid.New()
	conn, err := connector.NewConnector("sap-s4hana", "SAP S/4HANA", connector.TypeERP, connector.DirectionBidirectional)
	require.NoError(t, err)
	cfg, err := connector.NewConfiguration(tenantID, conn, "sap-prod", map[string]any{})
	require.NoError(t, err)
	cfg.WebhookSecret = "whsec"

	connectors.On("FindByID", mock.Anything, conn.ID).Return(conn, nil).Maybe()
	configs.On("FindByIDForTenant", mock.Anything, tenantID, cfg.ID).Return(cfg, nil).Maybe()

	return &webhookFixture{
		service:  service,
		events:   events,
		plugins:  plugins,
		dedupe:   dedupe,
		tenantID: tenantID,
		conn:     conn,
		cfg:      cfg,
	}
}

// verifyingPlugin accepts payloads whose signature matches the configured
// webhook secret and decodes the body as JSON.
func verifyingPlugin() *stubPlugin {
	return &stubPlugin{
		metadata: connector.Metadata{Code: "sap-s4hana"},
		webhook: func(_ context.Context, payload connector.WebhookPayload, execCtx connector.ExecutionContext) connector.WebhookResult {
			secret, _ := execCtx.Config["webhookSecret"].(string)
			if secret == "" || payload.Signature != secret {
				return connector.WebhookResult{Valid: false, Error: "signature mismatch"}
			}
			var event struct {
				EventType string         `json:"eventType"`
				Data      map[string]any `json:"data"`
			}
			if err := json.Unmarshal(payload.Data, &event); err != nil {
				return connector.WebhookResult{Valid: false, Error: "malformed body"}
			}
			return connector.WebhookResult{Valid: true, EventType: event.EventType, Data: event.Data}
		},
	}
}

// syncOnlyPlugin implements Plugin but not WebhookHandler
type syncOnlyPlugin struct {
	code string
}

func (p *syncOnlyPlugin) Metadata() connector.Metadata { return connector.Metadata{Code: p.code} }

func (p *syncOnlyPlugin) CredentialRequirements() []connector.CredentialRequirement { return nil }

func (p *syncOnlyPlugin) ConfigSchema() *connector.ConfigSchema { return nil }

func (p *syncOnlyPlugin) Capabilities() []connector.Capability { return nil }

func (p *syncOnlyPlugin) Initialize(context.Context) error { return nil }

func (p *syncOnlyPlugin) TestConnection(context.Context, connector.ExecutionContext) connector.TestResult {
	return connector.TestResult{Success: true}
}

func (p *syncOnlyPlugin) ExecuteCapability(context.Context, string, map[string]any, connector.ExecutionContext) (*connector.ExecutionResult, error) {
	return nil, connector.ErrCapabilityUnknown
}

func (f *webhookFixture) request(deliveryID, signature string) WebhookRequest {
	return WebhookRequest{
		TenantID:   f.tenantID,
		ConfigID:   f.cfg.ID,
		DeliveryID: deliveryID,
		Body:       []byte(`{"eventType":"salesorder.changed","data":{"orderId":"0000012345"}}`),
		Signature:  signature,
	}
}

func TestWebhookService_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a verified delivery and records it", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.plugins.Add(verifyingPlugin()))

		resp := f.service.Ingest(ctx, f.request("dlv-001", "whsec"))

		assert.True(t, resp.Accepted)
		assert.False(t, resp.Duplicate)
		assert.Equal(t, "salesorder.changed", resp.EventType)

		require.Len(t, f.events.events, 1)
		event := f.events.events[0]
		assert.Equal(t, connector.EventWebhookReceived, event.Type)
		assert.Equal(t, "dlv-001", event.Details["deliveryId"])
	})

	t.Run("replayed delivery is acknowledged but not re-recorded", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.plugins.Add(verifyingPlugin()))

		first := f.service.Ingest(ctx, f.request("dlv-002", "whsec"))
		replay := f.service.Ingest(ctx, f.request("dlv-002", "whsec"))

		assert.True(t, first.Accepted)
		assert.False(t, first.Duplicate)
		assert.True(t, replay.Accepted)
		assert.True(t, replay.Duplicate)
		assert.Len(t, f.events.events, 1)
	})

	t.Run("invalid signature is rejected before dedupe", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.plugins.Add(verifyingPlugin()))

		forged := f.service.Ingest(ctx, f.request("dlv-003", "wrong"))
		assert.False(t, forged.Accepted)
		assert.Empty(t, f.events.events)

		// The forged delivery must not have consumed the delivery ID.
		genuine := f.service.Ingest(ctx, f.request("dlv-003", "whsec"))
		assert.True(t, genuine.Accepted)
		assert.False(t, genuine.Duplicate)
	})

	t.Run("disabled configuration rejects deliveries", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.plugins.Add(verifyingPlugin()))
		f.cfg.Disable()

		resp := f.service.Ingest(ctx, f.request("dlv-004", "whsec"))
		assert.False(t, resp.Accepted)
	})

	t.Run("connector without webhook support is rejected", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.plugins.Add(&syncOnlyPlugin{code: "sap-s4hana"}))

		resp := f.service.Ingest(ctx, f.request("dlv-005", "whsec"))
		assert.False(t, resp.Accepted)
	})

	t.Run("same delivery ID on different configurations does not collide", func(t *testing.T) {
		f := newWebhookFixture(t)
		require.NoError(t, f.plugins.Add(verifyingPlugin()))

		first := f.service.Ingest(ctx, f.request("dlv-006", "whsec"))
		require.True(t, first.Accepted)

		processed, err := f.dedupe.IsProcessed(ctx, "other-config:dlv-006")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}
