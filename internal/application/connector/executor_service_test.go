package connector

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b2bhub/backend/internal/domain/canonical"
	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
)

// fastRetry keeps the full four-attempt policy but makes delays negligible
var fastRetry = resilience.RetryPolicy{
	MaxAttempts:    resilience.DefaultMaxAttempts,
	BaseDelay:      time.Millisecond,
	MaxDelay:       5 * time.Millisecond,
	JitterFraction: resilience.DefaultJitterFraction,
}

type executorFixture struct {
	service    *ExecutorService
	connectors *MockConnectorRepository
	configs    *MockConfigurationRepository
	vaults     *MockVaultRepository
	events     *recordingEventRepo
	plugins    *PluginRegistry
	breakers   *resilience.BreakerRegistry

	tenantID uuid.UUID
	conn     *connector.Connector
	cfg      *connector.Configuration
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	connectors := new(MockConnectorRepository)
	configs := new(MockConfigurationRepository)
	vaults := new(MockVaultRepository)
	events := &recordingEventRepo{}
	plugins := NewPluginRegistry()
	breakers := resilience.NewBreakerRegistry(resilience.BreakerSettings{})
	vaultService := NewVaultService(vaults, configs, events, newTestCipher(t), newTestLogger())

	service := NewExecutorService(connectors, configs, events, plugins, vaultService, breakers, fastRetry, newTestLogger())

	tenantID := uuid.New()
	conn, err := connector.NewConnector("sap-s4hana", "SAP S/4HANA", connector.TypeERP, connector.DirectionBidirectional)
	require.NoError(t, err)
	require.NoError(t, conn.DeclareCapabilities([]connector.Capability{
		{Code: "getProduct", Name: "Get Product", Category: connector.CategorySync},
	}))
	conn.ConfigSchema = connector.ObjectSchema(map[string]connector.PropertySchema{
		"baseUrl":        {Type: "string"},
		"timeoutSeconds": {Type: "integer", Default: 30},
	}, "baseUrl")

	cfg, err := connector.NewConfiguration(tenantID, conn, "sap-prod", map[string]any{
		"baseUrl": "https://sap.example.com",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.EnableCapabilities(conn, []string{"getProduct"}))

	connectors.On("FindByID", mock.Anything, conn.ID).Return(conn, nil).Maybe()
	configs.On("FindByIDForTenant", mock.Anything, tenantID, cfg.ID).Return(cfg, nil).Maybe()

	return &executorFixture{
		service:    service,
		connectors: connectors,
		configs:    configs,
		vaults:     vaults,
		events:     events,
		plugins:    plugins,
		breakers:   breakers,
		tenantID:   tenantID,
		conn:       conn,
		cfg:        cfg,
	}
}

func (f *executorFixture) request() ExecuteRequest {
	return ExecuteRequest{
		TenantID:   f.tenantID,
		ConfigID:   f.cfg.ID,
		Capability: "getProduct",
		Input:      map[string]any{"productId": "MAT-1"},
	}
}

func TestExecutor_RetriesTransientFailuresThenSucceeds(t *testing.T) {
	f := newExecutorFixture(t)

	product := &canonical.Product{SKU: "MAT-1", Name: "Hex bolts M8"}
	calls := 0
	plugin := &stubPlugin{
		metadata: connector.Metadata{Code: "sap-s4hana"},
		execute: func(_ context.Context, code string, _ map[string]any, execCtx connector.ExecutionContext) (*connector.ExecutionResult, error) {
			calls++
			assert.Equal(t, "getProduct", code)
			assert.Equal(t, 30, execCtx.Config["timeoutSeconds"])
			if calls < 4 {
				return nil, &resilience.ConnectorError{
					Category:   resilience.CategorySystem,
					Message:    "HTTP 500 from vendor",
					HTTPStatus: 500,
				}
			}
			return &connector.ExecutionResult{Data: product}, nil
		},
	}
	require.NoError(t, f.plugins.Add(plugin))

	resp := f.service.Execute(context.Background(), f.request())

	assert.True(t, resp.Success)
	assert.Same(t, product, resp.Data)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, resp.Metadata["attempts"])

	// Three failures fed the breaker, then the success reset it; the
	// default threshold of five was never reached.
	breaker := f.breakers.Get(f.cfg.ID)
	assert.Equal(t, resilience.StateClosed, breaker.State())

	assert.Equal(t, []connector.EventType{connector.EventInvoke, connector.EventSuccess}, f.events.typesSeen())
}

func TestExecutor_TerminalFailureReportsWithoutRetry(t *testing.T) {
	f := newExecutorFixture(t)

	calls := 0
	plugin := &stubPlugin{
		metadata: connector.Metadata{Code: "sap-s4hana"},
		execute: func(context.Context, string, map[string]any, connector.ExecutionContext) (*connector.ExecutionResult, error) {
			calls++
			return nil, &resilience.ConnectorError{
				Category:   resilience.CategoryBusinessRule,
				Message:    "Customer 1000234 is blocked for sales order processing",
				HTTPStatus: 422,
			}
		},
	}
	require.NoError(t, f.plugins.Add(plugin))

	resp := f.service.Execute(context.Background(), f.request())

	assert.False(t, resp.Success)
	assert.Equal(t, 1, calls)
	assert.Equal(t, string(resilience.CategoryBusinessRule), resp.ErrorCode)
	assert.Equal(t, "Customer 1000234 is blocked for sales order processing", resp.Error)
	assert.False(t, resp.Retryable)

	// The raw vendor error lives in the FAILURE event, nowhere else.
	require.Equal(t, []connector.EventType{connector.EventInvoke, connector.EventFailure}, f.events.typesSeen())
	failure := f.events.events[1]
	assert.Equal(t, "Customer 1000234 is blocked for sales order processing", failure.Details["rawError"])
	assert.Equal(t, 1, failure.Details["attempts"])
}

func TestExecutor_OpenBreakerShortCircuits(t *testing.T) {
	f := newExecutorFixture(t)

	calls := 0
	plugin := &stubPlugin{
		metadata: connector.Metadata{Code: "sap-s4hana"},
		execute: func(context.Context, string, map[string]any, connector.ExecutionContext) (*connector.ExecutionResult, error) {
			calls++
			return nil, &resilience.ConnectorError{Category: resilience.CategoryNetwork, Message: "connection refused"}
		},
	}
	require.NoError(t, f.plugins.Add(plugin))

	// Exhaust retries twice; eight network failures trip the default
	// threshold of five.
	f.service.Execute(context.Background(), f.request())
	f.service.Execute(context.Background(), f.request())
	callsBefore := calls

	resp := f.service.Execute(context.Background(), f.request())

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeCircuitOpen, resp.ErrorCode)
	assert.True(t, resp.Retryable)
	assert.Equal(t, callsBefore, calls, "open breaker must not reach the plugin")
	assert.Contains(t, f.events.typesSeen(), connector.EventCircuitOpen)
}

func TestExecutor_Gates(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown configuration", func(t *testing.T) {
		f := newExecutorFixture(t)
		req := f.request()
		req.ConfigID = uuid.New()
		f.configs.On("FindByIDForTenant", mock.Anything, f.tenantID, req.ConfigID).
			Return(nil, connector.ErrConfigurationNotFound)

		resp := f.service.Execute(ctx, req)
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeNotFound, resp.ErrorCode)
	})

	t.Run("disabled configuration", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.cfg.Disable()

		resp := f.service.Execute(ctx, f.request())
		assert.Equal(t, ErrCodeNotFound, resp.ErrorCode)
	})

	t.Run("disabled connector", func(t *testing.T) {
		f := newExecutorFixture(t)
		f.conn.Disable()

		resp := f.service.Execute(ctx, f.request())
		assert.Equal(t, ErrCodeConnectorDisabled, resp.ErrorCode)
	})

	t.Run("capability not enabled for configuration", func(t *testing.T) {
		f := newExecutorFixture(t)
		require.NoError(t, f.conn.DeclareCapabilities([]connector.Capability{
			{Code: "createSalesOrder", Name: "Create Sales Order", Category: connector.CategorySync},
		}))

		req := f.request()
		req.Capability = "createSalesOrder"
		resp := f.service.Execute(ctx, req)
		assert.Equal(t, ErrCodeCapabilityNotEnabled, resp.ErrorCode)
	})

	t.Run("undeclared capability", func(t *testing.T) {
		f := newExecutorFixture(t)
		req := f.request()
		req.Capability = "shipOrder"

		resp := f.service.Execute(ctx, req)
		assert.Equal(t, ErrCodeCapabilityNotEnabled, resp.ErrorCode)
	})
}

func TestExecutor_VaultDenialIsForbidden(t *testing.T) {
	f := newExecutorFixture(t)

	entry, err := connector.NewVaultEntry(f.tenantID, "creds", connector.CredentialTypeBasic)
	require.NoError(t, err)
	entry.AccessPolicy = connector.AccessPolicy{AllowedConnectors: []string{"dynamics-365"}}
	f.cfg.SetCredentials(entry.ID)
	f.vaults.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)

	plugin := &stubPlugin{
		metadata: connector.Metadata{Code: "sap-s4hana"},
		execute: func(context.Context, string, map[string]any, connector.ExecutionContext) (*connector.ExecutionResult, error) {
			t.Fatal("plugin must not run without credentials")
			return nil, nil
		},
	}
	require.NoError(t, f.plugins.Add(plugin))

	resp := f.service.Execute(context.Background(), f.request())

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeForbidden, resp.ErrorCode)
	assert.Zero(t, entry.AccessCount)
}

func TestExecutor_DecryptedCredentialsReachThePlugin(t *testing.T) {
	f := newExecutorFixture(t)

	vaultService := NewVaultService(f.vaults, f.configs, f.events, newTestCipher(t), newTestLogger())
	entry, err := connector.NewVaultEntry(f.tenantID, "creds", connector.CredentialTypeBasic)
	require.NoError(t, err)
	ciphertext, err := vaultService.encrypt(map[string]any{"username": "svc-b2b", "password": "hunter2"})
	require.NoError(t, err)
	entry.EncryptedPayload = ciphertext

	f.cfg.SetCredentials(entry.ID)
	f.vaults.On("FindByID", mock.Anything, entry.ID).Return(entry, nil)
	f.vaults.On("Save", mock.Anything, entry).Return(nil)

	plugin := &stubPlugin{
		metadata: connector.Metadata{Code: "sap-s4hana"},
		execute: func(_ context.Context, _ string, _ map[string]any, execCtx connector.ExecutionContext) (*connector.ExecutionResult, error) {
			assert.Equal(t, "svc-b2b", execCtx.Credentials["username"])
			return &connector.ExecutionResult{Data: map[string]any{"ok": true}}, nil
		},
	}
	require.NoError(t, f.plugins.Add(plugin))

	resp := f.service.Execute(context.Background(), f.request())

	assert.True(t, resp.Success)
	assert.Equal(t, 1, entry.AccessCount)
	assert.Contains(t, f.events.typesSeen(), connector.EventCredentialAccess)
}
