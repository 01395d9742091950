package connector

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b2bhub/backend/internal/domain/connector"
)

func newCatalogPlugin(code string) *stubPlugin {
	return &stubPlugin{
		metadata: connector.Metadata{
			Code:      code,
			Name:      "Test Connector",
			Type:      connector.TypeERP,
			Direction: connector.DirectionBidirectional,
		},
		capabilities: []connector.Capability{
			{Code: "getProduct", Name: "Get Product", Category: connector.CategorySync},
			{Code: "createSalesOrder", Name: "Create Sales Order", Category: connector.CategorySync},
		},
		schema: connector.ObjectSchema(map[string]connector.PropertySchema{
			"baseUrl":        {Type: "string"},
			"timeoutSeconds": {Type: "integer", Default: 30},
		}, "baseUrl"),
	}
}

func newRegistryFixture() (*RegistryService, *MockConnectorRepository, *MockConfigurationRepository, *MockVaultRepository, *recordingEventRepo, *PluginRegistry) {
	connectors := new(MockConnectorRepository)
	configs := new(MockConfigurationRepository)
	vaults := new(MockVaultRepository)
	events := &recordingEventRepo{}
	plugins := NewPluginRegistry()
	service := NewRegistryService(connectors, configs, vaults, events, plugins, newTestLogger())
	return service, connectors, configs, vaults, events, plugins
}

func TestRegistryService_RegisterConnector(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new connector with declared capabilities", func(t *testing.T) {
		service, connectors, _, _, _, _ := newRegistryFixture()
		connectors.On("ExistsByCode", ctx, "sap-s4hana").Return(false, nil)
		connectors.On("Save", ctx, mock.AnythingOfType("*connector.Connector")).Return(nil)

		conn, err := service.RegisterConnector(ctx, newCatalogPlugin("sap-s4hana"))
		require.NoError(t, err)

		assert.Equal(t, "sap-s4hana", conn.Code)
		assert.True(t, conn.IsActive)
		assert.True(t, conn.IsBuiltIn)
		assert.True(t, conn.HasCapability("getProduct"))
		connectors.AssertExpectations(t)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		service, connectors, _, _, _, _ := newRegistryFixture()
		connectors.On("ExistsByCode", ctx, "sap-s4hana").Return(true, nil)

		_, err := service.RegisterConnector(ctx, newCatalogPlugin("sap-s4hana"))
		assert.ErrorIs(t, err, connector.ErrConnectorCodeConflict)
		connectors.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRegistryService_EnsureRegistered_RefreshesExisting(t *testing.T) {
	service, connectors, _, _, _, _ := newRegistryFixture()
	ctx := context.Background()

	existing, err := connector.NewConnector("sap-s4hana", "SAP", connector.TypeERP, connector.DirectionBidirectional)
	require.NoError(t, err)

	connectors.On("FindByCode", ctx, "sap-s4hana").Return(existing, nil)
	connectors.On("Save", ctx, existing).Return(nil)

	conn, err := service.EnsureRegistered(ctx, newCatalogPlugin("sap-s4hana"))
	require.NoError(t, err)

	assert.Same(t, existing, conn)
	assert.True(t, conn.HasCapability("createSalesOrder"))
	assert.NotNil(t, conn.ConfigSchema)
}

func TestRegistryService_UnregisterConnector(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses while configurations exist", func(t *testing.T) {
		service, connectors, configs, _, _, _ := newRegistryFixture()
		conn, _ := connector.NewConnector("sap-s4hana", "SAP", connector.TypeERP, connector.DirectionBidirectional)

		connectors.On("FindByID", ctx, conn.ID).Return(conn, nil)
		configs.On("CountByConnector", ctx, conn.ID).Return(int64(3), nil)

		err := service.UnregisterConnector(ctx, conn.ID)
		assert.ErrorIs(t, err, connector.ErrConnectorInUse)
		connectors.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("removes an unreferenced connector", func(t *testing.T) {
		service, connectors, configs, _, _, _ := newRegistryFixture()
		conn, _ := connector.NewConnector("sap-s4hana", "SAP", connector.TypeERP, connector.DirectionBidirectional)

		connectors.On("FindByID", ctx, conn.ID).Return(conn, nil)
		configs.On("CountByConnector", ctx, conn.ID).Return(int64(0), nil)
		connectors.On("Delete", ctx, conn.ID).Return(nil)

		assert.NoError(t, service.UnregisterConnector(ctx, conn.ID))
		connectors.AssertExpectations(t)
	})
}

func TestRegistryService_ConfigureConnector(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newCatalogConnector := func(t *testing.T) *connector.Connector {
		conn, err := connector.NewConnector("sap-s4hana", "SAP", connector.TypeERP, connector.DirectionBidirectional)
		require.NoError(t, err)
		require.NoError(t, conn.DeclareCapabilities(newCatalogPlugin("sap-s4hana").capabilities))
		conn.ConfigSchema = newCatalogPlugin("sap-s4hana").schema
		return conn
	}

	t.Run("creates a configuration with defaults applied", func(t *testing.T) {
		service, connectors, configs, _, _, _ := newRegistryFixture()
		conn := newCatalogConnector(t)

		connectors.On("FindByCode", ctx, "sap-s4hana").Return(conn, nil)
		configs.On("Save", ctx, mock.AnythingOfType("*connector.Configuration")).Return(nil)

		cfg, err := service.ConfigureConnector(ctx, ConfigureConnectorInput{
			TenantID:            tenantID,
			ConnectorCode:       "sap-s4hana",
			Name:                "SAP production",
			Config:              map[string]any{"baseUrl": "https://sap.example.com"},
			EnabledCapabilities: []string{"getProduct"},
		})
		require.NoError(t, err)

		assert.Equal(t, 30, cfg.Config["timeoutSeconds"])
		assert.True(t, cfg.IsCapabilityEnabled("getProduct"))
		assert.False(t, cfg.IsCapabilityEnabled("createSalesOrder"))
	})

	t.Run("rejects capabilities the connector never declared", func(t *testing.T) {
		service, connectors, configs, _, _, _ := newRegistryFixture()
		conn := newCatalogConnector(t)

		connectors.On("FindByCode", ctx, "sap-s4hana").Return(conn, nil)

		_, err := service.ConfigureConnector(ctx, ConfigureConnectorInput{
			TenantID:            tenantID,
			ConnectorCode:       "sap-s4hana",
			Name:                "SAP production",
			Config:              map[string]any{"baseUrl": "https://sap.example.com"},
			EnabledCapabilities: []string{"deleteEverything"},
		})
		assert.ErrorIs(t, err, connector.ErrCapabilityNotDeclared)
		configs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects a config missing required fields", func(t *testing.T) {
		service, connectors, _, _, _, _ := newRegistryFixture()
		conn := newCatalogConnector(t)

		connectors.On("FindByCode", ctx, "sap-s4hana").Return(conn, nil)

		_, err := service.ConfigureConnector(ctx, ConfigureConnectorInput{
			TenantID:      tenantID,
			ConnectorCode: "sap-s4hana",
			Name:          "SAP production",
			Config:        map[string]any{},
		})
		assert.ErrorIs(t, err, connector.ErrConfigSchemaViolation)
	})

	t.Run("rejects a vault entry owned by another tenant", func(t *testing.T) {
		service, connectors, _, vaults, _, _ := newRegistryFixture()
		conn := newCatalogConnector(t)
		vaultID := uuid.New()

		connectors.On("FindByCode", ctx, "sap-s4hana").Return(conn, nil)
		vaults.On("FindByIDForTenant", ctx, tenantID, vaultID).Return(nil, connector.ErrVaultEntryNotFound)

		_, err := service.ConfigureConnector(ctx, ConfigureConnectorInput{
			TenantID:          tenantID,
			ConnectorCode:     "sap-s4hana",
			Name:              "SAP production",
			Config:            map[string]any{"baseUrl": "https://sap.example.com"},
			CredentialVaultID: &vaultID,
		})
		assert.ErrorIs(t, err, connector.ErrVaultEntryNotFound)
	})

	t.Run("disabled connector reads as not found", func(t *testing.T) {
		service, connectors, _, _, _, _ := newRegistryFixture()
		conn := newCatalogConnector(t)
		conn.Disable()

		connectors.On("FindByCode", ctx, "sap-s4hana").Return(conn, nil)

		_, err := service.ConfigureConnector(ctx, ConfigureConnectorInput{
			TenantID:      tenantID,
			ConnectorCode: "sap-s4hana",
			Name:          "SAP production",
			Config:        map[string]any{"baseUrl": "https://sap.example.com"},
		})
		assert.ErrorIs(t, err, connector.ErrConnectorNotFound)
	})
}

func TestRegistryService_DeleteConfiguration(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newConfig := func(t *testing.T) *connector.Configuration {
		conn, _ := connector.NewConnector("sap-s4hana", "SAP", connector.TypeERP, connector.DirectionBidirectional)
		cfg, err := connector.NewConfiguration(tenantID, conn, "prod", map[string]any{})
		require.NoError(t, err)
		return cfg
	}

	t.Run("refuses an active configuration", func(t *testing.T) {
		service, _, configs, _, _, _ := newRegistryFixture()
		cfg := newConfig(t)

		configs.On("FindByIDForTenant", ctx, tenantID, cfg.ID).Return(cfg, nil)

		err := service.DeleteConfiguration(ctx, tenantID, cfg.ID)
		assert.ErrorIs(t, err, connector.ErrConfigurationInUse)
		configs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes a disabled configuration", func(t *testing.T) {
		service, _, configs, _, _, _ := newRegistryFixture()
		cfg := newConfig(t)
		cfg.Disable()

		configs.On("FindByIDForTenant", ctx, tenantID, cfg.ID).Return(cfg, nil)
		configs.On("Delete", ctx, cfg.ID).Return(nil)

		assert.NoError(t, service.DeleteConfiguration(ctx, tenantID, cfg.ID))
		configs.AssertExpectations(t)
	})
}

func TestRegistryService_TestConnection(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	service, connectors, configs, _, events, plugins := newRegistryFixture()
	plugin := newCatalogPlugin("sap-s4hana")
	plugin.test = func(context.Context, connector.ExecutionContext) connector.TestResult {
		return connector.TestResult{Success: false, Message: "connection refused"}
	}
	require.NoError(t, plugins.Add(plugin))

	conn, _ := connector.NewConnector("sap-s4hana", "SAP", connector.TypeERP, connector.DirectionBidirectional)
	cfg, err := connector.NewConfiguration(tenantID, conn, "prod", map[string]any{})
	require.NoError(t, err)

	configs.On("FindByIDForTenant", ctx, tenantID, cfg.ID).Return(cfg, nil)
	connectors.On("FindByID", ctx, conn.ID).Return(conn, nil)
	configs.On("Save", ctx, cfg).Return(nil)

	result, err := service.TestConnection(ctx, tenantID, cfg.ID, nil)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "connection refused", result.Message)
	assert.NotNil(t, cfg.LastTestedAt)
	assert.False(t, cfg.LastTestResult)
	assert.Equal(t, "connection refused", cfg.LastTestError)
	require.Len(t, events.events, 1)
	assert.Equal(t, connector.EventTestConnection, events.events[0].Type)
}
