package connector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/b2bhub/backend/internal/domain/connector"
)

// RegistryService catalogs connectors and tenant configurations and gates
// capability visibility.
type RegistryService struct {
	connectors connector.ConnectorRepository
	configs    connector.ConfigurationRepository
	vaults     connector.VaultRepository
	events     connector.EventRepository
	plugins    *PluginRegistry
	logger     *zap.Logger
}

// NewRegistryService creates the registry service
func NewRegistryService(
	connectors connector.ConnectorRepository,
	configs connector.ConfigurationRepository,
	vaults connector.VaultRepository,
	events connector.EventRepository,
	plugins *PluginRegistry,
	logger *zap.Logger,
) *RegistryService {
	return &RegistryService{
		connectors: connectors,
		configs:    configs,
		vaults:     vaults,
		events:     events,
		plugins:    plugins,
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Connector Catalog
// ---------------------------------------------------------------------------

// RegisterConnector registers a plugin's connector record. Fails with a
// conflict when the code is already registered.
func (s *RegistryService) RegisterConnector(ctx context.Context, plugin connector.Plugin) (*connector.Connector, error) {
	metadata := plugin.Metadata()

	exists, err := s.connectors.ExistsByCode(ctx, metadata.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", connector.ErrConnectorCodeConflict, metadata.Code)
	}

	return s.registerPlugin(ctx, plugin)
}

// EnsureRegistered registers a plugin's connector record if absent and
// refreshes its declared capabilities and schema if present. Used at
// startup, where re-registration must be idempotent.
func (s *RegistryService) EnsureRegistered(ctx context.Context, plugin connector.Plugin) (*connector.Connector, error) {
	metadata := plugin.Metadata()

	existing, err := s.connectors.FindByCode(ctx, metadata.Code)
	if err == nil {
		if err := existing.DeclareCapabilities(plugin.Capabilities()); err != nil {
			return nil, err
		}
		existing.ConfigSchema = plugin.ConfigSchema()
		if err := s.connectors.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	return s.registerPlugin(ctx, plugin)
}

func (s *RegistryService) registerPlugin(ctx context.Context, plugin connector.Plugin) (*connector.Connector, error) {
	metadata := plugin.Metadata()

	if err := plugin.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("connector: initialize %s: %w", metadata.Code, err)
	}

	conn, err := connector.NewConnector(metadata.Code, metadata.Name, metadata.Type, metadata.Direction)
	if err != nil {
		return nil, err
	}
	conn.IsBuiltIn = true
	conn.ConfigSchema = plugin.ConfigSchema()
	if err := conn.DeclareCapabilities(plugin.Capabilities()); err != nil {
		return nil, err
	}

	if err := s.connectors.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("connector registered",
		zap.String("code", metadata.Code),
		zap.Int("capabilities", len(conn.Capabilities)))
	return conn, nil
}

// UnregisterConnector removes a connector that no configuration references
func (s *RegistryService) UnregisterConnector(ctx context.Context, id uuid.UUID) error {
	conn, err := s.connectors.FindByID(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.configs.CountByConnector(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d configurations reference %s", connector.ErrConnectorInUse, count, conn.Code)
	}

	return s.connectors.Delete(ctx, id)
}

// EnableConnector activates a connector; idempotent
func (s *RegistryService) EnableConnector(ctx context.Context, id uuid.UUID) error {
	conn, err := s.connectors.FindByID(ctx, id)
	if err != nil {
		return err
	}
	conn.Enable()
	return s.connectors.Save(ctx, conn)
}

// DisableConnector deactivates a connector; idempotent. Existing
// configurations remain but capability calls start failing.
func (s *RegistryService) DisableConnector(ctx context.Context, id uuid.UUID) error {
	conn, err := s.connectors.FindByID(ctx, id)
	if err != nil {
		return err
	}
	conn.Disable()
	return s.connectors.Save(ctx, conn)
}

// DeclareCapabilities upserts capability declarations on a connector
func (s *RegistryService) DeclareCapabilities(ctx context.Context, id uuid.UUID, capabilities []connector.Capability) error {
	conn, err := s.connectors.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := conn.DeclareCapabilities(capabilities); err != nil {
		return err
	}
	return s.connectors.Save(ctx, conn)
}

// GetConnector returns one connector by ID
func (s *RegistryService) GetConnector(ctx context.Context, id uuid.UUID) (*connector.Connector, error) {
	return s.connectors.FindByID(ctx, id)
}

// ListConnectors returns the connector catalog
func (s *RegistryService) ListConnectors(ctx context.Context) ([]connector.Connector, error) {
	return s.connectors.FindAll(ctx)
}

// ---------------------------------------------------------------------------
// Configurations
// ---------------------------------------------------------------------------

// ConfigureConnector creates a tenant configuration for an active connector
func (s *RegistryService) ConfigureConnector(ctx context.Context, input ConfigureConnectorInput) (*connector.Configuration, error) {
	conn, err := s.connectors.FindByCode(ctx, input.ConnectorCode)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive {
		return nil, fmt.Errorf("%w: %s", connector.ErrConnectorNotFound, input.ConnectorCode)
	}

	config := conn.ConfigSchema.ApplyDefaults(input.Config)
	if err := conn.ConfigSchema.Validate(config); err != nil {
		return nil, err
	}

	cfg, err := connector.NewConfiguration(input.TenantID, conn, input.Name, config)
	if err != nil {
		return nil, err
	}

	if input.CredentialVaultID != nil {
		entry, err := s.vaults.FindByIDForTenant(ctx, input.TenantID, *input.CredentialVaultID)
		if err != nil {
			return nil, err
		}
		if entry.TenantID != input.TenantID {
			return nil, connector.ErrVaultTenantMismatch
		}
		cfg.SetCredentials(entry.ID)
	}

	if len(input.EnabledCapabilities) > 0 {
		if err := cfg.EnableCapabilities(conn, input.EnabledCapabilities); err != nil {
			return nil, err
		}
	}

	cfg.WebhookURL = input.WebhookURL
	cfg.WebhookSecret = input.WebhookSecret
	cfg.WebhookEvents = input.WebhookEvents

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("connector configured",
		zap.String("connector", conn.Code),
		zap.String("tenant", input.TenantID.String()),
		zap.String("config", cfg.ID.String()))
	return cfg, nil
}

// GetConfiguration returns one configuration scoped to a tenant
func (s *RegistryService) GetConfiguration(ctx context.Context, tenantID, id uuid.UUID) (*connector.Configuration, error) {
	return s.configs.FindByIDForTenant(ctx, tenantID, id)
}

// ListConfigurations returns a tenant's configurations
func (s *RegistryService) ListConfigurations(ctx context.Context, tenantID uuid.UUID) ([]connector.Configuration, error) {
	return s.configs.FindByTenant(ctx, tenantID)
}

// EnableConfiguration activates a configuration; idempotent
func (s *RegistryService) EnableConfiguration(ctx context.Context, tenantID, id uuid.UUID) error {
	cfg, err := s.configs.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	cfg.Enable()
	return s.configs.Save(ctx, cfg)
}

// DisableConfiguration deactivates a configuration; idempotent
func (s *RegistryService) DisableConfiguration(ctx context.Context, tenantID, id uuid.UUID) error {
	cfg, err := s.configs.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	cfg.Disable()
	return s.configs.Save(ctx, cfg)
}

// DeleteConfiguration removes a disabled configuration
func (s *RegistryService) DeleteConfiguration(ctx context.Context, tenantID, id uuid.UUID) error {
	cfg, err := s.configs.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if cfg.IsActive {
		return fmt.Errorf("%w: disable the configuration before deleting it", connector.ErrConfigurationInUse)
	}
	return s.configs.Delete(ctx, id)
}

// ListConfigurationEvents returns the recent audit trail for a configuration.
// The tenant scope check happens before events are read.
func (s *RegistryService) ListConfigurationEvents(ctx context.Context, tenantID, configID uuid.UUID, limit int) ([]connector.Event, error) {
	if _, err := s.configs.FindByIDForTenant(ctx, tenantID, configID); err != nil {
		return nil, err
	}
	return s.events.FindByConfig(ctx, configID, limit)
}

// ListTenantEvents returns the recent audit trail across a tenant's
// configurations
func (s *RegistryService) ListTenantEvents(ctx context.Context, tenantID uuid.UUID, limit int) ([]connector.Event, error) {
	return s.events.FindByTenant(ctx, tenantID, limit)
}

// ---------------------------------------------------------------------------
// Connection Testing
// ---------------------------------------------------------------------------

// TestConnection runs the connector's connection test and persists the
// outcome on the configuration. It never returns an error for a failed
// test; only infrastructure faults (missing records) surface as errors.
func (s *RegistryService) TestConnection(ctx context.Context, tenantID, configID uuid.UUID, decrypt CredentialDecryptFunc) (*TestConnectionResponse, error) {
	cfg, err := s.configs.FindByIDForTenant(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}
	conn, err := s.connectors.FindByID(ctx, cfg.ConnectorID)
	if err != nil {
		return nil, err
	}
	plugin, ok := s.plugins.Resolve(conn.Code)
	if !ok {
		return nil, fmt.Errorf("%w: no plugin for %s", connector.ErrConnectorNotFound, conn.Code)
	}

	execCtx := connector.ExecutionContext{
		TenantID: tenantID,
		ConfigID: cfg.ID,
		Config:   conn.ConfigSchema.ApplyDefaults(cfg.Config),
	}
	if cfg.CredentialVaultID != nil && decrypt != nil {
		credentials, err := decrypt(ctx, *cfg.CredentialVaultID, connector.AccessRequest{ConnectorCode: conn.Code})
		if err != nil {
			result := s.recordTest(ctx, cfg, conn, false, err.Error())
			return result, nil
		}
		execCtx.Credentials = credentials
	}

	testResult := plugin.TestConnection(ctx, execCtx)
	result := s.recordTest(ctx, cfg, conn, testResult.Success, testResult.Message)
	result.Latency = testResult.Latency
	return result, nil
}

func (s *RegistryService) recordTest(ctx context.Context, cfg *connector.Configuration, conn *connector.Connector, ok bool, message string) *TestConnectionResponse {
	errMsg := ""
	if !ok {
		errMsg = message
	}
	cfg.RecordTestResult(ok, errMsg)
	if err := s.configs.Save(ctx, cfg); err != nil {
		s.logger.Warn("failed to persist test result",
			zap.String("config", cfg.ID.String()), zap.Error(err))
	}

	event := connector.NewEvent(cfg.TenantID, conn.Code, &cfg.ID, connector.EventTestConnection, map[string]any{
		"success": ok,
		"message": message,
	})
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append test event", zap.Error(err))
	}

	return &TestConnectionResponse{
		Success:  ok,
		Message:  message,
		TestedAt: *cfg.LastTestedAt,
	}
}

// CredentialDecryptFunc decrypts a vault entry on behalf of a connector.
// Implemented by the vault service; passed in to avoid a service cycle.
type CredentialDecryptFunc func(ctx context.Context, vaultID uuid.UUID, req connector.AccessRequest) (map[string]any, error)
