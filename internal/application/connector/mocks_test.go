package connector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/b2bhub/backend/internal/domain/connector"
)

// MockConnectorRepository is a mock implementation of ConnectorRepository
type MockConnectorRepository struct {
	mock.Mock
}

func (m *MockConnectorRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Connector, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Connector), args.Error(1)
}

func (m *MockConnectorRepository) FindByCode(ctx context.Context, code string) (*connector.Connector, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Connector), args.Error(1)
}

func (m *MockConnectorRepository) FindAll(ctx context.Context) ([]connector.Connector, error) {
	args := m.Called(ctx)
	return args.Get(0).([]connector.Connector), args.Error(1)
}

func (m *MockConnectorRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockConnectorRepository) Save(ctx context.Context, conn *connector.Connector) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockConfigurationRepository is a mock implementation of ConfigurationRepository
type MockConfigurationRepository struct {
	mock.Mock
}

func (m *MockConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Configuration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*connector.Configuration, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]connector.Configuration, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]connector.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) FindByConnector(ctx context.Context, connectorID uuid.UUID) ([]connector.Configuration, error) {
	args := m.Called(ctx, connectorID)
	return args.Get(0).([]connector.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) CountByConnector(ctx context.Context, connectorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, connectorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConfigurationRepository) CountByVaultEntry(ctx context.Context, vaultID uuid.UUID) (int64, error) {
	args := m.Called(ctx, vaultID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConfigurationRepository) Save(ctx context.Context, cfg *connector.Configuration) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockConfigurationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVaultRepository is a mock implementation of VaultRepository
type MockVaultRepository struct {
	mock.Mock
}

func (m *MockVaultRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.VaultEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.VaultEntry), args.Error(1)
}

func (m *MockVaultRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*connector.VaultEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.VaultEntry), args.Error(1)
}

func (m *MockVaultRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]connector.VaultEntry, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]connector.VaultEntry), args.Error(1)
}

func (m *MockVaultRepository) FindExpiring(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]connector.VaultEntry, error) {
	args := m.Called(ctx, tenantID, before)
	return args.Get(0).([]connector.VaultEntry), args.Error(1)
}

func (m *MockVaultRepository) Save(ctx context.Context, entry *connector.VaultEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockVaultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Append(ctx context.Context, event *connector.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) FindByConfig(ctx context.Context, configID uuid.UUID, limit int) ([]connector.Event, error) {
	args := m.Called(ctx, configID, limit)
	return args.Get(0).([]connector.Event), args.Error(1)
}

func (m *MockEventRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]connector.Event, error) {
	args := m.Called(ctx, tenantID, limit)
	return args.Get(0).([]connector.Event), args.Error(1)
}

// recordingEventRepo keeps appended events in memory for assertion
type recordingEventRepo struct {
	events []*connector.Event
}

func (r *recordingEventRepo) Append(_ context.Context, event *connector.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEventRepo) FindByConfig(context.Context, uuid.UUID, int) ([]connector.Event, error) {
	return nil, nil
}

func (r *recordingEventRepo) FindByTenant(context.Context, uuid.UUID, int) ([]connector.Event, error) {
	return nil, nil
}

func (r *recordingEventRepo) typesSeen() []connector.EventType {
	types := make([]connector.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

// stubPlugin is a configurable plugin for executor and webhook tests
type stubPlugin struct {
	metadata     connector.Metadata
	capabilities []connector.Capability
	schema       *connector.ConfigSchema
	execute      func(ctx context.Context, code string, input map[string]any, execCtx connector.ExecutionContext) (*connector.ExecutionResult, error)
	webhook      func(ctx context.Context, payload connector.WebhookPayload, execCtx connector.ExecutionContext) connector.WebhookResult
	test         func(ctx context.Context, execCtx connector.ExecutionContext) connector.TestResult
}

func (p *stubPlugin) Metadata() connector.Metadata { return p.metadata }

func (p *stubPlugin) CredentialRequirements() []connector.CredentialRequirement { return nil }

func (p *stubPlugin) ConfigSchema() *connector.ConfigSchema { return p.schema }

func (p *stubPlugin) Capabilities() []connector.Capability { return p.capabilities }

func (p *stubPlugin) Initialize(context.Context) error { return nil }

func (p *stubPlugin) TestConnection(ctx context.Context, execCtx connector.ExecutionContext) connector.TestResult {
	if p.test != nil {
		return p.test(ctx, execCtx)
	}
	return connector.TestResult{Success: true}
}

func (p *stubPlugin) ExecuteCapability(ctx context.Context, code string, input map[string]any, execCtx connector.ExecutionContext) (*connector.ExecutionResult, error) {
	return p.execute(ctx, code, input, execCtx)
}

func (p *stubPlugin) HandleWebhook(ctx context.Context, payload connector.WebhookPayload, execCtx connector.ExecutionContext) connector.WebhookResult {
	return p.webhook(ctx, payload, execCtx)
}

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}
