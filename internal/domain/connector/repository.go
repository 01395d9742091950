package connector

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConnectorRepository persists connector catalog records
type ConnectorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Connector, error)
	FindByCode(ctx context.Context, code string) (*Connector, error)
	FindAll(ctx context.Context) ([]Connector, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, conn *Connector) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConfigurationRepository persists per-tenant connector configurations
type ConfigurationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Configuration, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Configuration, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Configuration, error)
	FindByConnector(ctx context.Context, connectorID uuid.UUID) ([]Configuration, error)
	CountByConnector(ctx context.Context, connectorID uuid.UUID) (int64, error)
	CountByVaultEntry(ctx context.Context, vaultID uuid.UUID) (int64, error)
	Save(ctx context.Context, cfg *Configuration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// VaultRepository persists encrypted credential entries
type VaultRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VaultEntry, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*VaultEntry, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]VaultEntry, error)
	FindExpiring(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]VaultEntry, error)
	Save(ctx context.Context, entry *VaultEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventRepository appends and queries immutable audit events
type EventRepository interface {
	Append(ctx context.Context, event *Event) error
	FindByConfig(ctx context.Context, configID uuid.UUID, limit int) ([]Event, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Event, error)
}
