package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/persistence/models"
)

// GormConfigurationRepository implements ConfigurationRepository using GORM
type GormConfigurationRepository struct {
	db *gorm.DB
}

// NewGormConfigurationRepository creates a new GormConfigurationRepository
func NewGormConfigurationRepository(db *gorm.DB) *GormConfigurationRepository {
	return &GormConfigurationRepository{db: db}
}

// FindByID finds a configuration by its ID
func (r *GormConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Configuration, error) {
	var model models.ConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrConfigurationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a configuration by ID within a specific tenant
func (r *GormConfigurationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*connector.Configuration, error) {
	var model models.ConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrConfigurationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant returns a tenant's configurations
func (r *GormConfigurationRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]connector.Configuration, error) {
	var configModels []models.ConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]connector.Configuration, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// FindByConnector returns every configuration referencing a connector
func (r *GormConfigurationRepository) FindByConnector(ctx context.Context, connectorID uuid.UUID) ([]connector.Configuration, error) {
	var configModels []models.ConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("connector_id = ?", connectorID).
		Order("created_at DESC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]connector.Configuration, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// CountByConnector counts configurations referencing a connector
func (r *GormConfigurationRepository) CountByConnector(ctx context.Context, connectorID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ConfigurationModel{}).
		Where("connector_id = ?", connectorID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByVaultEntry counts configurations referencing a vault entry
func (r *GormConfigurationRepository) CountByVaultEntry(ctx context.Context, vaultID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ConfigurationModel{}).
		Where("credential_vault_id = ?", vaultID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a configuration
func (r *GormConfigurationRepository) Save(ctx context.Context, cfg *connector.Configuration) error {
	model := models.ConfigurationModelFromDomain(cfg)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a configuration
func (r *GormConfigurationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ConfigurationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrConfigurationNotFound
	}
	return nil
}

// Ensure GormConfigurationRepository implements ConfigurationRepository
var _ connector.ConfigurationRepository = (*GormConfigurationRepository)(nil)
