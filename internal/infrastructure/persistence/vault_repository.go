package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/persistence/models"
)

// GormVaultRepository implements VaultRepository using GORM
type GormVaultRepository struct {
	db *gorm.DB
}

// NewGormVaultRepository creates a new GormVaultRepository
func NewGormVaultRepository(db *gorm.DB) *GormVaultRepository {
	return &GormVaultRepository{db: db}
}

// FindByID finds a vault entry by its ID
func (r *GormVaultRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.VaultEntry, error) {
	var model models.VaultEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrVaultEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a vault entry by ID within a specific tenant
func (r *GormVaultRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*connector.VaultEntry, error) {
	var model models.VaultEntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrVaultEntryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant returns a tenant's vault entries
func (r *GormVaultRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]connector.VaultEntry, error) {
	var entryModels []models.VaultEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]connector.VaultEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// FindExpiring returns a tenant's entries expiring before the cutoff
func (r *GormVaultRepository) FindExpiring(ctx context.Context, tenantID uuid.UUID, before time.Time) ([]connector.VaultEntry, error) {
	var entryModels []models.VaultEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND expires_at IS NOT NULL AND expires_at < ?", tenantID, before).
		Order("expires_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]connector.VaultEntry, len(entryModels))
	for i, model := range entryModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// Save creates or updates a vault entry
func (r *GormVaultRepository) Save(ctx context.Context, entry *connector.VaultEntry) error {
	model := models.VaultEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a vault entry
func (r *GormVaultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.VaultEntryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrVaultEntryNotFound
	}
	return nil
}

// Ensure GormVaultRepository implements VaultRepository
var _ connector.VaultRepository = (*GormVaultRepository)(nil)
