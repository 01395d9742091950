package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/persistence/models"
)

// GormConnectorRepository implements ConnectorRepository using GORM
type GormConnectorRepository struct {
	db *gorm.DB
}

// NewGormConnectorRepository creates a new GormConnectorRepository
func NewGormConnectorRepository(db *gorm.DB) *GormConnectorRepository {
	return &GormConnectorRepository{db: db}
}

// FindByID finds a connector by its ID
func (r *GormConnectorRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Connector, error) {
	var model models.ConnectorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrConnectorNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a connector by its unique code
func (r *GormConnectorRepository) FindByCode(ctx context.Context, code string) (*connector.Connector, error) {
	var model models.ConnectorModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrConnectorNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns the connector catalog ordered by code
func (r *GormConnectorRepository) FindAll(ctx context.Context) ([]connector.Connector, error) {
	var connectorModels []models.ConnectorModel
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&connectorModels).Error; err != nil {
		return nil, err
	}

	connectors := make([]connector.Connector, len(connectorModels))
	for i, model := range connectorModels {
		connectors[i] = *model.ToDomain()
	}
	return connectors, nil
}

// ExistsByCode checks whether a connector is registered under the code
func (r *GormConnectorRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ConnectorModel{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a connector
func (r *GormConnectorRepository) Save(ctx context.Context, conn *connector.Connector) error {
	model := models.ConnectorModelFromDomain(conn)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a connector
func (r *GormConnectorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ConnectorModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrConnectorNotFound
	}
	return nil
}

// Ensure GormConnectorRepository implements ConnectorRepository
var _ connector.ConnectorRepository = (*GormConnectorRepository)(nil)
