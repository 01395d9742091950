package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/persistence/models"
)

const defaultEventLimit = 100

// GormEventRepository implements EventRepository using GORM. Events are
// append-only; there is no update or delete path.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GormEventRepository
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append inserts an audit event
func (r *GormEventRepository) Append(ctx context.Context, event *connector.Event) error {
	model := models.EventModelFromDomain(event)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByConfig returns the most recent events for a configuration
func (r *GormEventRepository) FindByConfig(ctx context.Context, configID uuid.UUID, limit int) ([]connector.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	var eventModels []models.EventModel
	if err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]connector.Event, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// FindByTenant returns the most recent events for a tenant
func (r *GormEventRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]connector.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}

	var eventModels []models.EventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]connector.Event, len(eventModels))
	for i, model := range eventModels {
		events[i] = *model.ToDomain()
	}
	return events, nil
}

// Ensure GormEventRepository implements EventRepository
var _ connector.EventRepository = (*GormEventRepository)(nil)
