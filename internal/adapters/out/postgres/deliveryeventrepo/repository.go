package deliveryeventrepo

import (
	"context"

	"fueltrack/internal/core/domain/model/assignment"

	"gorm.io/gorm"
)

// GormDeliveryEventRepository implements DeliveryEventRepository using GORM.
type GormDeliveryEventRepository struct {
	db *gorm.DB
}

// NewGormDeliveryEventRepository creates a new GORM delivery event repository.
func NewGormDeliveryEventRepository(db *gorm.DB) *GormDeliveryEventRepository {
	return &GormDeliveryEventRepository{db: db}
}

// Append persists a milestone event. Events are validated at construction,
// so the mapping is straight through.
func (r *GormDeliveryEventRepository) Append(ctx context.Context, event assignment.DeliveryEvent) error {
	dto := fromDomain(event)
	return r.db.WithContext(ctx).Create(&dto).Error
}
