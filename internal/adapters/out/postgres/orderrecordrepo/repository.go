package orderrecordrepo

import (
	"context"

	"fueltrack/internal/core/domain/model/assignment"

	"gorm.io/gorm"
)

// GormOrderRecordRepository implements OrderRecordRepository using GORM.
type GormOrderRecordRepository struct {
	db *gorm.DB
}

// NewGormOrderRecordRepository creates a new GORM order record repository.
func NewGormOrderRecordRepository(db *gorm.DB) *GormOrderRecordRepository {
	return &GormOrderRecordRepository{db: db}
}

// Add saves a new order record to the database.
func (r *GormOrderRecordRepository) Add(ctx context.Context, a *assignment.OrderAssignment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	dto := fromDomain(a)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Update saves the current status and driver of an existing order record.
func (r *GormOrderRecordRepository) Update(ctx context.Context, a *assignment.OrderAssignment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	dto := fromDomain(a)
	result := r.db.WithContext(ctx).
		Model(&OrderRecordDTO{}).
		Where("id = ?", dto.ID).
		Select("driver_id", "status", "offer_round").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
