package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/model"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) Get(ctx context.Context, id int64) (*model.Pricing, error) {
	var pricing model.Pricing
	err := r.db.WithContext(ctx).
		Preload("StartLocation").Preload("EndLocation").
		First(&pricing, id).Error
	if err != nil {
		return nil, err
	}
	return &pricing, nil
}

func (r *PricingRepository) List(ctx context.Context) ([]model.Pricing, error) {
	var pricings []model.Pricing
	err := r.db.WithContext(ctx).
		Preload("StartLocation").Preload("EndLocation").
		Order("id").Find(&pricings).Error
	if err != nil {
		return nil, err
	}
	return pricings, nil
}

// ListActive returns active pricings in creation order, which is the
// documented tie-break for duplicate route matches.
func (r *PricingRepository) ListActive(ctx context.Context) ([]model.Pricing, error) {
	var pricings []model.Pricing
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at, id").Find(&pricings).Error
	if err != nil {
		return nil, err
	}
	return pricings, nil
}

func (r *PricingRepository) Create(ctx context.Context, pricing *model.Pricing) error {
	return r.db.WithContext(ctx).Create(pricing).Error
}

func (r *PricingRepository) Update(ctx context.Context, pricing *model.Pricing) error {
	return r.db.WithContext(ctx).Save(pricing).Error
}

func (r *PricingRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Pricing{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
