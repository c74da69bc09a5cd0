package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/freight-sync/internal/model"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Get(ctx context.Context, id int64) (*model.Location, error) {
	var location model.Location
	if err := r.db.WithContext(ctx).First(&location, id).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *LocationRepository) List(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := r.db.WithContext(ctx).Order("id").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Upsert writes the location keyed by its external ID, replacing name and
// resolution data on conflict. Used both by the lazy sync-time resolution and
// the admin refresh action.
func (r *LocationRepository) Upsert(ctx context.Context, location *model.Location) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "solar_system_id", "type_id", "category_id",
		}),
	}).Create(location).Error
}

func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Location{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
