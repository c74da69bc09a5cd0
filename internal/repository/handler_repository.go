package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/model"
)

// ErrLeaseHeld is returned when another sync run currently owns the handler
// lease.
var ErrLeaseHeld = errors.New("sync lease is held")

type HandlerRepository struct {
	db *gorm.DB
}

func NewHandlerRepository(db *gorm.DB) *HandlerRepository {
	return &HandlerRepository{db: db}
}

// Get returns the configured contract handler. There is at most one.
func (r *HandlerRepository) Get(ctx context.Context) (*model.ContractHandler, error) {
	var handler model.ContractHandler
	err := r.db.WithContext(ctx).Order("organization_id").First(&handler).Error
	if err != nil {
		return nil, err
	}
	return &handler, nil
}

func (r *HandlerRepository) Save(ctx context.Context, handler *model.ContractHandler) error {
	return r.db.WithContext(ctx).Save(handler).Error
}

// Delete removes the handler and cascades to its contracts and all
// locations, per the operation-mode-change semantics.
func (r *HandlerRepository) Delete(ctx context.Context, organizationID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("handler_id = ?", organizationID).Delete(&model.Contract{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Pricing{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&model.Location{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ContractHandler{}, organizationID).Error
	})
}

func (r *HandlerRepository) MarkSynced(ctx context.Context, organizationID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ContractHandler{}).
		Where("organization_id = ?", organizationID).
		Updates(map[string]interface{}{
			"last_sync":  at,
			"last_error": model.SyncErrorNone,
		}).Error
}

func (r *HandlerRepository) SetLastError(ctx context.Context, organizationID int64, syncErr model.SyncError) error {
	return r.db.WithContext(ctx).Model(&model.ContractHandler{}).
		Where("organization_id = ?", organizationID).
		Update("last_error", syncErr).Error
}

// AcquireSyncLease takes the handler's mutual-exclusion lease for ttl. It
// succeeds when no lease is set or the previous one has expired, so a crashed
// run cannot block syncing forever.
func (r *HandlerRepository) AcquireSyncLease(ctx context.Context, organizationID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&model.ContractHandler{}).
		Where("organization_id = ?", organizationID).
		Where("sync_lease_until IS NULL OR sync_lease_until < ?", now).
		Updates(map[string]interface{}{
			"sync_lease_token": token,
			"sync_lease_until": now.Add(ttl),
		})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrLeaseHeld
	}
	return token, nil
}

// ReleaseSyncLease clears the lease if the caller still owns it.
func (r *HandlerRepository) ReleaseSyncLease(ctx context.Context, organizationID int64, token string) error {
	return r.db.WithContext(ctx).Model(&model.ContractHandler{}).
		Where("organization_id = ? AND sync_lease_token = ?", organizationID, token).
		Updates(map[string]interface{}{
			"sync_lease_token": nil,
			"sync_lease_until": nil,
		}).Error
}
