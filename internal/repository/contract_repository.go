package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// ContractFilter narrows List results. Zero values mean no filter.
type ContractFilter struct {
	Status model.ContractStatus
	Active bool // outstanding or in progress only
	Limit  int
}

func (r *ContractRepository) Get(ctx context.Context, handlerID, contractID int64) (*model.Contract, error) {
	var contract model.Contract
	err := r.db.WithContext(ctx).
		Where("handler_id = ? AND contract_id = ?", handlerID, contractID).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) List(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	query := r.db.WithContext(ctx).
		Preload("Issuer").Preload("IssuerCorporation").
		Preload("Acceptor").Preload("AcceptorCorporation").
		Preload("StartLocation").Preload("EndLocation").
		Preload("Pricing").
		Order("date_issued DESC")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Active {
		query = query.Where("status IN ?", []model.ContractStatus{
			model.StatusOutstanding, model.StatusInProgress,
		})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var contracts []model.Contract
	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Upsert inserts the contract on first observation or, for a known contract,
// updates the mutable fields only. Reward, collateral, volume, locations,
// issuer and the issue/expiry dates never change after the first sync. The
// pricing verdict is cleared so the next pricing pass re-derives it under the
// current rules.
func (r *ContractRepository) Upsert(ctx context.Context, contract *model.Contract) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Contract
		err := tx.Where("handler_id = ? AND contract_id = ?", contract.HandlerID, contract.ContractID).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			created = true
			return tx.Create(contract).Error
		}
		if err != nil {
			return err
		}

		contract.ID = existing.ID
		return tx.Model(&model.Contract{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"status":                  contract.Status,
				"acceptor_id":             contract.AcceptorID,
				"acceptor_corporation_id": contract.AcceptorCorporationID,
				"date_accepted":           contract.DateAccepted,
				"date_completed":          contract.DateCompleted,
				"title":                   contract.Title,
				"pricing_id":              nil,
				"issues":                  nil,
			}).Error
	})
	return created, err
}

// ListForPricingUpdate returns the contracts whose pricing match should be
// (re)derived: everything outstanding plus everything still unpriced.
func (r *ContractRepository) ListForPricingUpdate(ctx context.Context) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? OR pricing_id IS NULL", model.StatusOutstanding).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) SetPricing(ctx context.Context, id int64, pricingID *int64, issues *string) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pricing_id": pricingID,
			"issues":     issues,
		}).Error
}

// ListPilotNotifiable returns priced outstanding contracts that have not had
// their new-contract message sent yet.
func (r *ContractRepository) ListPilotNotifiable(ctx context.Context) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Preload("Issuer").Preload("StartLocation").Preload("EndLocation").Preload("Pricing").
		Where("status = ?", model.StatusOutstanding).
		Where("pricing_id IS NOT NULL").
		Where("date_notified IS NULL").
		Order("date_issued").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListCustomerNotifiable returns priced contracts in a status that carries an
// issuer message. The per-status sent flags are checked by the caller.
func (r *ContractRepository) ListCustomerNotifiable(ctx context.Context) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Preload("Issuer").Preload("Acceptor").Preload("AcceptorCorporation").
		Preload("StartLocation").Preload("EndLocation").Preload("Pricing").
		Where("status IN ?", model.CustomerNotificationStatuses).
		Where("pricing_id IS NOT NULL").
		Order("date_issued").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) MarkPilotNotified(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", id).
		Update("date_notified", at).Error
}

// MarkCustomerNotified records the issuer message for the given status as
// sent. The matching column is only ever written once per contract.
func (r *ContractRepository) MarkCustomerNotified(ctx context.Context, id int64, status model.ContractStatus, at time.Time) error {
	var column string
	switch status {
	case model.StatusOutstanding:
		column = "customer_notified_outstanding_at"
	case model.StatusInProgress:
		column = "customer_notified_in_progress_at"
	case model.StatusFinished:
		column = "customer_notified_finished_at"
	case model.StatusFailed:
		column = "customer_notified_failed_at"
	default:
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", id).
		Update(column, at).Error
}
