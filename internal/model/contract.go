package model

import (
	"encoding/json"
	"time"
)

type ContractStatus string

// Contract statuses as reported by the upstream API. The synchronizer mirrors
// them verbatim and never infers transitions.
const (
	StatusOutstanding        ContractStatus = "outstanding"
	StatusInProgress         ContractStatus = "in_progress"
	StatusFinishedIssuer     ContractStatus = "finished_issuer"
	StatusFinishedContractor ContractStatus = "finished_contractor"
	StatusFinished           ContractStatus = "finished"
	StatusCanceled           ContractStatus = "canceled"
	StatusRejected           ContractStatus = "rejected"
	StatusFailed             ContractStatus = "failed"
	StatusDeleted            ContractStatus = "deleted"
	StatusReversed           ContractStatus = "reversed"
)

// CustomerNotificationStatuses are the transitions that trigger an issuer
// facing message, each at most once per contract.
var CustomerNotificationStatuses = []ContractStatus{
	StatusOutstanding, StatusInProgress, StatusFinished, StatusFailed,
}

func (s ContractStatus) IsTerminal() bool {
	switch s {
	case StatusFinishedIssuer, StatusFinishedContractor, StatusFinished,
		StatusCanceled, StatusRejected, StatusFailed, StatusDeleted, StatusReversed:
		return true
	}
	return false
}

// Contract is one courier contract as observed upstream, plus the locally
// derived pricing match, compliance issues and notification tracking.
type Contract struct {
	ID                            int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	HandlerID                     int64          `json:"handler_id" gorm:"not null;uniqueIndex:uq_contract_handler"`
	ContractID                    int64          `json:"contract_id" gorm:"not null;uniqueIndex:uq_contract_handler"`
	Status                        ContractStatus `json:"status" gorm:"size:32;not null;index"`
	IssuerID                      int64          `json:"issuer_id" gorm:"not null"`
	Issuer                        *EveEntity     `json:"issuer,omitempty" gorm:"foreignKey:IssuerID"`
	IssuerCorporationID           int64          `json:"issuer_corporation_id" gorm:"not null"`
	IssuerCorporation             *EveEntity     `json:"issuer_corporation,omitempty" gorm:"foreignKey:IssuerCorporationID"`
	AcceptorID                    *int64         `json:"acceptor_id"`
	Acceptor                      *EveEntity     `json:"acceptor,omitempty" gorm:"foreignKey:AcceptorID"`
	AcceptorCorporationID         *int64         `json:"acceptor_corporation_id"`
	AcceptorCorporation           *EveEntity     `json:"acceptor_corporation,omitempty" gorm:"foreignKey:AcceptorCorporationID"`
	StartLocationID               int64          `json:"start_location_id" gorm:"not null"`
	StartLocation                 *Location      `json:"start_location,omitempty" gorm:"foreignKey:StartLocationID"`
	EndLocationID                 int64          `json:"end_location_id" gorm:"not null"`
	EndLocation                   *Location      `json:"end_location,omitempty" gorm:"foreignKey:EndLocationID"`
	Reward                        float64        `json:"reward" gorm:"not null"`
	Collateral                    float64        `json:"collateral" gorm:"not null"`
	Volume                        float64        `json:"volume" gorm:"not null"`
	DaysToComplete                int            `json:"days_to_complete" gorm:"not null"`
	ForCorporation                bool           `json:"for_corporation" gorm:"not null"`
	Title                         string         `json:"title" gorm:"size:100"`
	DateIssued                    time.Time      `json:"date_issued" gorm:"not null"`
	DateExpired                   time.Time      `json:"date_expired" gorm:"not null"`
	DateAccepted                  *time.Time     `json:"date_accepted"`
	DateCompleted                 *time.Time     `json:"date_completed"`
	PricingID                     *int64         `json:"pricing_id"`
	Pricing                       *Pricing       `json:"pricing,omitempty" gorm:"foreignKey:PricingID"`
	Issues                        *string        `json:"issues"`
	DateNotified                  *time.Time     `json:"date_notified"`
	CustomerNotifiedOutstandingAt *time.Time     `json:"customer_notified_outstanding_at"`
	CustomerNotifiedInProgressAt  *time.Time     `json:"customer_notified_in_progress_at"`
	CustomerNotifiedFinishedAt    *time.Time     `json:"customer_notified_finished_at"`
	CustomerNotifiedFailedAt      *time.Time     `json:"customer_notified_failed_at"`
	CreatedAt                     time.Time      `json:"created_at"`
	UpdatedAt                     time.Time      `json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

func (c Contract) HasExpired(now time.Time) bool {
	return now.After(c.DateExpired)
}

// StatusDate is when the contract entered its current status, as far as the
// upstream data tells.
func (c Contract) StatusDate() time.Time {
	switch c.Status {
	case StatusOutstanding:
		return c.DateIssued
	case StatusInProgress:
		if c.DateAccepted != nil {
			return *c.DateAccepted
		}
	default:
		if c.DateCompleted != nil {
			return *c.DateCompleted
		}
		if c.DateAccepted != nil {
			return *c.DateAccepted
		}
	}
	return c.DateIssued
}

// HasStaleStatus reports whether the last status change predates the
// staleness window. Stale contracts no longer trigger notifications.
func (c Contract) HasStaleStatus(window time.Duration, now time.Time) bool {
	return now.Sub(c.StatusDate()) > window
}

func (c Contract) AcceptorName() string {
	if c.Acceptor != nil {
		return c.Acceptor.Name
	}
	if c.AcceptorCorporation != nil {
		return c.AcceptorCorporation.Name
	}
	return ""
}

// IssueList decodes the stored JSON issue array. An unset or malformed value
// decodes to an empty list.
func (c Contract) IssueList() []string {
	if c.Issues == nil {
		return []string{}
	}
	var issues []string
	if err := json.Unmarshal([]byte(*c.Issues), &issues); err != nil {
		return []string{}
	}
	return issues
}

// IsCompliant reports the compliance verdict: a pricing was matched and no
// check failed. An unpriced contract has no verdict and reports false here;
// use HasPricing to tell the two apart.
func (c Contract) IsCompliant() bool {
	return c.PricingID != nil && c.Issues == nil
}

func (c Contract) HasPricing() bool { return c.PricingID != nil }

// CustomerNotifiedAt returns when the issuer message for the given status was
// sent, or nil.
func (c Contract) CustomerNotifiedAt(status ContractStatus) *time.Time {
	switch status {
	case StatusOutstanding:
		return c.CustomerNotifiedOutstandingAt
	case StatusInProgress:
		return c.CustomerNotifiedInProgressAt
	case StatusFinished:
		return c.CustomerNotifiedFinishedAt
	case StatusFailed:
		return c.CustomerNotifiedFailedAt
	}
	return nil
}
