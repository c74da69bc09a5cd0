package model

import (
	"time"
)

// OperationMode is the organizational scope filter applied to which contracts
// are ingested during a sync.
type OperationMode string

const (
	ModeMyAlliance     OperationMode = "my_alliance"
	ModeMyCorporation  OperationMode = "my_corporation"
	ModeCorpInAlliance OperationMode = "corp_in_alliance"
	ModeCorpPublic     OperationMode = "corp_public"
)

func (m OperationMode) Valid() bool {
	switch m {
	case ModeMyAlliance, ModeMyCorporation, ModeCorpInAlliance, ModeCorpPublic:
		return true
	}
	return false
}

func (m OperationMode) Friendly() string {
	switch m {
	case ModeMyAlliance:
		return "My Alliance"
	case ModeMyCorporation:
		return "My Corporation"
	case ModeCorpInAlliance:
		return "Corporation in my Alliance"
	case ModeCorpPublic:
		return "Contracts to my Corporation"
	default:
		return "Undefined mode"
	}
}

// Sync error classes surfaced on the handler after a failed cycle.
type SyncError int

const (
	SyncErrorNone SyncError = iota
	SyncErrorTokenInvalid
	SyncErrorTokenExpired
	SyncErrorInsufficientPermissions
	SyncErrorNoCharacter
	SyncErrorUpstreamUnavailable
	SyncErrorUnknown SyncError = 99
)

func (e SyncError) Message() string {
	switch e {
	case SyncErrorNone:
		return "No error"
	case SyncErrorTokenInvalid:
		return "Invalid token"
	case SyncErrorTokenExpired:
		return "Expired token"
	case SyncErrorInsufficientPermissions:
		return "Insufficient permissions"
	case SyncErrorNoCharacter:
		return "No character set for fetching contracts"
	case SyncErrorUpstreamUnavailable:
		return "Upstream API is currently unavailable"
	default:
		return "Unknown error"
	}
}

// ContractHandler is the per-organization sync configuration: which
// credential fetches contracts, in what scope, and how the global per-volume
// modifier applies. Exactly one handler is expected per deployment.
type ContractHandler struct {
	OrganizationID         int64         `json:"organization_id" gorm:"primaryKey;autoIncrement:false"`
	OrganizationName       string        `json:"organization_name" gorm:"size:100;not null"`
	CorporationID          int64         `json:"corporation_id" gorm:"not null"`
	CorporationName        string        `json:"corporation_name" gorm:"size:100;not null"`
	CharacterID            int64         `json:"character_id" gorm:"not null"`
	OperationMode          OperationMode `json:"operation_mode" gorm:"size:32;not null"`
	PricePerVolumeModifier *float64      `json:"price_per_volume_modifier"`
	LastSync               *time.Time    `json:"last_sync"`
	LastError              SyncError     `json:"last_error" gorm:"not null;default:0"`
	SyncLeaseToken         *string       `json:"-" gorm:"size:36"`
	SyncLeaseUntil         *time.Time    `json:"-"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

func (ContractHandler) TableName() string { return "contract_handlers" }

// IsSyncOK reports whether the last successful sync happened within the
// grace period. A handler that never synced is not OK.
func (h ContractHandler) IsSyncOK(grace time.Duration, now time.Time) bool {
	if h.LastError != SyncErrorNone {
		return false
	}
	if h.LastSync == nil {
		return false
	}
	return now.Sub(*h.LastSync) <= grace
}
