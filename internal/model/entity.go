package model

// EveEntity categories as reported by the upstream names endpoint.
const (
	EntityCategoryCharacter   = "character"
	EntityCategoryCorporation = "corporation"
	EntityCategoryAlliance    = "alliance"
)

// EveEntity caches the name and category of a character, corporation or
// alliance referenced by a contract. Resolved once from upstream and reused.
type EveEntity struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Category string `json:"category" gorm:"size:16;not null"`
}

func (EveEntity) TableName() string { return "eve_entities" }

func (e EveEntity) IsCharacter() bool   { return e.Category == EntityCategoryCharacter }
func (e EveEntity) IsCorporation() bool { return e.Category == EntityCategoryCorporation }
