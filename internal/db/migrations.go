package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/model"
)

// Statements run after AutoMigrate. Only portable SQL here so the sqlite
// test databases share the schema with postgres.
var migrationStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_contracts_pricing_id ON contracts (pricing_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_date_issued ON contracts (date_issued);`,
	`CREATE INDEX IF NOT EXISTS idx_pricings_is_active ON pricings (is_active);`,
}

func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&model.Location{},
		&model.EveEntity{},
		&model.ContractHandler{},
		&model.Pricing{},
		&model.Contract{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
