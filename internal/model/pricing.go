package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoPriceComponent = errors.New("at least one price component must be set")

// Pricing is a configured courier route with its price formula and the
// constraints a contract on that route has to satisfy.
type Pricing struct {
	ID                        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	StartLocationID           int64     `json:"start_location_id" gorm:"not null;uniqueIndex:uq_pricing_route"`
	EndLocationID             int64     `json:"end_location_id" gorm:"not null;uniqueIndex:uq_pricing_route"`
	StartLocation             *Location `json:"start_location,omitempty" gorm:"foreignKey:StartLocationID"`
	EndLocation               *Location `json:"end_location,omitempty" gorm:"foreignKey:EndLocationID"`
	IsActive                  bool      `json:"is_active" gorm:"not null;default:true"`
	IsBidirectional           bool      `json:"is_bidirectional" gorm:"not null;default:true"`
	PriceBase                 *float64  `json:"price_base"`
	PriceMin                  *float64  `json:"price_min"`
	PricePerVolume            *float64  `json:"price_per_volume"`
	PricePerCollateralPercent *float64  `json:"price_per_collateral_percent"`
	CollateralMin             *float64  `json:"collateral_min"`
	CollateralMax             *float64  `json:"collateral_max"`
	VolumeMin                 *float64  `json:"volume_min"`
	VolumeMax                 *float64  `json:"volume_max"`
	DaysToExpire              *int      `json:"days_to_expire"`
	DaysToComplete            *int      `json:"days_to_complete"`
	UsePricePerVolumeModifier bool      `json:"use_price_per_volume_modifier" gorm:"not null;default:false"`
	Details                   string    `json:"details"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

func (Pricing) TableName() string { return "pricings" }

// Name renders the route as "Jita - Amamake" style short names. Falls back to
// raw location IDs when the locations are not loaded.
func (p Pricing) Name() string {
	if p.StartLocation != nil && p.EndLocation != nil {
		arrow := "<->"
		if !p.IsBidirectional {
			arrow = "->"
		}
		return fmt.Sprintf("%s %s %s",
			p.StartLocation.SolarSystemName(), arrow, p.EndLocation.SolarSystemName())
	}
	return fmt.Sprintf("%d -> %d", p.StartLocationID, p.EndLocationID)
}

// Validate enforces the price component invariant: at least one component
// must carry a positive value, unless the pricing is an explicit free route
// (base price set to exactly zero and no other component set).
func (p Pricing) Validate() error {
	if positive(p.PriceBase) || positive(p.PriceMin) ||
		positive(p.PricePerVolume) || positive(p.PricePerCollateralPercent) {
		return nil
	}
	if p.PriceBase != nil && *p.PriceBase == 0 &&
		p.PriceMin == nil && p.PricePerVolume == nil && p.PricePerCollateralPercent == nil {
		return nil // free route
	}
	return ErrNoPriceComponent
}

// EffectivePricePerVolume applies the handler's global per-volume modifier
// when this pricing opts into it. The result never goes below zero.
func (p Pricing) EffectivePricePerVolume(modifierPercent *float64) float64 {
	rate := value(p.PricePerVolume)
	if p.UsePricePerVolumeModifier && modifierPercent != nil {
		rate += rate * *modifierPercent / 100
		if rate < 0 {
			rate = 0
		}
	}
	return rate
}

// CalculatedPrice returns the required reward for the given contract terms:
// max(price_min, price_base + volume * effective rate + collateral * pct/100).
func (p Pricing) CalculatedPrice(volume, collateral float64, modifierPercent *float64) (float64, error) {
	if volume < 0 {
		return 0, fmt.Errorf("volume can not be negative")
	}
	if collateral < 0 {
		return 0, fmt.Errorf("collateral can not be negative")
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	price := value(p.PriceBase) +
		volume*p.EffectivePricePerVolume(modifierPercent) +
		collateral*value(p.PricePerCollateralPercent)/100

	if min := value(p.PriceMin); price < min {
		price = min
	}
	return price, nil
}

// ContractCheckIssues validates contract terms against this pricing and
// returns a list of human readable issues, or nil when the contract passes.
// Only bounds that are actually set are checked.
func (p Pricing) ContractCheckIssues(volume, collateral, reward float64, modifierPercent *float64) ([]string, error) {
	if volume < 0 {
		return nil, fmt.Errorf("volume can not be negative")
	}
	if collateral < 0 {
		return nil, fmt.Errorf("collateral can not be negative")
	}
	if reward < 0 {
		return nil, fmt.Errorf("reward can not be negative")
	}

	var issues []string
	if p.VolumeMin != nil && volume < *p.VolumeMin {
		issues = append(issues, fmt.Sprintf(
			"below the minimum required volume of %.0f K m3", *p.VolumeMin/1000))
	}
	if p.VolumeMax != nil && volume > *p.VolumeMax {
		issues = append(issues, fmt.Sprintf(
			"exceeds the maximum allowed volume of %.0f K m3", *p.VolumeMax/1000))
	}
	if p.CollateralMax != nil && collateral > *p.CollateralMax {
		issues = append(issues, fmt.Sprintf(
			"exceeds the maximum allowed collateral of %.0f M ISK", *p.CollateralMax/1000000))
	}
	if p.CollateralMin != nil && collateral < *p.CollateralMin {
		issues = append(issues, fmt.Sprintf(
			"below the minimum required collateral of %.0f M ISK", *p.CollateralMin/1000000))
	}

	required, err := p.CalculatedPrice(volume, collateral, modifierPercent)
	if err != nil {
		return nil, err
	}
	if reward < required {
		issues = append(issues, fmt.Sprintf(
			"reward is below the calculated price of %.0f M ISK", required/1000000))
	}
	return issues, nil
}

func positive(v *float64) bool { return v != nil && *v > 0 }

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
