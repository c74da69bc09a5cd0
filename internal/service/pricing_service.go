package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/freight-sync/internal/model"
	"github.com/nurpe/freight-sync/internal/repository"
)

// PricingService matches contracts to route pricings and derives the
// compliance verdict.
type PricingService struct {
	pricings  *repository.PricingRepository
	contracts *repository.ContractRepository
	handlers  *repository.HandlerRepository
	log       zerolog.Logger
}

func NewPricingService(
	pricings *repository.PricingRepository,
	contracts *repository.ContractRepository,
	handlers *repository.HandlerRepository,
	log zerolog.Logger,
) *PricingService {
	return &PricingService{
		pricings:  pricings,
		contracts: contracts,
		handlers:  handlers,
		log:       log,
	}
}

type routeKey struct {
	start, end int64
}

// RouteIndex resolves a (start, end) location pair to its pricing: exact
// ordered matches first, then bidirectional pricings in reverse order.
type RouteIndex struct {
	ordered  map[routeKey]*model.Pricing
	reversed map[routeKey]*model.Pricing
}

// BuildRouteIndex indexes active pricings for matching. Pricings must be in
// creation order; when two pricings claim the same route the earliest-created
// one wins, which is the documented tie-break.
func BuildRouteIndex(pricings []model.Pricing) *RouteIndex {
	index := &RouteIndex{
		ordered:  make(map[routeKey]*model.Pricing, len(pricings)),
		reversed: make(map[routeKey]*model.Pricing),
	}
	for i := range pricings {
		pricing := &pricings[i]
		key := routeKey{pricing.StartLocationID, pricing.EndLocationID}
		if _, taken := index.ordered[key]; !taken {
			index.ordered[key] = pricing
		}
		if pricing.IsBidirectional {
			back := routeKey{pricing.EndLocationID, pricing.StartLocationID}
			if _, taken := index.reversed[back]; !taken {
				index.reversed[back] = pricing
			}
		}
	}
	return index
}

// Match returns the pricing for the route, or nil when the route is unpriced.
func (idx *RouteIndex) Match(startLocationID, endLocationID int64) *model.Pricing {
	key := routeKey{startLocationID, endLocationID}
	if pricing, ok := idx.ordered[key]; ok {
		return pricing
	}
	return idx.reversed[key]
}

// UpdateAllContracts re-derives the pricing match and compliance issues for
// every outstanding or still-unpriced contract.
func (s *PricingService) UpdateAllContracts(ctx context.Context) error {
	var modifier *float64
	handler, err := s.handlers.Get(ctx)
	if err == nil {
		modifier = handler.PricePerVolumeModifier
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	pricings, err := s.pricings.ListActive(ctx)
	if err != nil {
		return err
	}
	index := BuildRouteIndex(pricings)

	contracts, err := s.contracts.ListForPricingUpdate(ctx)
	if err != nil {
		return err
	}

	for _, contract := range contracts {
		pricingID, issues, err := EvaluateContract(&contract, index, modifier)
		if err != nil {
			s.log.Warn().Err(err).
				Int64("contract_id", contract.ContractID).
				Msg("pricing evaluation failed")
			continue
		}
		if err := s.contracts.SetPricing(ctx, contract.ID, pricingID, issues); err != nil {
			s.log.Error().Err(err).
				Int64("contract_id", contract.ContractID).
				Msg("failed to store pricing match")
		}
	}
	return nil
}

// EvaluateContract matches the contract's route and, when priced, runs the
// compliance checks. An unpriced route yields (nil, nil): no verdict.
func EvaluateContract(contract *model.Contract, index *RouteIndex, modifierPercent *float64) (*int64, *string, error) {
	pricing := index.Match(contract.StartLocationID, contract.EndLocationID)
	if pricing == nil {
		return nil, nil, nil
	}

	issueList, err := pricing.ContractCheckIssues(
		contract.Volume, contract.Collateral, contract.Reward, modifierPercent)
	if err != nil {
		return nil, nil, err
	}

	pricingID := pricing.ID
	if len(issueList) == 0 {
		return &pricingID, nil, nil
	}

	encoded, err := json.Marshal(issueList)
	if err != nil {
		return nil, nil, err
	}
	issues := string(encoded)
	return &pricingID, &issues, nil
}
