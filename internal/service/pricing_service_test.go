package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nurpe/freight-sync/internal/model"
)

func f(v float64) *float64 { return &v }

func TestRouteIndexMatch(t *testing.T) {
	pricings := []model.Pricing{
		{ID: 1, StartLocationID: 10, EndLocationID: 20, IsBidirectional: true},
		{ID: 2, StartLocationID: 30, EndLocationID: 40},
	}
	index := BuildRouteIndex(pricings)

	require.Equal(t, int64(1), index.Match(10, 20).ID)
	require.Equal(t, int64(1), index.Match(20, 10).ID)

	require.Equal(t, int64(2), index.Match(30, 40).ID)
	require.Nil(t, index.Match(40, 30)) // one way only

	require.Nil(t, index.Match(10, 30))
}

func TestRouteIndexOrderedBeatsReversed(t *testing.T) {
	// pricing 2 covers 20 -> 10 in reverse, but pricing 3 claims it directly
	pricings := []model.Pricing{
		{ID: 2, StartLocationID: 10, EndLocationID: 20, IsBidirectional: true},
		{ID: 3, StartLocationID: 20, EndLocationID: 10},
	}
	index := BuildRouteIndex(pricings)
	require.Equal(t, int64(3), index.Match(20, 10).ID)
}

func TestRouteIndexEarliestWins(t *testing.T) {
	// input is in creation order; the later duplicate is ignored
	pricings := []model.Pricing{
		{ID: 5, StartLocationID: 10, EndLocationID: 20},
		{ID: 6, StartLocationID: 10, EndLocationID: 20},
	}
	index := BuildRouteIndex(pricings)
	require.Equal(t, int64(5), index.Match(10, 20).ID)
}

func TestEvaluateContract(t *testing.T) {
	index := BuildRouteIndex([]model.Pricing{{
		ID:              1,
		StartLocationID: jitaStationID,
		EndLocationID:   amamakeStationID,
		PriceBase:       f(1000000),
		PricePerVolume:  f(500),
	}})

	// unpriced route yields no verdict
	unpriced := &model.Contract{StartLocationID: 1, EndLocationID: 2}
	pricingID, issues, err := EvaluateContract(unpriced, index, nil)
	require.NoError(t, err)
	require.Nil(t, pricingID)
	require.Nil(t, issues)

	// reward meets the calculated price of 6 M ISK
	compliant := &model.Contract{
		StartLocationID: jitaStationID,
		EndLocationID:   amamakeStationID,
		Volume:          10000,
		Reward:          6000000,
	}
	pricingID, issues, err = EvaluateContract(compliant, index, nil)
	require.NoError(t, err)
	require.NotNil(t, pricingID)
	require.EqualValues(t, 1, *pricingID)
	require.Nil(t, issues)

	underpaid := &model.Contract{
		StartLocationID: jitaStationID,
		EndLocationID:   amamakeStationID,
		Volume:          10000,
		Reward:          5999999,
	}
	pricingID, issues, err = EvaluateContract(underpaid, index, nil)
	require.NoError(t, err)
	require.NotNil(t, pricingID)
	require.NotNil(t, issues)
	require.JSONEq(t, `["reward is below the calculated price of 6 M ISK"]`, *issues)
}

func TestEvaluateContractWithModifier(t *testing.T) {
	index := BuildRouteIndex([]model.Pricing{{
		ID:                        1,
		StartLocationID:           jitaStationID,
		EndLocationID:             amamakeStationID,
		PricePerVolume:            f(500),
		UsePricePerVolumeModifier: true,
	}})

	contract := &model.Contract{
		StartLocationID: jitaStationID,
		EndLocationID:   amamakeStationID,
		Volume:          10000,
		Reward:          5000000,
	}

	// without the modifier the reward is exactly right
	pricingID, issues, err := EvaluateContract(contract, index, nil)
	require.NoError(t, err)
	require.NotNil(t, pricingID)
	require.Nil(t, issues)

	// a +10 percent modifier pushes the required price to 5.5 M ISK
	_, issues, err = EvaluateContract(contract, index, f(10))
	require.NoError(t, err)
	require.NotNil(t, issues)
}

func TestUpdateAllContracts(t *testing.T) {
	env := newTestEnv(t)
	handler := env.seedHandler(t, model.ModeMyAlliance)
	ctx := context.Background()

	env.seedLocation(t, jitaStationID, "Jita IV - Moon 4 - Caldari Navy Assembly Plant")
	env.seedLocation(t, amamakeStationID, "Amamake V - Moon 1 - Expert Distribution Retail Center")

	pricing := &model.Pricing{
		StartLocationID: jitaStationID,
		EndLocationID:   amamakeStationID,
		IsActive:        true,
		IsBidirectional: true,
		PriceBase:       f(1000000),
		PricePerVolume:  f(500),
	}
	require.NoError(t, env.pricings.Create(ctx, pricing))

	issued := time.Now().UTC().Add(-time.Hour)
	seed := func(contractID int64, start, end int64, reward float64) {
		_, err := env.contracts.Upsert(ctx, &model.Contract{
			HandlerID:       handler.OrganizationID,
			ContractID:      contractID,
			Status:          model.StatusOutstanding,
			IssuerID:        1011,
			StartLocationID: start,
			EndLocationID:   end,
			Reward:          reward,
			Volume:          10000,
			DateIssued:      issued,
			DateExpired:     issued.Add(7 * 24 * time.Hour),
		})
		require.NoError(t, err)
	}
	seed(801, jitaStationID, amamakeStationID, 6000000)  // compliant
	seed(802, amamakeStationID, jitaStationID, 1000000)  // reverse route, underpaid
	seed(803, jitaStationID, 99, 6000000)                // unpriced route

	pricingService := NewPricingService(env.pricings, env.contracts, env.handlers, testLogger())
	require.NoError(t, pricingService.UpdateAllContracts(ctx))

	compliant, err := env.contracts.Get(ctx, handler.OrganizationID, 801)
	require.NoError(t, err)
	require.True(t, compliant.IsCompliant())

	underpaid, err := env.contracts.Get(ctx, handler.OrganizationID, 802)
	require.NoError(t, err)
	require.True(t, underpaid.HasPricing())
	require.False(t, underpaid.IsCompliant())
	require.Contains(t, underpaid.IssueList()[0], "reward is below the calculated price")

	unpriced, err := env.contracts.Get(ctx, handler.OrganizationID, 803)
	require.NoError(t, err)
	require.False(t, unpriced.HasPricing())
}

func TestUpdateAllContractsAppliesHandlerModifier(t *testing.T) {
	env := newTestEnv(t)
	handler := env.seedHandler(t, model.ModeMyAlliance)
	ctx := context.Background()

	handler.PricePerVolumeModifier = f(10)
	require.NoError(t, env.handlers.Save(ctx, handler))

	pricing := &model.Pricing{
		StartLocationID:           jitaStationID,
		EndLocationID:             amamakeStationID,
		IsActive:                  true,
		PricePerVolume:            f(500),
		UsePricePerVolumeModifier: true,
	}
	require.NoError(t, env.pricings.Create(ctx, pricing))

	issued := time.Now().UTC().Add(-time.Hour)
	_, err := env.contracts.Upsert(ctx, &model.Contract{
		HandlerID:       handler.OrganizationID,
		ContractID:      804,
		Status:          model.StatusOutstanding,
		IssuerID:        1011,
		StartLocationID: jitaStationID,
		EndLocationID:   amamakeStationID,
		Reward:          5000000, // enough without the modifier, short with it
		Volume:          10000,
		DateIssued:      issued,
		DateExpired:     issued.Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	pricingService := NewPricingService(env.pricings, env.contracts, env.handlers, testLogger())
	require.NoError(t, pricingService.UpdateAllContracts(ctx))

	contract, err := env.contracts.Get(ctx, handler.OrganizationID, 804)
	require.NoError(t, err)
	require.True(t, contract.HasPricing())
	require.False(t, contract.IsCompliant())
}
