package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestPricingValidate(t *testing.T) {
	require.NoError(t, Pricing{PriceBase: f(500000)}.Validate())
	require.NoError(t, Pricing{PricePerVolume: f(150)}.Validate())
	require.NoError(t, Pricing{PricePerCollateralPercent: f(2)}.Validate())
	require.NoError(t, Pricing{PriceMin: f(1000000)}.Validate())

	// explicit free route
	require.NoError(t, Pricing{PriceBase: f(0)}.Validate())

	require.ErrorIs(t, Pricing{}.Validate(), ErrNoPriceComponent)
	require.ErrorIs(t, Pricing{PriceBase: f(0), PricePerVolume: f(0)}.Validate(), ErrNoPriceComponent)
}

func TestPricingCalculatedPrice(t *testing.T) {
	pricing := Pricing{
		PriceBase:                 f(1000000),
		PricePerVolume:            f(500),
		PricePerCollateralPercent: f(2),
	}

	// base + volume component only
	price, err := pricing.CalculatedPrice(10000, 0, nil)
	require.NoError(t, err)
	require.InDelta(t, 6000000, price, 0.01)

	// collateral component adds 2 percent
	price, err = pricing.CalculatedPrice(10000, 100000000, nil)
	require.NoError(t, err)
	require.InDelta(t, 8000000, price, 0.01)

	// price floor wins when the formula lands below it
	floored := Pricing{PriceBase: f(100000), PriceMin: f(3000000)}
	price, err = floored.CalculatedPrice(0, 0, nil)
	require.NoError(t, err)
	require.InDelta(t, 3000000, price, 0.01)

	// free route
	free := Pricing{PriceBase: f(0)}
	price, err = free.CalculatedPrice(50000, 0, nil)
	require.NoError(t, err)
	require.Zero(t, price)

	_, err = pricing.CalculatedPrice(-1, 0, nil)
	require.Error(t, err)
	_, err = pricing.CalculatedPrice(0, -1, nil)
	require.Error(t, err)
	_, err = Pricing{}.CalculatedPrice(100, 0, nil)
	require.ErrorIs(t, err, ErrNoPriceComponent)
}

func TestPricingVolumeModifier(t *testing.T) {
	optedIn := Pricing{PricePerVolume: f(500), UsePricePerVolumeModifier: true}

	// no modifier configured
	require.InDelta(t, 500, optedIn.EffectivePricePerVolume(nil), 0.01)

	// +10 percent
	require.InDelta(t, 550, optedIn.EffectivePricePerVolume(f(10)), 0.01)

	// -10 percent
	require.InDelta(t, 450, optedIn.EffectivePricePerVolume(f(-10)), 0.01)

	// floored at zero
	require.Zero(t, optedIn.EffectivePricePerVolume(f(-200)))

	// pricing that does not opt in ignores the modifier
	optedOut := Pricing{PricePerVolume: f(500)}
	require.InDelta(t, 500, optedOut.EffectivePricePerVolume(f(10)), 0.01)

	price, err := optedIn.CalculatedPrice(10000, 0, f(10))
	require.NoError(t, err)
	require.InDelta(t, 5500000, price, 0.01)
}

func TestPricingContractCheckIssues(t *testing.T) {
	pricing := Pricing{
		PriceBase:     f(1000000),
		VolumeMin:     f(5000),
		VolumeMax:     f(300000),
		CollateralMin: f(10000000),
		CollateralMax: f(2000000000),
	}

	issues, err := pricing.ContractCheckIssues(10000, 100000000, 2000000, nil)
	require.NoError(t, err)
	require.Empty(t, issues)

	issues, err = pricing.ContractCheckIssues(1000, 100000000, 2000000, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"below the minimum required volume of 5 K m3"}, issues)

	issues, err = pricing.ContractCheckIssues(400000, 100000000, 2000000, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exceeds the maximum allowed volume of 300 K m3"}, issues)

	issues, err = pricing.ContractCheckIssues(10000, 5000000000, 2000000, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"exceeds the maximum allowed collateral of 2000 M ISK"}, issues)

	issues, err = pricing.ContractCheckIssues(10000, 1000000, 2000000, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"below the minimum required collateral of 10 M ISK"}, issues)

	issues, err = pricing.ContractCheckIssues(10000, 100000000, 500000, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"reward is below the calculated price of 1 M ISK"}, issues)

	// multiple failures accumulate
	issues, err = pricing.ContractCheckIssues(1000, 1000000, 500000, nil)
	require.NoError(t, err)
	require.Len(t, issues, 3)

	_, err = pricing.ContractCheckIssues(10000, 100000000, -1, nil)
	require.Error(t, err)
}

func TestPricingName(t *testing.T) {
	jita := &Location{ID: 60003760, Name: "Jita IV - Moon 4 - Caldari Navy Assembly Plant"}
	amamake := &Location{ID: 60012721, Name: "Amamake V - Moon 1 - Expert Distribution Retail Center"}

	both := Pricing{StartLocation: jita, EndLocation: amamake, IsBidirectional: true}
	require.Equal(t, "Jita <-> Amamake", both.Name())

	oneWay := Pricing{StartLocation: jita, EndLocation: amamake}
	require.Equal(t, "Jita -> Amamake", oneWay.Name())

	unloaded := Pricing{StartLocationID: 1, EndLocationID: 2}
	require.Equal(t, "1 -> 2", unloaded.Name())
}
