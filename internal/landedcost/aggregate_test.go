package landedcost

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/internal/shipping"
	"github.com/angelmondragon/landedcost/internal/volumetric"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
)

func f(v float64) *float64 { return &v }

func dims(l, w, h, q float64) volumetric.Dimensions {
	return volumetric.Dimensions{Length: f(l), Width: f(w), Height: f(h), Quantity: f(q)}
}

func testSnapshot(t *testing.T) *currency.Snapshot {
	t.Helper()
	snap, err := currency.NewSnapshot(enums.CurrencyKRW, map[enums.Currency]float64{
		enums.CurrencyUSD: 1350,
		enums.CurrencyCNY: 190,
	}, nil, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return snap
}

func krwRateType() shipping.RateTypeDTO {
	return shipping.RateTypeDTO{
		ID:           uuid.MustParse("7b1e4c2a-9d3f-4a61-8c55-2f0e6d9a1b34"),
		Currency:     enums.CurrencyKRW,
		RoundingUnit: volumetric.DefaultGranularity,
		Brackets: []shipping.Bracket{
			{UpperBoundCBM: decimal.RequireFromString("5"), UnitPrice: decimal.RequireFromString("60000")},
		},
	}
}

func cnyFactory() *FactoryCosts {
	return &FactoryCosts{
		Currency: enums.CurrencyCNY,
		Lines: []CostLine{
			{ItemID: "carton", Amount: decimal.RequireFromString("1000")},
			{ItemID: "trucking", Amount: decimal.RequireFromString("500")},
		},
	}
}

func baseInput() Input {
	return Input{
		Dimensions:     dims(50, 40, 30, 10),
		RateType:       krwRateType(),
		FactoryID:      "factory-1",
		Factory:        cnyFactory(),
		TargetCurrency: enums.CurrencyKRW,
	}
}

func TestAggregateComplete(t *testing.T) {
	out, err := Aggregate(baseInput(), testSnapshot(t))
	require.NoError(t, err)

	assert.Equal(t, enums.BreakdownStatusComplete, out.Status)
	assert.Empty(t, out.Unavailable)
	assert.InDelta(t, 0.06, *out.UnitCBM, 1e-9)
	assert.InDelta(t, 0.6, *out.TotalCBM, 1e-9)
	assert.InDelta(t, 0.6, *out.AppliedCBM, 1e-9)
	assert.InDelta(t, 60000, *out.UnitPrice, 1e-9)
	assert.InDelta(t, 36000, *out.FreightCost, 1e-6)
	assert.InDelta(t, 36000, *out.ConvertedFreightCost, 1e-6)
	assert.InDelta(t, 1500, *out.FactoryCostSum, 1e-9)
	assert.InDelta(t, 285000, *out.ConvertedFactoryCost, 1e-6)
	assert.InDelta(t, 321000, *out.GrandTotal, 1e-6)
	assert.Len(t, out.Lines, 2)
	require.NotNil(t, out.SnapshotFetchedAt)
}

func TestAggregateExtrapolatesAboveHighestBracket(t *testing.T) {
	in := baseInput()
	in.Dimensions = dims(100, 100, 100, 7)
	in.RateType.Currency = enums.CurrencyUSD
	in.RateType.Brackets = []shipping.Bracket{
		{UpperBoundCBM: decimal.RequireFromString("5"), UnitPrice: decimal.RequireFromString("70")},
		{UpperBoundCBM: decimal.RequireFromString("1"), UnitPrice: decimal.RequireFromString("80")},
	}
	in.TargetCurrency = enums.CurrencyUSD

	out, err := Aggregate(in, testSnapshot(t))
	require.NoError(t, err)
	assert.InDelta(t, 7, *out.AppliedCBM, 1e-9)
	assert.InDelta(t, 70, *out.UnitPrice, 1e-9)
	assert.InDelta(t, 7*70, *out.FreightCost, 1e-9)
	assert.InDelta(t, 490, *out.ConvertedFreightCost, 1e-9)
}

func TestAggregateIsDeterministic(t *testing.T) {
	snap := testSnapshot(t)
	in := baseInput()
	first, err := Aggregate(in, snap)
	require.NoError(t, err)
	second, err := Aggregate(in, snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	again, err := Aggregate(baseInput(), snap)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestAggregateInclusiveBracketSurvivesFloatNoise(t *testing.T) {
	in := baseInput()
	in.Dimensions = dims(100, 100, 10, 3)
	in.RateType.Brackets = []shipping.Bracket{
		{UpperBoundCBM: decimal.RequireFromString("0.3"), UnitPrice: decimal.RequireFromString("100")},
		{UpperBoundCBM: decimal.RequireFromString("1"), UnitPrice: decimal.RequireFromString("200")},
	}

	out, err := Aggregate(in, testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, 0.3, *out.AppliedCBM)
	assert.InDelta(t, 100, *out.UnitPrice, 1e-9)
	assert.InDelta(t, 30, *out.FreightCost, 1e-9)
}

func TestTargetCurrencyScalesGrandTotalByConversionFactor(t *testing.T) {
	snap := testSnapshot(t)
	inKRW := baseInput()
	inUSD := baseInput()
	inUSD.TargetCurrency = enums.CurrencyUSD

	krw, err := Aggregate(inKRW, snap)
	require.NoError(t, err)
	usd, err := Aggregate(inUSD, snap)
	require.NoError(t, err)

	factor, err := snap.Convert(1, enums.CurrencyKRW, enums.CurrencyUSD)
	require.NoError(t, err)
	assert.InEpsilon(t, *krw.GrandTotal*factor, *usd.GrandTotal, 1e-9)
}

func TestAggregateIncompleteKeepsFactorySum(t *testing.T) {
	in := baseInput()
	in.Dimensions.Height = nil

	out, err := Aggregate(in, testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, enums.BreakdownStatusIncomplete, out.Status)
	assert.Nil(t, out.AppliedCBM)
	assert.Nil(t, out.FreightCost)
	assert.Nil(t, out.GrandTotal)
	require.NotNil(t, out.FactoryCostSum)
	assert.InDelta(t, 1500, *out.FactoryCostSum, 1e-9)
	require.NotNil(t, out.ConvertedFactoryCost)
	require.Len(t, out.Unavailable, 1)
	assert.Equal(t, ReasonIncompleteInput, out.Unavailable[0].Reason)
}

func TestAggregateWithoutSnapshotIsPartial(t *testing.T) {
	out, err := Aggregate(baseInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, enums.BreakdownStatusPartial, out.Status)
	assert.Nil(t, out.SnapshotFetchedAt)
	require.NotNil(t, out.AppliedCBM)
	require.NotNil(t, out.FreightCost)
	require.NotNil(t, out.FactoryCostSum)
	assert.Nil(t, out.ConvertedFactoryCost)
	assert.Nil(t, out.ConvertedFreightCost)
	assert.Nil(t, out.GrandTotal)

	fields := map[string]string{}
	for _, u := range out.Unavailable {
		fields[u.Field] = u.Reason
	}
	assert.Equal(t, map[string]string{
		"convertedFactoryCost": ReasonConversionUnavailable,
		"convertedFreightCost": ReasonConversionUnavailable,
		"grandTotal":           ReasonConversionUnavailable,
	}, fields)
}

func TestAggregateMissingCurrencyOnlyAffectsDependentTotals(t *testing.T) {
	snap, err := currency.NewSnapshot(enums.CurrencyKRW, map[enums.Currency]float64{enums.CurrencyUSD: 1350}, nil, time.Now())
	require.NoError(t, err)

	out, err := Aggregate(baseInput(), snap)
	require.NoError(t, err)
	assert.Equal(t, enums.BreakdownStatusPartial, out.Status)
	assert.Nil(t, out.ConvertedFactoryCost)
	require.NotNil(t, out.ConvertedFreightCost)
	assert.InDelta(t, 36000, *out.ConvertedFreightCost, 1e-6)
	assert.Nil(t, out.GrandTotal)
}

func TestAggregateMissingFactory(t *testing.T) {
	in := baseInput()
	in.Factory = nil

	out, err := Aggregate(in, testSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, enums.BreakdownStatusPartial, out.Status)
	assert.Nil(t, out.FactoryCostSum)
	require.NotNil(t, out.FreightCost)
	assert.Nil(t, out.GrandTotal)
	require.Len(t, out.Unavailable, 2)
	assert.Equal(t, ReasonFactoryNotFound, out.Unavailable[0].Reason)
	assert.Equal(t, "factory-1", out.Unavailable[0].Detail)
	assert.Equal(t, ReasonFactoryNotFound, out.Unavailable[1].Reason)
}

func TestAggregateRejectsInvalidInput(t *testing.T) {
	snap := testSnapshot(t)
	cases := map[string]func(*Input){
		"negative dimension": func(in *Input) { in.Dimensions.Width = f(-1) },
		"empty brackets":     func(in *Input) { in.RateType.Brackets = nil },
		"target currency":    func(in *Input) { in.TargetCurrency = "EUR" },
		"factory currency":   func(in *Input) { in.Factory.Currency = "EUR" },
		"negative amount": func(in *Input) {
			in.Factory.Lines[0].Amount = decimal.RequireFromString("-10")
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := baseInput()
			mutate(&in)
			_, err := Aggregate(in, snap)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestAggregateUsesRateTypeRoundingUnit(t *testing.T) {
	in := baseInput()
	in.Dimensions = dims(33, 33, 33, 5)
	in.RateType.RoundingUnit = decimal.RequireFromString("0.5")

	out, err := Aggregate(in, testSnapshot(t))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, *out.AppliedCBM, 1e-9)

	in.RateType.RoundingUnit = decimal.Zero
	out, err = Aggregate(in, testSnapshot(t))
	require.NoError(t, err)
	assert.InDelta(t, 0.2, *out.AppliedCBM, 1e-9)
}

func TestDisplayRounds(t *testing.T) {
	b := CostBreakdown{
		Status:     enums.BreakdownStatusComplete,
		TotalCBM:   f(0.179685),
		AppliedCBM: f(0.2),
		UnitPrice:  f(12.345),
		GrandTotal: f(2.005),
	}
	d := b.Display()
	assert.Equal(t, "0.2", d.TotalCBM.String())
	assert.Equal(t, "0.2", d.AppliedCBM.String())
	assert.Equal(t, "12.35", d.UnitPrice.String())
	assert.Equal(t, "2.01", d.GrandTotal.String())
	assert.Nil(t, d.FreightCost)
	assert.Nil(t, d.UnitCBM)
}
