package landedcost

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/internal/volumetric"
	"github.com/angelmondragon/landedcost/pkg/enums"
)

// DisplayBreakdown is a CostBreakdown rounded for presentation: money half-up to two
// decimals, CBM half-up to one.
type DisplayBreakdown struct {
	Status         enums.BreakdownStatus `json:"status"`
	TargetCurrency enums.Currency        `json:"targetCurrency"`

	UnitCBM    *decimal.Decimal `json:"unitCbm"`
	TotalCBM   *decimal.Decimal `json:"totalCbm"`
	AppliedCBM *decimal.Decimal `json:"appliedCbm"`

	UnitPrice            *decimal.Decimal `json:"unitPrice"`
	FreightCost          *decimal.Decimal `json:"freightCost"`
	ConvertedFreightCost *decimal.Decimal `json:"convertedFreightCost"`
	FactoryCostSum       *decimal.Decimal `json:"factoryCostSum"`
	ConvertedFactoryCost *decimal.Decimal `json:"convertedFactoryCost"`
	GrandTotal           *decimal.Decimal `json:"grandTotal"`

	Unavailable []Unavailable `json:"unavailable"`
}

// Display rounds the breakdown. Rounding happens only here, never during aggregation.
func (b CostBreakdown) Display() DisplayBreakdown {
	return DisplayBreakdown{
		Status:               b.Status,
		TargetCurrency:       b.TargetCurrency,
		UnitCBM:              roundWith(b.UnitCBM, volumetric.RoundCBM),
		TotalCBM:             roundWith(b.TotalCBM, volumetric.RoundCBM),
		AppliedCBM:           roundWith(b.AppliedCBM, volumetric.RoundCBM),
		UnitPrice:            roundWith(b.UnitPrice, currency.RoundMoney),
		FreightCost:          roundWith(b.FreightCost, currency.RoundMoney),
		ConvertedFreightCost: roundWith(b.ConvertedFreightCost, currency.RoundMoney),
		FactoryCostSum:       roundWith(b.FactoryCostSum, currency.RoundMoney),
		ConvertedFactoryCost: roundWith(b.ConvertedFactoryCost, currency.RoundMoney),
		GrandTotal:           roundWith(b.GrandTotal, currency.RoundMoney),
		Unavailable:          b.Unavailable,
	}
}

func roundWith(v *float64, round func(float64) decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := round(*v)
	return &d
}
