// Package landedcost combines volumetric freight, factory cost items and currency
// conversion into a single landed-cost breakdown.
package landedcost

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/internal/shipping"
	"github.com/angelmondragon/landedcost/internal/volumetric"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
)

// Reasons reported in CostBreakdown.Unavailable.
const (
	ReasonIncompleteInput       = "incomplete_input"
	ReasonConversionUnavailable = "conversion_unavailable"
	ReasonFactoryNotFound       = "factory_not_found"
)

// Unavailable names a figure that could not be produced and why.
type Unavailable struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// CostLine is one selected cost item with the amount used, in factory currency.
type CostLine struct {
	ItemID     string          `json:"itemId"`
	Name       string          `json:"name,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Overridden bool            `json:"overridden"`
}

// FactoryCosts is the selected part of a factory's cost sheet.
type FactoryCosts struct {
	Currency       enums.Currency
	Lines          []CostLine
	MissingItemIDs []string
}

// Input is everything one breakdown depends on apart from the exchange-rate snapshot.
// A nil Factory means the referenced factory no longer exists.
type Input struct {
	Dimensions     volumetric.Dimensions
	RateType       shipping.RateTypeDTO
	FactoryID      string
	Factory        *FactoryCosts
	TargetCurrency enums.Currency
}

// CostBreakdown is the computed, never persisted, result of one aggregation.
// Absent figures are nil and listed in Unavailable.
type CostBreakdown struct {
	Status         enums.BreakdownStatus `json:"status"`
	TargetCurrency enums.Currency        `json:"targetCurrency"`

	UnitCBM    *float64 `json:"unitCbm"`
	TotalCBM   *float64 `json:"totalCbm"`
	AppliedCBM *float64 `json:"appliedCbm"`

	RateTypeID           uuid.UUID      `json:"rateTypeId"`
	RateCurrency         enums.Currency `json:"rateCurrency"`
	UnitPrice            *float64       `json:"unitPrice"`
	FreightCost          *float64       `json:"freightCost"`
	ConvertedFreightCost *float64       `json:"convertedFreightCost"`

	FactoryID            string         `json:"factoryId"`
	FactoryCurrency      enums.Currency `json:"factoryCurrency,omitempty"`
	Lines                []CostLine     `json:"lines"`
	MissingItemIDs       []string       `json:"missingItemIds,omitempty"`
	FactoryCostSum       *float64       `json:"factoryCostSum"`
	ConvertedFactoryCost *float64       `json:"convertedFactoryCost"`

	GrandTotal *float64 `json:"grandTotal"`

	Unavailable       []Unavailable `json:"unavailable"`
	SnapshotFetchedAt *time.Time    `json:"snapshotFetchedAt,omitempty"`
	Stale             bool          `json:"stale"`
}

func (b *CostBreakdown) markUnavailable(field, reason, detail string) {
	b.Unavailable = append(b.Unavailable, Unavailable{Field: field, Reason: reason, Detail: detail})
}

// Aggregate computes a breakdown against one snapshot. Incomplete dimensions and
// missing conversions are reported inside the breakdown; only invalid input returns
// an error. A nil snapshot converts nothing, so every converted total is unavailable.
func Aggregate(in Input, snap *currency.Snapshot) (CostBreakdown, error) {
	if !in.TargetCurrency.IsValid() {
		return CostBreakdown{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target currency %q", in.TargetCurrency))
	}
	if !in.RateType.Currency.IsValid() {
		return CostBreakdown{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid rate type currency %q", in.RateType.Currency))
	}

	out := CostBreakdown{
		TargetCurrency: in.TargetCurrency,
		RateTypeID:     in.RateType.ID,
		RateCurrency:   in.RateType.Currency,
		FactoryID:      in.FactoryID,
		Lines:          []CostLine{},
		Unavailable:    []Unavailable{},
	}
	if snap != nil {
		at := snap.FetchedAt()
		out.SnapshotFetchedAt = &at
	}

	if err := aggregateFactory(&out, in, snap); err != nil {
		return CostBreakdown{}, err
	}

	granularity := in.RateType.RoundingUnit
	if granularity.IsZero() {
		granularity = volumetric.DefaultGranularity
	}
	m, err := volumetric.Measure(in.Dimensions, granularity)
	switch {
	case errors.Is(err, volumetric.ErrIncompleteInput):
		out.markUnavailable("appliedCbm", ReasonIncompleteInput, err.Error())
		out.Status = enums.BreakdownStatusIncomplete
		return out, nil
	case err != nil:
		return CostBreakdown{}, err
	}
	out.UnitCBM, out.TotalCBM, out.AppliedCBM = ptr(m.UnitCBM), ptr(m.TotalCBM), ptr(m.AppliedCBM)

	price, err := shipping.ResolveUnitPrice(in.RateType.Brackets, m.AppliedCBM)
	if err != nil {
		return CostBreakdown{}, err
	}
	freight := price.Mul(decimal.NewFromFloat(m.AppliedCBM)).InexactFloat64()
	out.UnitPrice, out.FreightCost = ptr(price.InexactFloat64()), ptr(freight)

	converted, err := snap.Convert(freight, in.RateType.Currency, in.TargetCurrency)
	if err != nil {
		out.markUnavailable("convertedFreightCost", ReasonConversionUnavailable, err.Error())
	} else {
		out.ConvertedFreightCost = ptr(converted)
	}

	if out.ConvertedFreightCost != nil && out.ConvertedFactoryCost != nil {
		out.GrandTotal = ptr(*out.ConvertedFactoryCost + *out.ConvertedFreightCost)
	} else {
		out.markUnavailable("grandTotal", grandTotalReason(out), "")
	}

	out.Status = enums.BreakdownStatusComplete
	if len(out.Unavailable) > 0 {
		out.Status = enums.BreakdownStatusPartial
	}
	return out, nil
}

func aggregateFactory(out *CostBreakdown, in Input, snap *currency.Snapshot) error {
	if in.Factory == nil {
		out.markUnavailable("factoryCostSum", ReasonFactoryNotFound, in.FactoryID)
		return nil
	}
	if !in.Factory.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid factory currency %q", in.Factory.Currency))
	}
	sum := decimal.Zero
	for _, line := range in.Factory.Lines {
		if line.Amount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cost item %s has a negative amount", line.ItemID))
		}
		sum = sum.Add(line.Amount)
		out.Lines = append(out.Lines, line)
	}
	out.FactoryCurrency = in.Factory.Currency
	out.MissingItemIDs = in.Factory.MissingItemIDs
	raw := sum.InexactFloat64()
	out.FactoryCostSum = &raw

	converted, err := snap.Convert(raw, in.Factory.Currency, in.TargetCurrency)
	if err != nil {
		out.markUnavailable("convertedFactoryCost", ReasonConversionUnavailable, err.Error())
		return nil
	}
	out.ConvertedFactoryCost = &converted
	return nil
}

func grandTotalReason(b CostBreakdown) string {
	for _, u := range b.Unavailable {
		if u.Reason == ReasonFactoryNotFound {
			return ReasonFactoryNotFound
		}
	}
	return ReasonConversionUnavailable
}

func ptr(v float64) *float64 { return &v }
