// Package volumetric converts carton dimensions into billable cubic meters.
package volumetric

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
)

// Divisor converts cubic centimeters into cubic meters.
const Divisor = 1_000_000

// boundaryEpsilon absorbs float noise when totalCbm sits on a granularity multiple.
const boundaryEpsilon = 1e-9

// DefaultGranularity is the billable step used when a rate type does not define one.
var DefaultGranularity = decimal.RequireFromString("0.1")

// ErrIncompleteInput means a required dimension or the quantity is missing, or a
// dimension is zero. Callers should wait for more input rather than report a failure.
var ErrIncompleteInput = errors.New("incomplete volumetric input")

// Dimensions are centimeters per carton plus the carton count.
type Dimensions struct {
	Length   *float64 `json:"length"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Quantity *float64 `json:"quantity"`
}

// Measurement holds raw CBM figures; AppliedCBM is the revenue-ton billed by the carrier.
type Measurement struct {
	UnitCBM    float64 `json:"unitCbm"`
	TotalCBM   float64 `json:"totalCbm"`
	AppliedCBM float64 `json:"appliedCbm"`
}

// Measure computes unit, total and applied CBM. Applied CBM is the total rounded up to
// the next multiple of granularity, and equals the total when it already lies on one.
func Measure(dims Dimensions, granularity decimal.Decimal) (Measurement, error) {
	if !granularity.IsPositive() {
		return Measurement{}, pkgerrors.New(pkgerrors.CodeValidation, "granularity must be positive")
	}

	values := []struct {
		name  string
		value *float64
	}{
		{"length", dims.Length},
		{"width", dims.Width},
		{"height", dims.Height},
		{"quantity", dims.Quantity},
	}
	for _, v := range values {
		if v.value == nil {
			continue
		}
		if math.IsNaN(*v.value) || math.IsInf(*v.value, 0) {
			return Measurement{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a finite number", v.name))
		}
		if *v.value < 0 {
			return Measurement{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must not be negative", v.name))
		}
	}
	for _, v := range values {
		if v.value == nil {
			return Measurement{}, fmt.Errorf("%w: %s is missing", ErrIncompleteInput, v.name)
		}
		if v.name != "quantity" && *v.value == 0 {
			return Measurement{}, fmt.Errorf("%w: %s is zero", ErrIncompleteInput, v.name)
		}
	}

	unit := (*dims.Length) * (*dims.Width) * (*dims.Height) / Divisor
	total := unit * (*dims.Quantity)
	return Measurement{
		UnitCBM:    unit,
		TotalCBM:   total,
		AppliedCBM: ApplyGranularity(total, granularity),
	}, nil
}

// ApplyGranularity rounds a non-negative CBM up to the next granularity multiple.
func ApplyGranularity(total float64, granularity decimal.Decimal) float64 {
	if total <= 0 {
		return 0
	}
	g := granularity.InexactFloat64()
	q := total / g
	// Float noise near a multiple snaps to the exact multiple so inclusive
	// bracket bounds still match. Anything above zero bills at least one step.
	if nearest := math.Round(q); nearest > 0 && math.Abs(q-nearest) < boundaryEpsilon {
		return decimal.NewFromFloat(nearest).Mul(granularity).InexactFloat64()
	}
	steps := decimal.NewFromFloat(math.Ceil(q))
	return steps.Mul(granularity).InexactFloat64()
}

// RoundCBM rounds a CBM figure half-up to one decimal place for display. It is not
// the billing ceiling applied by Measure.
func RoundCBM(cbm float64) decimal.Decimal {
	return decimal.NewFromFloat(cbm).Round(1)
}
