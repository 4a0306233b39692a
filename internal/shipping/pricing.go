package shipping

import (
	"sort"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
)

// ResolveUnitPrice returns the price of the lowest bracket whose inclusive upper bound
// covers appliedCBM. Above every bracket the highest bracket's price applies.
func ResolveUnitPrice(brackets []Bracket, appliedCBM float64) (decimal.Decimal, error) {
	if len(brackets) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "rate type has no brackets")
	}
	ordered := sortedBrackets(brackets)
	applied := decimal.NewFromFloat(appliedCBM)
	for _, b := range ordered {
		if b.UpperBoundCBM.GreaterThanOrEqual(applied) {
			return b.UnitPrice, nil
		}
	}
	return ordered[len(ordered)-1].UnitPrice, nil
}

// sortedBrackets returns a copy ordered by ascending upper bound.
func sortedBrackets(brackets []Bracket) []Bracket {
	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpperBoundCBM.LessThan(out[j].UpperBoundCBM)
	})
	return out
}
