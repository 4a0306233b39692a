package enums

// BreakdownStatus describes how much of a cost breakdown could be computed.
type BreakdownStatus string

const (
	// BreakdownStatusComplete means every figure, including the grand total, is present.
	BreakdownStatusComplete BreakdownStatus = "complete"
	// BreakdownStatusIncomplete means dimensions or quantity are still missing.
	BreakdownStatusIncomplete BreakdownStatus = "incomplete"
	// BreakdownStatusPartial means some converted totals are unavailable.
	BreakdownStatusPartial BreakdownStatus = "partial"
)

// String implements fmt.Stringer.
func (s BreakdownStatus) String() string {
	return string(s)
}
