package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code known to the exchange-rate snapshot.
type Currency string

const (
	// CurrencyKRW is the reference currency; its rate is fixed at 1.
	CurrencyKRW Currency = "KRW"
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
)

// supportedCurrencies is ordered reference first, then as shown to users.
var supportedCurrencies = [...]Currency{CurrencyKRW, CurrencyUSD, CurrencyCNY}

// Currencies lists every supported code.
func Currencies() []Currency {
	return append([]Currency(nil), supportedCurrencies[:]...)
}

func (c Currency) String() string { return string(c) }

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyKRW, CurrencyUSD, CurrencyCNY:
		return true
	}
	return false
}

// ParseCurrency accepts any letter case and surrounding whitespace.
func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q (want one of %v)", value, supportedCurrencies)
	}
	return c, nil
}
