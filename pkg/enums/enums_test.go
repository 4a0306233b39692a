package enums

import "testing"

func TestParseCurrency(t *testing.T) {
	got, err := ParseCurrency(" usd ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != CurrencyUSD {
		t.Fatalf("expected USD, got %s", got)
	}
	if _, err := ParseCurrency("EUR"); err == nil {
		t.Fatal("expected error for untracked currency")
	}
	if !CurrencyKRW.IsValid() || Currency("JPY").IsValid() {
		t.Fatal("unexpected IsValid result")
	}
}

func TestParseUnitType(t *testing.T) {
	if got, err := ParseUnitType("cbm"); err != nil || got != UnitTypeCBM {
		t.Fatalf("expected cbm, got %q err=%v", got, err)
	}
	if _, err := ParseUnitType("kg"); err == nil {
		t.Fatal("expected error for unknown unit type")
	}
}

func TestParseReplayModeDefaultsToAsSaved(t *testing.T) {
	got, err := ParseReplayMode("")
	if err != nil || got != ReplayModeAsSaved {
		t.Fatalf("expected as_saved default, got %q err=%v", got, err)
	}
	if got, err := ParseReplayMode("live"); err != nil || got != ReplayModeLive {
		t.Fatalf("expected live, got %q err=%v", got, err)
	}
	if _, err := ParseReplayMode("fresh"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestCurrenciesReturnsCopy(t *testing.T) {
	list := Currencies()
	if len(list) != 3 || list[0] != CurrencyKRW {
		t.Fatalf("unexpected currencies %v", list)
	}
	list[0] = "XXX"
	if Currencies()[0] != CurrencyKRW {
		t.Fatal("Currencies must not expose the backing array")
	}
}
