package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCostValuesAcceptsNumericStrings(t *testing.T) {
	var values CostValues
	payload := `{"item-1": 1500, "item-2": "2,300.50", "item-3": "", "item-4": null}`
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("expected 2 overrides, got %d (%v)", len(values), values)
	}
	if values["item-1"] != 1500 {
		t.Fatalf("unexpected item-1 value %v", values["item-1"])
	}
	if values["item-2"] != 2300.5 {
		t.Fatalf("unexpected item-2 value %v", values["item-2"])
	}
}

func TestCostValuesRejectsGarbage(t *testing.T) {
	var values CostValues
	err := json.Unmarshal([]byte(`{"item-1": "abc", "item-2": true}`), &values)
	if err == nil {
		t.Fatal("expected error for non numeric overrides")
	}
	if !strings.Contains(err.Error(), "item-1") || !strings.Contains(err.Error(), "item-2") {
		t.Fatalf("expected both keys reported, got %v", err)
	}
}

func TestPresetSlotsValueAndScan(t *testing.T) {
	slots := PresetSlots{{
		FactoryID:       "factory-1",
		SelectedItemIDs: []string{"a", "b"},
		CostValues:      CostValues{"a": 12.5},
	}}

	val, err := slots.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var decoded PresetSlots
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(decoded) != 1 || decoded[0].FactoryID != "factory-1" {
		t.Fatalf("unexpected decoded slots %+v", decoded)
	}
	if decoded[0].CostValues["a"] != 12.5 {
		t.Fatalf("expected override to survive round trip, got %v", decoded[0].CostValues)
	}
	if !decoded[0].IsSelected("b") || decoded[0].IsSelected("c") {
		t.Fatalf("unexpected selection %v", decoded[0].SelectedItemIDs)
	}
}

func TestPresetSlotsScanRejectsInvalidShape(t *testing.T) {
	var decoded PresetSlots
	err := decoded.Scan([]byte(`[{"factoryId": "", "selectedItemIds": ["a", "a"], "costValues": {"a": -1}}]`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"slots[0]: factoryId is required", "twice", "non-negative"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestPresetSlotsScanNil(t *testing.T) {
	var decoded PresetSlots
	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Fatalf("expected empty slots, got %v", decoded)
	}
}
