package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ErrInvalidSlots marks stored slot JSON that fails to decode or validate.
var ErrInvalidSlots = errors.New("invalid preset slots")

// CostValues maps a cost item id to the amount saved for it in a preset slot.
type CostValues map[string]float64

// UnmarshalJSON accepts numbers or numeric strings per entry; empty strings and
// nulls mean "no override" and are dropped. Anything else is rejected.
func (c *CostValues) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cost values: %w", err)
	}
	out := make(CostValues, len(raw))
	var errs error
	for key, msg := range raw {
		value, ok, err := parseCostValue(msg)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cost values[%s]: %w", key, err))
			continue
		}
		if ok {
			out[key] = value
		}
	}
	if errs != nil {
		return errs
	}
	*c = out
	return nil
}

func parseCostValue(msg json.RawMessage) (float64, bool, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, false, nil
	}
	var num float64
	if err := json.Unmarshal(trimmed, &num); err == nil {
		return num, true, nil
	}
	var str string
	if err := json.Unmarshal(trimmed, &str); err != nil {
		return 0, false, fmt.Errorf("expected number, got %s", string(trimmed))
	}
	str = strings.ReplaceAll(strings.TrimSpace(str), ",", "")
	if str == "" {
		return 0, false, nil
	}
	num, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, false, fmt.Errorf("expected number, got %q", str)
	}
	return num, true, nil
}

// PresetSlot references a factory by opaque id plus the cost item selection saved with it.
type PresetSlot struct {
	FactoryID       string     `json:"factoryId"`
	SelectedItemIDs []string   `json:"selectedItemIds"`
	CostValues      CostValues `json:"costValues"`
}

// Validate reports every problem in the slot at once.
func (s PresetSlot) Validate() error {
	var errs error
	if strings.TrimSpace(s.FactoryID) == "" {
		errs = multierr.Append(errs, fmt.Errorf("factoryId is required"))
	}
	seen := make(map[string]struct{}, len(s.SelectedItemIDs))
	for _, id := range s.SelectedItemIDs {
		if strings.TrimSpace(id) == "" {
			errs = multierr.Append(errs, fmt.Errorf("selectedItemIds contains an empty id"))
			continue
		}
		if _, dup := seen[id]; dup {
			errs = multierr.Append(errs, fmt.Errorf("selectedItemIds contains %q twice", id))
		}
		seen[id] = struct{}{}
	}
	for key, value := range s.CostValues {
		if strings.TrimSpace(key) == "" {
			errs = multierr.Append(errs, fmt.Errorf("costValues contains an empty id"))
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			errs = multierr.Append(errs, fmt.Errorf("costValues[%s] must be a non-negative number", key))
		}
	}
	return errs
}

// IsSelected reports whether the cost item id is part of the slot's selection.
func (s PresetSlot) IsSelected(itemID string) bool {
	for _, id := range s.SelectedItemIDs {
		if id == itemID {
			return true
		}
	}
	return false
}

// PresetSlots is the ordered slot list stored as JSON on the presets table.
type PresetSlots []PresetSlot

// Validate checks every slot, prefixing errors with the slot index.
func (p PresetSlots) Validate() error {
	var errs error
	for i, slot := range p {
		if err := slot.Validate(); err != nil {
			for _, inner := range multierr.Errors(err) {
				errs = multierr.Append(errs, fmt.Errorf("slots[%d]: %w", i, inner))
			}
		}
	}
	return errs
}

// Value implements driver.Valuer.
func (p PresetSlots) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner and validates the stored shape.
func (p *PresetSlots) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = PresetSlots{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("preset slots: unsupported Scan type %T", value)
	}

	var decoded PresetSlots
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlots, err)
	}
	if err := decoded.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlots, err)
	}
	if decoded == nil {
		decoded = PresetSlots{}
	}
	*p = decoded
	return nil
}
