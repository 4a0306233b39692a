package currency

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/angelmondragon/landedcost/pkg/enums"
)

// HistoryWindow is the number of trailing daily rates kept on a snapshot.
const HistoryWindow = 5

// ErrConversionUnavailable marks a conversion that cannot be performed with the snapshot at hand.
var ErrConversionUnavailable = errors.New("conversion unavailable")

// DailyRate is one entry of the trailing rate history.
type DailyRate struct {
	Date     time.Time      `json:"date"`
	Currency enums.Currency `json:"currency"`
	Rate     float64        `json:"rate"`
}

// Snapshot is an immutable set of base rates captured at FetchedAt. Every rate
// expresses the value of one unit of a currency in the reference currency.
// History is chronological: oldest first, most recent last.
type Snapshot struct {
	reference enums.Currency
	rates     map[enums.Currency]float64
	history   []DailyRate
	fetchedAt time.Time
}

// NewSnapshot validates and copies its inputs. The reference currency always has rate 1
// and must not appear in rates with a different value.
func NewSnapshot(reference enums.Currency, rates map[enums.Currency]float64, history []DailyRate, fetchedAt time.Time) (*Snapshot, error) {
	if !reference.IsValid() {
		return nil, fmt.Errorf("invalid reference currency %q", reference)
	}
	copied := make(map[enums.Currency]float64, len(rates))
	for c, rate := range rates {
		if !c.IsValid() {
			return nil, fmt.Errorf("invalid currency %q", c)
		}
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			return nil, fmt.Errorf("rate for %s must be a positive number", c)
		}
		if c == reference {
			if rate != 1 {
				return nil, fmt.Errorf("reference currency %s must have rate 1, got %v", c, rate)
			}
			continue
		}
		copied[c] = rate
	}
	return &Snapshot{
		reference: reference,
		rates:     copied,
		history:   NormalizeHistory(history),
		fetchedAt: fetchedAt.UTC(),
	}, nil
}

func (s *Snapshot) Reference() enums.Currency { return s.reference }

func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Rates returns a copy of the non-reference base rates.
func (s *Snapshot) Rates() map[enums.Currency]float64 {
	out := make(map[enums.Currency]float64, len(s.rates))
	for c, r := range s.rates {
		out[c] = r
	}
	return out
}

// History returns a copy of the trailing history, oldest first.
func (s *Snapshot) History() []DailyRate {
	out := make([]DailyRate, len(s.history))
	copy(out, s.history)
	return out
}

// RateOf returns the base rate of c. A nil snapshot converts nothing.
func (s *Snapshot) RateOf(c enums.Currency) (float64, error) {
	if s == nil {
		return 0, fmt.Errorf("%w: no exchange rate snapshot", ErrConversionUnavailable)
	}
	if c == s.reference {
		return 1, nil
	}
	rate, ok := s.rates[c]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s", ErrConversionUnavailable, c)
	}
	return rate, nil
}

// Convert returns amount × rateOf(from) / rateOf(to). No rounding is applied.
func (s *Snapshot) Convert(amount float64, from, to enums.Currency) (float64, error) {
	fromRate, err := s.RateOf(from)
	if err != nil {
		return 0, err
	}
	if from == to {
		return amount, nil
	}
	toRate, err := s.RateOf(to)
	if err != nil {
		return 0, err
	}
	return amount * (fromRate / toRate), nil
}

// NormalizeHistory sorts entries oldest first and keeps the HistoryWindow most recent.
// Entries with a zero date or a non-positive rate are dropped.
func NormalizeHistory(entries []DailyRate) []DailyRate {
	out := make([]DailyRate, 0, len(entries))
	for _, e := range entries {
		if e.Date.IsZero() || math.IsNaN(e.Rate) || math.IsInf(e.Rate, 0) || e.Rate <= 0 {
			continue
		}
		e.Date = e.Date.UTC()
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	if len(out) > HistoryWindow {
		out = out[len(out)-HistoryWindow:]
	}
	return out
}

type snapshotJSON struct {
	Reference enums.Currency             `json:"reference"`
	Rates     map[enums.Currency]float64 `json:"rates"`
	History   []DailyRate                `json:"history"`
	FetchedAt time.Time                  `json:"fetchedAt"`
}

// MarshalJSON lets snapshots travel through the shared cache and the HTTP surface.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Reference: s.reference,
		Rates:     s.rates,
		History:   s.history,
		FetchedAt: s.fetchedAt,
	})
}

// UnmarshalJSON decodes and re-validates a snapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := NewSnapshot(raw.Reference, raw.Rates, raw.History, raw.FetchedAt)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}
