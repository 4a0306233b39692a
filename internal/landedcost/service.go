package landedcost

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/internal/currency"
	"github.com/angelmondragon/landedcost/internal/factories"
	"github.com/angelmondragon/landedcost/internal/presets"
	"github.com/angelmondragon/landedcost/internal/shipping"
	"github.com/angelmondragon/landedcost/internal/volumetric"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
	"github.com/angelmondragon/landedcost/pkg/metrics"
	"github.com/angelmondragon/landedcost/pkg/types"
)

const (
	originCompute = "compute"
	originReplay  = "replay"
)

type factoryLoader interface {
	LoadWithItems(ctx context.Context, factoryID uuid.UUID) (*factories.FactoryWithItems, error)
}

type rateTypeResolver interface {
	ResolveRateType(ctx context.Context, warehouseID uuid.UUID, rateTypeID *uuid.UUID) (*shipping.RateTypeDTO, error)
}

type snapshotSource interface {
	Current(ctx context.Context) (*currency.Snapshot, bool, error)
}

type presetGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*presets.PresetDTO, error)
}

// ShipmentInput is what the user enters for the shipment itself.
type ShipmentInput struct {
	Dimensions     volumetric.Dimensions
	WarehouseID    uuid.UUID
	RateTypeID     *uuid.UUID
	TargetCurrency enums.Currency
}

// Request asks for one breakdown. CostValues override item amounts by item id.
type Request struct {
	Shipment        ShipmentInput
	FactoryID       uuid.UUID
	SelectedItemIDs []string
	CostValues      types.CostValues
}

// SlotBreakdown is the breakdown of one preset slot.
type SlotBreakdown struct {
	Index     int              `json:"index"`
	FactoryID string           `json:"factoryId"`
	Breakdown CostBreakdown    `json:"breakdown"`
	Display   DisplayBreakdown `json:"display"`
}

// ReplayResult holds every slot breakdown of a preset, all computed on one snapshot.
type ReplayResult struct {
	PresetID          uuid.UUID        `json:"presetId"`
	Mode              enums.ReplayMode `json:"mode"`
	Slots             []SlotBreakdown  `json:"slots"`
	SnapshotFetchedAt *time.Time       `json:"snapshotFetchedAt,omitempty"`
	Stale             bool             `json:"stale"`
}

// ServiceParams groups the collaborators of the landed cost service.
type ServiceParams struct {
	Factories factoryLoader
	RateTypes rateTypeResolver
	Rates     snapshotSource
	Presets   presetGetter
	Metrics   *metrics.BreakdownMetrics
	Logger    *logger.Logger
}

// Service loads stored records, captures one snapshot and runs Aggregate.
type Service struct {
	factories factoryLoader
	rateTypes rateTypeResolver
	rates     snapshotSource
	presets   presetGetter
	metrics   *metrics.BreakdownMetrics
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Factories == nil:
		return nil, fmt.Errorf("factory loader required")
	case params.RateTypes == nil:
		return nil, fmt.Errorf("rate type resolver required")
	case params.Rates == nil:
		return nil, fmt.Errorf("exchange rate source required")
	case params.Presets == nil:
		return nil, fmt.Errorf("preset source required")
	}
	return &Service{
		factories: params.Factories,
		rateTypes: params.RateTypes,
		rates:     params.Rates,
		presets:   params.Presets,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Compute returns the breakdown for one factory selection.
func (s *Service) Compute(ctx context.Context, req Request) (*CostBreakdown, error) {
	if s.logg != nil {
		ctx = s.logg.WithFactoryID(ctx, req.FactoryID.String())
	}
	rateType, err := s.rateTypes.ResolveRateType(ctx, req.Shipment.WarehouseID, req.Shipment.RateTypeID)
	if err != nil {
		return nil, err
	}
	factory, err := s.factories.LoadWithItems(ctx, req.FactoryID)
	if err != nil {
		return nil, err
	}
	snap, stale := s.snapshot(ctx)

	slot := types.PresetSlot{FactoryID: req.FactoryID.String(), SelectedItemIDs: req.SelectedItemIDs, CostValues: req.CostValues}
	breakdown, err := Aggregate(buildInput(req.Shipment, *rateType, slot, factory, true), snap)
	if err != nil {
		return nil, err
	}
	breakdown.Stale = stale
	s.metrics.IncComputed(breakdown.Status.String(), originCompute)
	return &breakdown, nil
}

// Replay computes one breakdown per preset slot. In as_saved mode slot overrides win
// and selected items without one use the current amount; live mode ignores overrides.
// A slot whose factory is gone is reported without failing the others.
func (s *Service) Replay(ctx context.Context, presetID uuid.UUID, shipment ShipmentInput, mode enums.ReplayMode) (*ReplayResult, error) {
	if mode == "" {
		mode = enums.ReplayModeAsSaved
	}
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid replay mode %q", mode))
	}
	if s.logg != nil {
		ctx = s.logg.WithPresetID(ctx, presetID.String())
	}

	preset, err := s.presets.Get(ctx, presetID)
	if err != nil {
		return nil, err
	}
	rateType, err := s.rateTypes.ResolveRateType(ctx, shipment.WarehouseID, shipment.RateTypeID)
	if err != nil {
		return nil, err
	}
	snap, stale := s.snapshot(ctx)

	result := &ReplayResult{PresetID: preset.ID, Mode: mode, Slots: make([]SlotBreakdown, 0, len(preset.Slots)), Stale: stale}
	if snap != nil {
		at := snap.FetchedAt()
		result.SnapshotFetchedAt = &at
	}
	for i, slot := range preset.Slots {
		factory, err := s.loadSlotFactory(ctx, slot.FactoryID)
		if err != nil {
			return nil, err
		}
		breakdown, err := Aggregate(buildInput(shipment, *rateType, slot, factory, mode == enums.ReplayModeAsSaved), snap)
		if err != nil {
			return nil, err
		}
		breakdown.Stale = stale
		s.metrics.IncComputed(breakdown.Status.String(), originReplay)
		result.Slots = append(result.Slots, SlotBreakdown{
			Index:     i,
			FactoryID: slot.FactoryID,
			Breakdown: breakdown,
			Display:   breakdown.Display(),
		})
	}
	return result, nil
}

// snapshot captures the snapshot for one computation. Without one, conversions are
// reported unavailable rather than failing the request.
func (s *Service) snapshot(ctx context.Context) (*currency.Snapshot, bool) {
	snap, stale, err := s.rates.Current(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "exchange rate snapshot unavailable")
		}
		return nil, false
	}
	return snap, stale
}

// loadSlotFactory returns nil, nil when the slot's factory no longer exists.
func (s *Service) loadSlotFactory(ctx context.Context, rawID string) (*factories.FactoryWithItems, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, nil
	}
	factory, err := s.factories.LoadWithItems(ctx, id)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return factory, nil
}

// buildInput turns a selection into aggregation input. Selections keep the factory's
// item order. Selected ids that are no longer active items count only when a saved
// value is applied for them; otherwise they are listed as missing.
func buildInput(shipment ShipmentInput, rateType shipping.RateTypeDTO, slot types.PresetSlot, factory *factories.FactoryWithItems, applySaved bool) Input {
	in := Input{
		Dimensions:     shipment.Dimensions,
		RateType:       rateType,
		FactoryID:      slot.FactoryID,
		TargetCurrency: shipment.TargetCurrency,
	}
	if factory == nil {
		return in
	}

	costs := &FactoryCosts{Currency: factory.Factory.Currency, Lines: []CostLine{}}
	known := make(map[string]struct{}, len(factory.Items))
	for _, item := range factory.Items {
		id := item.ID.String()
		known[id] = struct{}{}
		if !slot.IsSelected(id) {
			continue
		}
		line := CostLine{ItemID: id, Name: item.Name, Amount: item.Amount}
		if saved, ok := slot.CostValues[id]; ok && applySaved {
			line.Amount = decimal.NewFromFloat(saved)
			line.Overridden = true
		}
		costs.Lines = append(costs.Lines, line)
	}
	for _, id := range slot.SelectedItemIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if saved, ok := slot.CostValues[id]; ok && applySaved {
			costs.Lines = append(costs.Lines, CostLine{ItemID: id, Amount: decimal.NewFromFloat(saved), Overridden: true})
			continue
		}
		costs.MissingItemIDs = append(costs.MissingItemIDs, id)
	}
	in.Factory = costs
	return in
}
