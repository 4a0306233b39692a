package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/landedcost/api/responses"
	"github.com/angelmondragon/landedcost/api/validators"
	"github.com/angelmondragon/landedcost/internal/landedcost"
	"github.com/angelmondragon/landedcost/internal/volumetric"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
	"github.com/angelmondragon/landedcost/pkg/types"
)

// LandedCostService is implemented by landedcost.Service.
type LandedCostService interface {
	Compute(ctx context.Context, req landedcost.Request) (*landedcost.CostBreakdown, error)
	Replay(ctx context.Context, presetID uuid.UUID, shipment landedcost.ShipmentInput, mode enums.ReplayMode) (*landedcost.ReplayResult, error)
}

type shipmentPayload struct {
	Dimensions     volumetric.Dimensions `json:"dimensions"`
	WarehouseID    string                `json:"warehouseId" validate:"required,uuid"`
	RateTypeID     *string               `json:"rateTypeId" validate:"omitempty,uuid"`
	TargetCurrency string                `json:"targetCurrency" validate:"required"`
}

type computePayload struct {
	shipmentPayload
	FactoryID       string           `json:"factoryId" validate:"required,uuid"`
	SelectedItemIDs []string         `json:"selectedItemIds" validate:"dive,required"`
	CostValues      types.CostValues `json:"costValues"`
}

type replayPayload struct {
	shipmentPayload
	Mode string `json:"mode" validate:"omitempty,oneof=as_saved live"`
}

type computeResponse struct {
	Breakdown *landedcost.CostBreakdown   `json:"breakdown"`
	Display   landedcost.DisplayBreakdown `json:"display"`
}

func (p shipmentPayload) toInput() (landedcost.ShipmentInput, error) {
	target, err := enums.ParseCurrency(p.TargetCurrency)
	if err != nil {
		return landedcost.ShipmentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid targetCurrency")
	}
	warehouseID, err := parseUUIDField("warehouseId", p.WarehouseID)
	if err != nil {
		return landedcost.ShipmentInput{}, err
	}
	input := landedcost.ShipmentInput{
		Dimensions:     p.Dimensions,
		WarehouseID:    warehouseID,
		TargetCurrency: target,
	}
	if p.RateTypeID != nil {
		id, err := parseUUIDField("rateTypeId", *p.RateTypeID)
		if err != nil {
			return landedcost.ShipmentInput{}, err
		}
		input.RateTypeID = &id
	}
	return input, nil
}

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	return id, nil
}

// LandedCostCompute returns the breakdown for one factory selection and shipment.
func LandedCostCompute(svc LandedCostService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload computePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		shipment, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		factoryID, err := parseUUIDField("factoryId", payload.FactoryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		breakdown, err := svc.Compute(ctx, landedcost.Request{
			Shipment:        shipment,
			FactoryID:       factoryID,
			SelectedItemIDs: payload.SelectedItemIDs,
			CostValues:      payload.CostValues,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, computeResponse{Breakdown: breakdown, Display: breakdown.Display()})
	}
}

// PresetsReplay computes every slot of a preset against one snapshot.
func PresetsReplay(svc LandedCostService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		presetID, err := validators.ParseUUIDParam(r, "presetId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload replayPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		shipment, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		mode, err := enums.ParseReplayMode(payload.Mode)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mode"))
			return
		}
		result, err := svc.Replay(ctx, presetID, shipment, mode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
