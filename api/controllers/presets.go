package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/landedcost/api/responses"
	"github.com/angelmondragon/landedcost/api/validators"
	"github.com/angelmondragon/landedcost/internal/presets"
	"github.com/angelmondragon/landedcost/pkg/logger"
	"github.com/angelmondragon/landedcost/pkg/types"
)

type createPresetPayload struct {
	Name  string            `json:"name" validate:"required,max=120"`
	Slots types.PresetSlots `json:"slots"`
}

type updatePresetPayload struct {
	Name      *string            `json:"name" validate:"omitempty,max=120"`
	Slots     *types.PresetSlots `json:"slots"`
	SortOrder *int               `json:"sortOrder" validate:"omitempty,gte=0"`
}

type reorderPresetsPayload struct {
	IDs []uuid.UUID `json:"ids" validate:"required"`
}

func PresetsList(svc presets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func PresetsGet(svc presets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "presetId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		preset, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, preset)
	}
}

// PresetsCreate saves a new preset; the eleventh one is rejected with 409.
func PresetsCreate(svc presets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createPresetPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		preset, err := svc.Create(ctx, presets.CreateInput{
			Name:  validators.SanitizeString(payload.Name, 120),
			Slots: payload.Slots,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, preset)
	}
}

func PresetsUpdate(svc presets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "presetId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updatePresetPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		preset, err := svc.Update(ctx, id, presets.UpdateInput{
			Name:      payload.Name,
			Slots:     payload.Slots,
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, preset)
	}
}

func PresetsDelete(svc presets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "presetId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Remove(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func PresetsReorder(svc presets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload reorderPresetsPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.Reorder(ctx, payload.IDs)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
