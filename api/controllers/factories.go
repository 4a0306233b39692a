package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/api/responses"
	"github.com/angelmondragon/landedcost/api/validators"
	"github.com/angelmondragon/landedcost/internal/factories"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

type createFactoryPayload struct {
	Name     string `json:"name" validate:"required,max=120"`
	Currency string `json:"currency" validate:"required"`
}

type updateFactoryPayload struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Currency *string `json:"currency"`
	IsActive *bool   `json:"isActive"`
}

type createCostItemPayload struct {
	Name      string          `json:"name" validate:"required,max=120"`
	Amount    decimal.Decimal `json:"amount"`
	SortOrder *int            `json:"sortOrder" validate:"omitempty,gte=0"`
}

type updateCostItemPayload struct {
	Name      *string          `json:"name" validate:"omitempty,max=120"`
	Amount    *decimal.Decimal `json:"amount"`
	SortOrder *int             `json:"sortOrder" validate:"omitempty,gte=0"`
	IsActive  *bool            `json:"isActive"`
}

func FactoriesList(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.ListFactories(ctx, includeInactive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FactoriesGet returns a factory with its active cost items.
func FactoriesGet(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "factoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		factory, err := svc.LoadWithItems(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, factory)
	}
}

func FactoriesCreate(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createFactoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cur, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}
		factory, err := svc.CreateFactory(ctx, factories.CreateFactoryInput{
			Name:     validators.SanitizeString(payload.Name, 120),
			Currency: cur,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, factory)
	}
}

func FactoriesUpdate(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "factoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateFactoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input := factories.UpdateFactoryInput{Name: payload.Name, IsActive: payload.IsActive}
		if payload.Currency != nil {
			cur, err := enums.ParseCurrency(*payload.Currency)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
				return
			}
			input.Currency = &cur
		}
		factory, err := svc.UpdateFactory(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, factory)
	}
}

// FactoriesDelete deactivates the factory; ?hard=true removes it with its items.
func FactoriesDelete(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "factoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		hard, err := validators.ParseQueryBool(r, "hard", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteFactory(ctx, id, hard); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func FactoryItemsList(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "factoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		items, err := svc.ListItems(ctx, id, includeInactive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func FactoryItemsCreate(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParseUUIDParam(r, "factoryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload createCostItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, err := svc.CreateItem(ctx, factories.CreateCostItemInput{
			FactoryID: id,
			Name:      validators.SanitizeString(payload.Name, 120),
			Amount:    payload.Amount,
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func FactoryItemsUpdate(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateCostItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, err := svc.UpdateItem(ctx, itemID, factories.UpdateCostItemInput{
			Name:      payload.Name,
			Amount:    payload.Amount,
			SortOrder: payload.SortOrder,
			IsActive:  payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func FactoryItemsDelete(svc factories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		hard, err := validators.ParseQueryBool(r, "hard", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteItem(ctx, itemID, hard); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
