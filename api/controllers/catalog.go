package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/api/responses"
	"github.com/angelmondragon/landedcost/api/validators"
	"github.com/angelmondragon/landedcost/internal/shipping"
	"github.com/angelmondragon/landedcost/pkg/enums"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

type createCompanyPayload struct {
	Name string `json:"name" validate:"required,max=120"`
}

type createWarehousePayload struct {
	Name      string `json:"name" validate:"required,max=120"`
	Country   string `json:"country" validate:"max=80"`
	City      string `json:"city" validate:"max=80"`
	Address   string `json:"address" validate:"max=255"`
	SortOrder int    `json:"sortOrder" validate:"gte=0"`
}

type bracketPayload struct {
	UpperBoundCBM decimal.Decimal `json:"upperBoundCbm"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

type createRateTypePayload struct {
	Name         string           `json:"name" validate:"required,max=120"`
	Currency     string           `json:"currency" validate:"required"`
	UnitType     *string          `json:"unitType"`
	IsDefault    bool             `json:"isDefault"`
	RoundingUnit *decimal.Decimal `json:"roundingUnit"`
	SortOrder    int              `json:"sortOrder" validate:"gte=0"`
	Brackets     []bracketPayload `json:"brackets" validate:"required,min=1"`
}

func CatalogListCompanies(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		companies, err := svc.ListCompanies(ctx, includeInactive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, companies)
	}
}

func CatalogCreateCompany(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload createCompanyPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		company, err := svc.CreateCompany(ctx, validators.SanitizeString(payload.Name, 120))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, company)
	}
}

func CatalogListWarehouses(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		companyID, err := validators.ParseUUIDParam(r, "companyId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		warehouses, err := svc.ListWarehouses(ctx, companyID, includeInactive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, warehouses)
	}
}

func CatalogCreateWarehouse(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		companyID, err := validators.ParseUUIDParam(r, "companyId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload createWarehousePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		warehouse, err := svc.CreateWarehouse(ctx, shipping.CreateWarehouseInput{
			CompanyID: companyID,
			Name:      validators.SanitizeString(payload.Name, 120),
			Country:   validators.SanitizeString(payload.Country, 80),
			City:      validators.SanitizeString(payload.City, 80),
			Address:   validators.SanitizeString(payload.Address, 255),
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, warehouse)
	}
}

func CatalogListRateTypes(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		warehouseID, err := validators.ParseUUIDParam(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		includeInactive, err := validators.ParseQueryBool(r, "includeInactive", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		rateTypes, err := svc.ListRateTypes(ctx, warehouseID, includeInactive)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rateTypes)
	}
}

// CatalogResolveRateType returns the rate type a computation would use for the warehouse.
func CatalogResolveRateType(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		warehouseID, err := validators.ParseUUIDParam(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var rateTypeID *uuid.UUID
		if raw := r.URL.Query().Get("rateTypeId"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid rateTypeId"))
				return
			}
			rateTypeID = &parsed
		}
		rateType, err := svc.ResolveRateType(ctx, warehouseID, rateTypeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rateType)
	}
}

func CatalogCreateRateType(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		warehouseID, err := validators.ParseUUIDParam(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload createRateTypePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		cur, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}
		input := shipping.CreateRateTypeDTO{
			WarehouseID:  warehouseID,
			Name:         validators.SanitizeString(payload.Name, 120),
			Currency:     cur,
			IsDefault:    payload.IsDefault,
			RoundingUnit: payload.RoundingUnit,
			SortOrder:    payload.SortOrder,
		}
		if payload.UnitType != nil {
			unit, err := enums.ParseUnitType(*payload.UnitType)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unitType"))
				return
			}
			input.UnitType = &unit
		}
		for _, b := range payload.Brackets {
			input.Brackets = append(input.Brackets, shipping.Bracket{UpperBoundCBM: b.UpperBoundCBM, UnitPrice: b.UnitPrice})
		}
		rateType, err := svc.CreateRateType(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rateType)
	}
}
