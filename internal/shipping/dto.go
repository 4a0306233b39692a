package shipping

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/internal/volumetric"
	"github.com/angelmondragon/landedcost/pkg/db/models"
	"github.com/angelmondragon/landedcost/pkg/enums"
)

// CompanyDTO exposes a shipping company.
type CompanyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// WarehouseDTO exposes a shipping company warehouse.
type WarehouseDTO struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"companyId"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	City      string    `json:"city,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// Bracket is one inclusive upper bound of a freight table with its per-CBM price.
type Bracket struct {
	UpperBoundCBM decimal.Decimal `json:"upperBoundCbm"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
}

// RateTypeDTO exposes a rate type together with its freight table.
type RateTypeDTO struct {
	ID           uuid.UUID       `json:"id"`
	CompanyID    uuid.UUID       `json:"companyId"`
	WarehouseID  uuid.UUID       `json:"warehouseId"`
	Name         string          `json:"name"`
	Currency     enums.Currency  `json:"currency"`
	UnitType     enums.UnitType  `json:"unitType"`
	IsDefault    bool            `json:"isDefault"`
	RoundingUnit decimal.Decimal `json:"roundingUnit"`
	SortOrder    int             `json:"sortOrder"`
	IsActive     bool            `json:"isActive"`
	Brackets     []Bracket       `json:"brackets"`
	CreatedAt    int64           `json:"createdAt"`
	UpdatedAt    int64           `json:"updatedAt"`
}

// CreateRateTypeDTO holds creation-time data for a rate type and its brackets.
type CreateRateTypeDTO struct {
	WarehouseID  uuid.UUID
	Name         string
	Currency     enums.Currency
	UnitType     *enums.UnitType
	IsDefault    bool
	RoundingUnit *decimal.Decimal
	SortOrder    int
	Brackets     []Bracket
}

func CompanyFromModel(m *models.ShippingCompany) CompanyDTO {
	return CompanyDTO{
		ID:        m.ID,
		Name:      m.Name,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func WarehouseFromModel(m *models.Warehouse) WarehouseDTO {
	return WarehouseDTO{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		Name:      m.Name,
		Country:   m.Country,
		City:      m.City,
		Address:   m.Address,
		IsActive:  m.IsActive,
		SortOrder: m.SortOrder,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// RateTypeFromModel maps the persisted rate type; brackets come back sorted by upper bound.
func RateTypeFromModel(m *models.RateType) RateTypeDTO {
	dto := RateTypeDTO{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		WarehouseID:  m.WarehouseID,
		Name:         m.Name,
		Currency:     m.Currency,
		UnitType:     m.UnitType,
		IsDefault:    m.IsDefault,
		RoundingUnit: m.RoundingUnit,
		SortOrder:    m.SortOrder,
		IsActive:     m.IsActive,
		Brackets:     make([]Bracket, 0, len(m.Brackets)),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, b := range m.Brackets {
		dto.Brackets = append(dto.Brackets, Bracket{UpperBoundCBM: b.UpperBoundCBM, UnitPrice: b.UnitPrice})
	}
	dto.Brackets = sortedBrackets(dto.Brackets)
	return dto
}

// ToModel prepares the GORM model, supplying the cbm unit and default granularity.
func (c CreateRateTypeDTO) ToModel(companyID uuid.UUID) *models.RateType {
	model := &models.RateType{
		CompanyID:    companyID,
		WarehouseID:  c.WarehouseID,
		Name:         c.Name,
		Currency:     c.Currency,
		UnitType:     enums.UnitTypeCBM,
		IsDefault:    c.IsDefault,
		RoundingUnit: volumetric.DefaultGranularity,
		SortOrder:    c.SortOrder,
		IsActive:     true,
	}
	if c.UnitType != nil {
		model.UnitType = *c.UnitType
	}
	if c.RoundingUnit != nil {
		model.RoundingUnit = *c.RoundingUnit
	}
	for _, b := range c.Brackets {
		model.Brackets = append(model.Brackets, models.RateBracket{UpperBoundCBM: b.UpperBoundCBM, UnitPrice: b.UnitPrice})
	}
	return model
}
