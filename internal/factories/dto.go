package factories

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/landedcost/pkg/db/models"
	"github.com/angelmondragon/landedcost/pkg/enums"
)

// FactoryDTO exposes a factory.
type FactoryDTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Currency  enums.Currency `json:"currency"`
	IsActive  bool           `json:"isActive"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
}

// CostItemDTO exposes a factory cost item; Amount is in the factory currency.
type CostItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	FactoryID uuid.UUID       `json:"factoryId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	SortOrder int             `json:"sortOrder"`
	IsActive  bool            `json:"isActive"`
	CreatedAt int64           `json:"createdAt"`
	UpdatedAt int64           `json:"updatedAt"`
}

// FactoryWithItems bundles a factory and the cost items loaded with it.
type FactoryWithItems struct {
	Factory FactoryDTO    `json:"factory"`
	Items   []CostItemDTO `json:"items"`
}

// CreateFactoryInput captures the fields accepted for a new factory.
type CreateFactoryInput struct {
	Name     string
	Currency enums.Currency
}

// UpdateFactoryInput is a partial update; nil fields are left untouched.
type UpdateFactoryInput struct {
	Name     *string
	Currency *enums.Currency
	IsActive *bool
}

// CreateCostItemInput captures the fields accepted for a new cost item.
type CreateCostItemInput struct {
	FactoryID uuid.UUID
	Name      string
	Amount    decimal.Decimal
	SortOrder *int
}

// UpdateCostItemInput is a partial update; nil fields are left untouched.
type UpdateCostItemInput struct {
	Name      *string
	Amount    *decimal.Decimal
	SortOrder *int
	IsActive  *bool
}

func FactoryFromModel(m *models.Factory) FactoryDTO {
	return FactoryDTO{
		ID:        m.ID,
		Name:      m.Name,
		Currency:  m.Currency,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func CostItemFromModel(m *models.FactoryCostItem) CostItemDTO {
	return CostItemDTO{
		ID:        m.ID,
		FactoryID: m.FactoryID,
		Name:      m.Name,
		Amount:    m.Amount,
		SortOrder: m.SortOrder,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
