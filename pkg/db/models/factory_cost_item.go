package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FactoryCostItem is an itemized factory-side cost in the owning factory's currency.
type FactoryCostItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	FactoryID uuid.UUID       `gorm:"column:factory_id;type:uuid;not null;index:factory_cost_items_factory_id_idx"`
	Name      string          `gorm:"column:name;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	SortOrder int             `gorm:"column:sort_order;not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null"`
	CreatedAt int64           `gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64           `gorm:"column:updated_at;autoUpdateTime:milli"`
}

func (i *FactoryCostItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
