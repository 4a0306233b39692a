package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/pkg/enums"
)

// RateType is a freight pricing profile scoped to one warehouse.
type RateType struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID    uuid.UUID       `gorm:"column:company_id;type:uuid;not null"`
	WarehouseID  uuid.UUID       `gorm:"column:warehouse_id;type:uuid;not null;index:rate_types_warehouse_id_idx"`
	Name         string          `gorm:"column:name;not null"`
	Currency     enums.Currency  `gorm:"column:currency;not null"`
	UnitType     enums.UnitType  `gorm:"column:unit_type;not null"`
	IsDefault    bool            `gorm:"column:is_default;not null;default:false"`
	RoundingUnit decimal.Decimal `gorm:"column:rounding_unit;type:numeric(10,4);not null"`
	SortOrder    int             `gorm:"column:sort_order;not null;default:0"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	CreatedAt    int64           `gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt    int64           `gorm:"column:updated_at;autoUpdateTime:milli"`
	Brackets     []RateBracket   `gorm:"foreignKey:RateTypeID"`
}

func (r *RateType) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
