package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/pkg/enums"
)

// Factory is a supplier whose cost items are denominated in Currency.
type Factory struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Currency  enums.Currency `gorm:"column:currency;not null"`
	IsActive  bool           `gorm:"column:is_active;not null"`
	CreatedAt int64          `gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64          `gorm:"column:updated_at;autoUpdateTime:milli"`
}

func (f *Factory) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
