package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShippingCompany owns zero or more warehouses.
type ShippingCompany struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt int64     `gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64     `gorm:"column:updated_at;autoUpdateTime:milli"`
}

func (ShippingCompany) TableName() string { return "shipping_companies" }

func (c *ShippingCompany) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
