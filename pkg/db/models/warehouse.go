package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Warehouse is a shipping company location; rate types are scoped to it.
type Warehouse struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"column:company_id;type:uuid;not null;index:warehouses_company_id_idx"`
	Name      string    `gorm:"column:name;not null"`
	Country   string    `gorm:"column:country"`
	City      string    `gorm:"column:city"`
	Address   string    `gorm:"column:address"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt int64     `gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64     `gorm:"column:updated_at;autoUpdateTime:milli"`
}

func (w *Warehouse) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
