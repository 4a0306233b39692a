package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateBracket is one row of a rate type's freight table. UpperBoundCBM is inclusive.
type RateBracket struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RateTypeID    uuid.UUID       `gorm:"column:rate_type_id;type:uuid;not null;uniqueIndex:rate_brackets_rate_type_bound_key"`
	UpperBoundCBM decimal.Decimal `gorm:"column:upper_bound_cbm;type:numeric(12,4);not null;uniqueIndex:rate_brackets_rate_type_bound_key"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	CreatedAt     int64           `gorm:"column:created_at;autoCreateTime:milli"`
}

func (b *RateBracket) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
