package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/pkg/types"
)

// Preset is a saved, replayable factory and cost item configuration.
type Preset struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	Slots     types.PresetSlots `gorm:"column:slots;type:jsonb;not null"`
	SortOrder int               `gorm:"column:sort_order;not null"`
	CreatedAt int64             `gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt int64             `gorm:"column:updated_at;autoUpdateTime:milli"`
}

func (p *Preset) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
