package presets

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/landedcost/pkg/db/models"
	"github.com/angelmondragon/landedcost/pkg/types"
)

// PresetDTO exposes a saved preset.
type PresetDTO struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Slots     types.PresetSlots `json:"slots"`
	SortOrder int               `json:"sortOrder"`
	CreatedAt int64             `json:"createdAt"`
	UpdatedAt int64             `json:"updatedAt"`
}

// CreateInput captures the fields accepted for a new preset.
type CreateInput struct {
	Name  string
	Slots types.PresetSlots
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name      *string
	Slots     *types.PresetSlots
	SortOrder *int
}

func FromModel(m *models.Preset) PresetDTO {
	slots := m.Slots
	if slots == nil {
		slots = types.PresetSlots{}
	}
	return PresetDTO{
		ID:        m.ID,
		Name:      m.Name,
		Slots:     slots,
		SortOrder: m.SortOrder,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
