package presets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/pkg/db/models"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
	"github.com/angelmondragon/landedcost/pkg/types"
)

// MaxPresets is the system-wide preset cap.
const MaxPresets = 10

type presetRepository interface {
	List(ctx context.Context) ([]models.Preset, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Preset, error)
	CreateWithinCapacity(ctx context.Context, preset *models.Preset, capacity int) error
	Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Preset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, ids []uuid.UUID) error
}

// Service manages the bounded, ordered preset collection.
type Service interface {
	List(ctx context.Context) ([]PresetDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*PresetDTO, error)
	Create(ctx context.Context, input CreateInput) (*PresetDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PresetDTO, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, ids []uuid.UUID) ([]PresetDTO, error)
}

type service struct {
	repo presetRepository
	logg *logger.Logger
}

// NewService builds a preset service with the provided repository.
func NewService(repo presetRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("preset repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]PresetDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list presets")
	}
	out := make([]PresetDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PresetDTO, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storageError(err)
	}
	dto := FromModel(row)
	return &dto, nil
}

// Create rejects the request once MaxPresets presets exist; nothing is written then.
func (s *service) Create(ctx context.Context, input CreateInput) (*PresetDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slots := input.Slots
	if slots == nil {
		slots = types.PresetSlots{}
	}
	if err := slots.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slots").WithDetails(err.Error())
	}

	model := &models.Preset{Name: name, Slots: slots}
	if err := s.repo.CreateWithinCapacity(ctx, model, MaxPresets); err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "max_presets", MaxPresets), "preset capacity reached")
			}
			return nil, pkgerrors.New(pkgerrors.CodeCapacityExceeded, fmt.Sprintf("at most %d presets can be saved", MaxPresets))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create preset")
	}

	if s.logg != nil {
		ctx = s.logg.WithPresetID(ctx, model.ID.String())
		s.logg.Info(s.logg.WithField(ctx, "sort_order", model.SortOrder), "preset created")
	}
	dto := FromModel(model)
	return &dto, nil
}

// Update changes only the provided fields.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PresetDTO, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		fields["name"] = name
	}
	if input.Slots != nil {
		slots := *input.Slots
		if slots == nil {
			slots = types.PresetSlots{}
		}
		if err := slots.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid slots").WithDetails(err.Error())
		}
		fields["slots"] = slots
	}
	if input.SortOrder != nil {
		if *input.SortOrder < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sortOrder must not be negative")
		}
		fields["sort_order"] = *input.SortOrder
	}

	row, err := s.repo.Patch(ctx, id, fields)
	if err != nil {
		return nil, storageError(err)
	}
	dto := FromModel(row)
	return &dto, nil
}

// Remove deletes the preset permanently.
func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithPresetID(ctx, id.String()), "preset removed")
	}
	return nil
}

// Reorder rewrites sort orders to follow ids and returns the new listing.
func (s *service) Reorder(ctx context.Context, ids []uuid.UUID) ([]PresetDTO, error) {
	if err := s.repo.Reorder(ctx, ids); err != nil {
		if errors.Is(err, ErrOrderMismatch) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "ids must list every preset exactly once")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reorder presets")
	}
	return s.List(ctx)
}

func storageError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "preset not found")
	}
	if errors.Is(err, types.ErrInvalidSlots) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored preset is invalid")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preset")
}
