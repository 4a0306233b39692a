package factories

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
)

type factoryRepository interface {
	ListFactories(ctx context.Context, active *bool) ([]models.Factory, error)
	GetFactory(ctx context.Context, id uuid.UUID) (*models.Factory, error)
	CreateFactory(ctx context.Context, factory *models.Factory) error
	PatchFactory(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Factory, error)
	SoftDeleteFactory(ctx context.Context, id uuid.UUID) error
	DeleteFactory(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, factoryID uuid.UUID, active *bool) ([]models.FactoryCostItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.FactoryCostItem, error)
	CreateItem(ctx context.Context, item *models.FactoryCostItem) error
	PatchItem(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.FactoryCostItem, error)
	SoftDeleteItem(ctx context.Context, id uuid.UUID) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	MaxItemSortOrder(ctx context.Context, factoryID uuid.UUID) (int, error)
}

// Service exposes factory and cost item operations.
type Service interface {
	ListFactories(ctx context.Context, includeInactive bool) ([]FactoryDTO, error)
	GetFactory(ctx context.Context, id uuid.UUID) (*FactoryDTO, error)
	CreateFactory(ctx context.Context, input CreateFactoryInput) (*FactoryDTO, error)
	UpdateFactory(ctx context.Context, id uuid.UUID, input UpdateFactoryInput) (*FactoryDTO, error)
	DeleteFactory(ctx context.Context, id uuid.UUID, hard bool) error
	ListItems(ctx context.Context, factoryID uuid.UUID, includeInactive bool) ([]CostItemDTO, error)
	CreateItem(ctx context.Context, input CreateCostItemInput) (*CostItemDTO, error)
	UpdateItem(ctx context.Context, id uuid.UUID, input UpdateCostItemInput) (*CostItemDTO, error)
	DeleteItem(ctx context.Context, id uuid.UUID, hard bool) error
	LoadWithItems(ctx context.Context, factoryID uuid.UUID) (*FactoryWithItems, error)
}

type service struct {
	repo factoryRepository
	logg *logger.Logger
}

// NewService builds a factory service with the provided repository.
func NewService(repo factoryRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("factory repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func activeFilter(includeInactive bool) *bool {
	if includeInactive {
		return nil
	}
	active := true
	return &active
}

func (s *service) ListFactories(ctx context.Context, includeInactive bool) ([]FactoryDTO, error) {
	rows, err := s.repo.ListFactories(ctx, activeFilter(includeInactive))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list factories")
	}
	out := make([]FactoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FactoryFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetFactory(ctx context.Context, id uuid.UUID) (*FactoryDTO, error) {
	row, err := s.repo.GetFactory(ctx, id)
	if err != nil {
		return nil, storageError(err, "factory")
	}
	dto := FactoryFromModel(row)
	return &dto, nil
}

func (s *service) CreateFactory(ctx context.Context, input CreateFactoryInput) (*FactoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", input.Currency))
	}
	factory := &models.Factory{Name: name, Currency: input.Currency, IsActive: true}
	if err := s.repo.CreateFactory(ctx, factory); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create factory")
	}
	dto := FactoryFromModel(factory)
	return &dto, nil
}

func (s *service) UpdateFactory(ctx context.Context, id uuid.UUID, input UpdateFactoryInput) (*FactoryDTO, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		fields["name"] = name
	}
	if input.Currency != nil {
		if !input.Currency.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", *input.Currency))
		}
		fields["currency"] = *input.Currency
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	row, err := s.repo.PatchFactory(ctx, id, fields)
	if err != nil {
		return nil, storageError(err, "factory")
	}
	dto := FactoryFromModel(row)
	return &dto, nil
}

func (s *service) DeleteFactory(ctx context.Context, id uuid.UUID, hard bool) error {
	var err error
	if hard {
		err = s.repo.DeleteFactory(ctx, id)
	} else {
		err = s.repo.SoftDeleteFactory(ctx, id)
	}
	if err != nil {
		return storageError(err, "factory")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(s.logg.WithFactoryID(ctx, id.String()), map[string]any{"hard": hard}), "factory deleted")
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, factoryID uuid.UUID, includeInactive bool) ([]CostItemDTO, error) {
	if _, err := s.repo.GetFactory(ctx, factoryID); err != nil {
		return nil, storageError(err, "factory")
	}
	rows, err := s.repo.ListItems(ctx, factoryID, activeFilter(includeInactive))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cost items")
	}
	return itemsFromModels(rows), nil
}

func (s *service) CreateItem(ctx context.Context, input CreateCostItemInput) (*CostItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if _, err := s.repo.GetFactory(ctx, input.FactoryID); err != nil {
		return nil, storageError(err, "factory")
	}

	sortOrder := 0
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	} else {
		highest, err := s.repo.MaxItemSortOrder(ctx, input.FactoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cost item sort order")
		}
		sortOrder = highest + 1
	}

	item := &models.FactoryCostItem{
		FactoryID: input.FactoryID,
		Name:      name,
		Amount:    input.Amount,
		SortOrder: sortOrder,
		IsActive:  true,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cost item")
	}
	dto := CostItemFromModel(item)
	return &dto, nil
}

func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, input UpdateCostItemInput) (*CostItemDTO, error) {
	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		fields["name"] = name
	}
	if input.Amount != nil {
		if input.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
		}
		fields["amount"] = *input.Amount
	}
	if input.SortOrder != nil {
		fields["sort_order"] = *input.SortOrder
	}
	if input.IsActive != nil {
		fields["is_active"] = *input.IsActive
	}
	row, err := s.repo.PatchItem(ctx, id, fields)
	if err != nil {
		return nil, storageError(err, "cost item")
	}
	dto := CostItemFromModel(row)
	return &dto, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID, hard bool) error {
	var err error
	if hard {
		err = s.repo.DeleteItem(ctx, id)
	} else {
		err = s.repo.SoftDeleteItem(ctx, id)
	}
	if err != nil {
		return storageError(err, "cost item")
	}
	return nil
}

// LoadWithItems returns the factory and its active cost items.
func (s *service) LoadWithItems(ctx context.Context, factoryID uuid.UUID) (*FactoryWithItems, error) {
	factory, err := s.repo.GetFactory(ctx, factoryID)
	if err != nil {
		return nil, storageError(err, "factory")
	}
	active := true
	rows, err := s.repo.ListItems(ctx, factoryID, &active)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cost items")
	}
	return &FactoryWithItems{Factory: FactoryFromModel(factory), Items: itemsFromModels(rows)}, nil
}

func itemsFromModels(rows []models.FactoryCostItem) []CostItemDTO {
	out := make([]CostItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, CostItemFromModel(&rows[i]))
	}
	return out
}

func storageError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
