package shipping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/pkg/db"
	"github.com/angelmondragon/landedcost/pkg/db/models"
	pkgerrors "github.com/angelmondragon/landedcost/pkg/errors"
	"github.com/angelmondragon/landedcost/pkg/logger"
)

const bracketUniqueConstraint = "rate_brackets_rate_type_bound_key"

type catalogRepository interface {
	ListCompanies(ctx context.Context, active *bool) ([]models.ShippingCompany, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.ShippingCompany, error)
	CreateCompany(ctx context.Context, company *models.ShippingCompany) error
	ListWarehouses(ctx context.Context, companyID uuid.UUID, active *bool) ([]models.Warehouse, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error
	ListRateTypes(ctx context.Context, warehouseID uuid.UUID, active *bool) ([]models.RateType, error)
	GetRateType(ctx context.Context, id uuid.UUID) (*models.RateType, error)
	CreateRateType(ctx context.Context, rateType *models.RateType) error
}

// Service exposes the read side of the rate catalog plus the admin writes that feed it.
type Service interface {
	ListCompanies(ctx context.Context, includeInactive bool) ([]CompanyDTO, error)
	CreateCompany(ctx context.Context, name string) (*CompanyDTO, error)
	ListWarehouses(ctx context.Context, companyID uuid.UUID, includeInactive bool) ([]WarehouseDTO, error)
	CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error)
	ListRateTypes(ctx context.Context, warehouseID uuid.UUID, includeInactive bool) ([]RateTypeDTO, error)
	CreateRateType(ctx context.Context, input CreateRateTypeDTO) (*RateTypeDTO, error)
	ResolveRateType(ctx context.Context, warehouseID uuid.UUID, rateTypeID *uuid.UUID) (*RateTypeDTO, error)
}

// CreateWarehouseInput captures the fields accepted when adding a warehouse.
type CreateWarehouseInput struct {
	CompanyID uuid.UUID
	Name      string
	Country   string
	City      string
	Address   string
	SortOrder int
}

type service struct {
	repo catalogRepository
	logg *logger.Logger
}

// NewService builds the catalog service.
func NewService(repo catalogRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
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

func (s *service) ListCompanies(ctx context.Context, includeInactive bool) ([]CompanyDTO, error) {
	rows, err := s.repo.ListCompanies(ctx, activeFilter(includeInactive))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping companies")
	}
	out := make([]CompanyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, CompanyFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateCompany(ctx context.Context, name string) (*CompanyDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	company := &models.ShippingCompany{Name: name, IsActive: true}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipping company")
	}
	dto := CompanyFromModel(company)
	return &dto, nil
}

func (s *service) ListWarehouses(ctx context.Context, companyID uuid.UUID, includeInactive bool) ([]WarehouseDTO, error) {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, storageError(err, "shipping company")
	}
	rows, err := s.repo.ListWarehouses(ctx, companyID, activeFilter(includeInactive))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	out := make([]WarehouseDTO, 0, len(rows))
	for i := range rows {
		out = append(out, WarehouseFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateWarehouse(ctx context.Context, input CreateWarehouseInput) (*WarehouseDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if _, err := s.repo.GetCompany(ctx, input.CompanyID); err != nil {
		return nil, storageError(err, "shipping company")
	}
	warehouse := &models.Warehouse{
		CompanyID: input.CompanyID,
		Name:      name,
		Country:   strings.TrimSpace(input.Country),
		City:      strings.TrimSpace(input.City),
		Address:   strings.TrimSpace(input.Address),
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if err := s.repo.CreateWarehouse(ctx, warehouse); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse")
	}
	dto := WarehouseFromModel(warehouse)
	return &dto, nil
}

func (s *service) ListRateTypes(ctx context.Context, warehouseID uuid.UUID, includeInactive bool) ([]RateTypeDTO, error) {
	if _, err := s.repo.GetWarehouse(ctx, warehouseID); err != nil {
		return nil, storageError(err, "warehouse")
	}
	rows, err := s.repo.ListRateTypes(ctx, warehouseID, activeFilter(includeInactive))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rate types")
	}
	out := make([]RateTypeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, RateTypeFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateRateType(ctx context.Context, input CreateRateTypeDTO) (*RateTypeDTO, error) {
	if err := validateRateType(input); err != nil {
		return nil, err
	}
	warehouse, err := s.repo.GetWarehouse(ctx, input.WarehouseID)
	if err != nil {
		return nil, storageError(err, "warehouse")
	}
	model := input.ToModel(warehouse.CompanyID)
	model.Name = strings.TrimSpace(model.Name)
	if err := s.repo.CreateRateType(ctx, model); err != nil {
		if db.IsUniqueViolation(err, bracketUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate bracket upper bound")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rate type")
	}
	dto := RateTypeFromModel(model)
	return &dto, nil
}

func validateRateType(input CreateRateTypeDTO) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", input.Currency))
	}
	if input.UnitType != nil && !input.UnitType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported unit type %q", *input.UnitType))
	}
	if input.RoundingUnit != nil && !input.RoundingUnit.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "roundingUnit must be positive")
	}
	if len(input.Brackets) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one bracket is required")
	}
	seen := make(map[string]struct{}, len(input.Brackets))
	for i, b := range input.Brackets {
		if !b.UpperBoundCBM.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("brackets[%d].upperBoundCbm must be positive", i))
		}
		if b.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("brackets[%d].unitPrice must not be negative", i))
		}
		key := b.UpperBoundCBM.String()
		if _, dup := seen[key]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("brackets[%d].upperBoundCbm %s is duplicated", i, key))
		}
		seen[key] = struct{}{}
	}
	return nil
}

// ResolveRateType returns the explicitly requested rate type, or the warehouse default.
func (s *service) ResolveRateType(ctx context.Context, warehouseID uuid.UUID, rateTypeID *uuid.UUID) (*RateTypeDTO, error) {
	if s.logg != nil {
		ctx = s.logg.WithWarehouseID(ctx, warehouseID.String())
	}

	if rateTypeID != nil {
		row, err := s.repo.GetRateType(ctx, *rateTypeID)
		if err != nil {
			return nil, storageError(err, "rate type")
		}
		if row.WarehouseID != warehouseID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate type does not belong to warehouse")
		}
		if !row.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate type is inactive")
		}
		dto := RateTypeFromModel(row)
		return &dto, nil
	}

	active := true
	rows, err := s.repo.ListRateTypes(ctx, warehouseID, &active)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rate types")
	}
	candidates := make([]RateTypeDTO, 0, len(rows))
	for i := range rows {
		candidates = append(candidates, RateTypeFromModel(&rows[i]))
	}

	chosen, defaults, ok := pickDefault(candidates)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse has no active rate type")
	}
	if s.logg != nil {
		switch {
		case defaults == 0:
			s.logg.Warn(s.logg.WithField(ctx, "rate_type_id", chosen.ID.String()), "warehouse has no default rate type; using lowest sort order")
		case defaults > 1:
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"rate_type_id":  chosen.ID.String(),
				"default_count": defaults,
			}), "warehouse has several default rate types; using lowest sort order")
		}
	}
	return &chosen, nil
}

// pickDefault orders candidates by sort order, creation time and id, then returns the
// first default, or the first candidate when none is marked default. defaults reports
// how many candidates carried the default flag.
func pickDefault(candidates []RateTypeDTO) (chosen RateTypeDTO, defaults int, ok bool) {
	if len(candidates) == 0 {
		return RateTypeDTO{}, 0, false
	}
	ordered := make([]RateTypeDTO, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID.String() < b.ID.String()
	})

	found := false
	for _, rt := range ordered {
		if !rt.IsDefault {
			continue
		}
		defaults++
		if !found {
			chosen = rt
			found = true
		}
	}
	if !found {
		chosen = ordered[0]
	}
	return chosen, defaults, true
}

func storageError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
