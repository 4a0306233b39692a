package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/internal/repo"
	"github.com/angelmondragon/landedcost/pkg/db/models"
)

const rateTypeOrder = "sort_order ASC, created_at ASC, id ASC"

// Repository handles shipping catalog persistence.
type Repository struct {
	db         *gorm.DB
	Companies  *repo.Store[models.ShippingCompany]
	Warehouses *repo.Store[models.Warehouse]
	RateTypes  *repo.Store[models.RateType]
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Companies:  repo.NewStore[models.ShippingCompany](db, "", "name ASC, created_at ASC"),
		Warehouses: repo.NewStore[models.Warehouse](db, "company_id", "sort_order ASC, created_at ASC"),
		RateTypes:  repo.NewStore[models.RateType](db, "warehouse_id", rateTypeOrder),
	}
}

func (r *Repository) ListCompanies(ctx context.Context, active *bool) ([]models.ShippingCompany, error) {
	return r.Companies.List(ctx, repo.Filter{Active: active})
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.ShippingCompany) error {
	return r.Companies.Create(ctx, company)
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.ShippingCompany, error) {
	return r.Companies.Get(ctx, id)
}

func (r *Repository) ListWarehouses(ctx context.Context, companyID uuid.UUID, active *bool) ([]models.Warehouse, error) {
	return r.Warehouses.List(ctx, repo.Filter{ParentID: &companyID, Active: active})
}

func (r *Repository) GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	return r.Warehouses.Get(ctx, id)
}

func (r *Repository) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	return r.Warehouses.Create(ctx, warehouse)
}

// ListRateTypes returns the warehouse's rate types with their brackets preloaded.
func (r *Repository) ListRateTypes(ctx context.Context, warehouseID uuid.UUID, active *bool) ([]models.RateType, error) {
	q := r.db.WithContext(ctx).
		Preload("Brackets", func(tx *gorm.DB) *gorm.DB { return tx.Order("upper_bound_cbm ASC") }).
		Where("warehouse_id = ?", warehouseID)
	if active != nil {
		q = q.Where("is_active = ?", *active)
	}
	var rows []models.RateType
	if err := q.Order(rateTypeOrder).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRateType loads a rate type and its brackets.
func (r *Repository) GetRateType(ctx context.Context, id uuid.UUID) (*models.RateType, error) {
	var row models.RateType
	if err := r.db.WithContext(ctx).
		Preload("Brackets", func(tx *gorm.DB) *gorm.DB { return tx.Order("upper_bound_cbm ASC") }).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateRateType inserts the rate type and its brackets in one transaction.
func (r *Repository) CreateRateType(ctx context.Context, rateType *models.RateType) error {
	if rateType == nil {
		return fmt.Errorf("rate type is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brackets := rateType.Brackets
		if err := tx.Omit("Brackets").Create(rateType).Error; err != nil {
			return err
		}
		if len(brackets) == 0 {
			return nil
		}
		for i := range brackets {
			brackets[i].RateTypeID = rateType.ID
		}
		if err := tx.Create(&brackets).Error; err != nil {
			return err
		}
		rateType.Brackets = brackets
		return nil
	})
}

// ReplaceBrackets swaps the whole freight table of a rate type.
func (r *Repository) ReplaceBrackets(ctx context.Context, rateTypeID uuid.UUID, brackets []models.RateBracket) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rate_type_id = ?", rateTypeID).Delete(&models.RateBracket{}).Error; err != nil {
			return err
		}
		if len(brackets) == 0 {
			return nil
		}
		for i := range brackets {
			brackets[i].RateTypeID = rateTypeID
		}
		return tx.Create(&brackets).Error
	})
}
