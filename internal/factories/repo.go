package factories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/internal/repo"
	"github.com/angelmondragon/landedcost/pkg/db/models"
)

// Repository handles factory and cost item persistence.
type Repository struct {
	factories *repo.Store[models.Factory]
	items     *repo.Store[models.FactoryCostItem]
}

// NewRepository binds a GORM DB to factory operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		factories: repo.NewStore[models.Factory](db, "", "name ASC, created_at ASC"),
		items:     repo.NewStore[models.FactoryCostItem](db, "factory_id", "sort_order ASC, created_at ASC"),
	}
}

func (r *Repository) ListFactories(ctx context.Context, active *bool) ([]models.Factory, error) {
	return r.factories.List(ctx, repo.Filter{Active: active})
}

func (r *Repository) GetFactory(ctx context.Context, id uuid.UUID) (*models.Factory, error) {
	return r.factories.Get(ctx, id)
}

func (r *Repository) CreateFactory(ctx context.Context, factory *models.Factory) error {
	return r.factories.Create(ctx, factory)
}

func (r *Repository) PatchFactory(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Factory, error) {
	return r.factories.Patch(ctx, id, fields)
}

func (r *Repository) SoftDeleteFactory(ctx context.Context, id uuid.UUID) error {
	return r.factories.SoftDelete(ctx, id)
}

func (r *Repository) DeleteFactory(ctx context.Context, id uuid.UUID) error {
	return r.factories.Delete(ctx, id)
}

func (r *Repository) ListItems(ctx context.Context, factoryID uuid.UUID, active *bool) ([]models.FactoryCostItem, error) {
	return r.items.List(ctx, repo.Filter{ParentID: &factoryID, Active: active})
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*models.FactoryCostItem, error) {
	return r.items.Get(ctx, id)
}

func (r *Repository) CreateItem(ctx context.Context, item *models.FactoryCostItem) error {
	return r.items.Create(ctx, item)
}

func (r *Repository) PatchItem(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.FactoryCostItem, error) {
	return r.items.Patch(ctx, id, fields)
}

func (r *Repository) SoftDeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.items.SoftDelete(ctx, id)
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.items.Delete(ctx, id)
}

// MaxItemSortOrder returns the highest sort order among a factory's items, 0 when none.
func (r *Repository) MaxItemSortOrder(ctx context.Context, factoryID uuid.UUID) (int, error) {
	var highest int
	row := r.items.DB(ctx).Model(&models.FactoryCostItem{}).
		Where("factory_id = ?", factoryID).
		Select("COALESCE(MAX(sort_order), 0)").
		Row()
	if err := row.Scan(&highest); err != nil {
		return 0, err
	}
	return highest, nil
}
