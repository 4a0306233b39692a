package presets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/landedcost/internal/repo"
	"github.com/angelmondragon/landedcost/pkg/db"
	"github.com/angelmondragon/landedcost/pkg/db/models"
)

// advisoryLockKey serializes preset creation across connections on postgres.
const advisoryLockKey int64 = 0x6c63707273

var (
	// ErrCapacityExceeded is returned by CreateWithinCapacity when the cap is reached.
	ErrCapacityExceeded = errors.New("preset capacity exceeded")
	// ErrOrderMismatch means a reorder did not name every preset exactly once.
	ErrOrderMismatch = errors.New("reorder ids do not match stored presets")
)

// Repository handles preset persistence.
type Repository struct {
	db    *gorm.DB
	store *repo.Store[models.Preset]
}

// NewRepository binds a GORM DB to preset operations.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{
		db:    conn,
		store: repo.NewStore[models.Preset](conn, "", "sort_order ASC, created_at ASC, id ASC"),
	}
}

func (r *Repository) List(ctx context.Context) ([]models.Preset, error) {
	return r.store.List(ctx, repo.Filter{})
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Preset, error) {
	return r.store.Get(ctx, id)
}

func (r *Repository) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Preset, error) {
	return r.store.Patch(ctx, id, fields)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.Delete(ctx, id)
}

// CreateWithinCapacity counts, assigns sort order and inserts inside one transaction.
// On postgres the transaction first takes an advisory lock so concurrent creators
// observe each other's rows.
func (r *Repository) CreateWithinCapacity(ctx context.Context, preset *models.Preset, capacity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == db.DialectPostgres {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryLockKey).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&models.Preset{}).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(capacity) {
			return ErrCapacityExceeded
		}

		var highest int
		if err := tx.Model(&models.Preset{}).Select("COALESCE(MAX(sort_order), 0)").Row().Scan(&highest); err != nil {
			return err
		}
		preset.SortOrder = highest + 1
		return tx.Create(preset).Error
	})
}

// Reorder assigns sort orders 1..n following ids. ids must name every preset once.
func (r *Repository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&models.Preset{}).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if len(existing) != len(ids) {
			return ErrOrderMismatch
		}
		known := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			known[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return ErrOrderMismatch
			}
			delete(known, id)
		}

		for i, id := range ids {
			if err := tx.Model(&models.Preset{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
