package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Filter narrows a list by owning parent and active flag; nil fields are ignored.
type Filter struct {
	ParentID *uuid.UUID
	Active   *bool
}

// Store implements the list/get/create/patch/soft-delete/hard-delete contract shared
// by the catalog entities. T must be a gorm model with id and is_active columns.
type Store[T any] struct {
	Base
	parentColumn string
	order        string
}

// NewStore binds a Store to db. parentColumn may be empty for root entities.
func NewStore[T any](db *gorm.DB, parentColumn, order string) *Store[T] {
	return &Store[T]{Base: NewBase(db), parentColumn: parentColumn, order: order}
}

// List returns rows matching filter in the store's order.
func (s *Store[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	q := s.DB(ctx).Model(new(T))
	if filter.ParentID != nil {
		if s.parentColumn == "" {
			return nil, fmt.Errorf("entity has no parent column")
		}
		q = q.Where(s.parentColumn+" = ?", *filter.ParentID)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if s.order != "" {
		q = q.Order(s.order)
	}
	var rows []T
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get loads one row by id; gorm.ErrRecordNotFound when absent.
func (s *Store[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := s.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts row; ids and timestamps are assigned by model hooks and gorm.
func (s *Store[T]) Create(ctx context.Context, row *T) error {
	if row == nil {
		return fmt.Errorf("row is required")
	}
	return s.DB(ctx).Create(row).Error
}

// Patch updates only the provided columns and returns the reloaded row.
func (s *Store[T]) Patch(ctx context.Context, id uuid.UUID, fields map[string]any) (*T, error) {
	if len(fields) > 0 {
		res := s.DB(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return s.Get(ctx, id)
}

// SoftDelete flips is_active to false.
func (s *Store[T]) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := s.Patch(ctx, id, map[string]any{"is_active": false})
	return err
}

// Delete permanently removes the row.
func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
