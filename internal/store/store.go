package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"rvm-status-backend/internal/filter"
	"rvm-status-backend/internal/model"
)

// Store defines the interface for all database operations.
//
// Every method operates on the active record set: machines whose is_active
// flag has been cleared are invisible here, so a soft-deleted machine can no
// longer be retrieved, updated or even hard-deleted through this interface.
type Store interface {
	DB() *gorm.DB
	ListRVMs(ctx context.Context, f filter.Filter) ([]model.RVM, error)
	GetRVM(ctx context.Context, id int64) (*model.RVM, error)
	CreateRVM(ctx context.Context, rvm *model.RVM) error
	SaveRVM(ctx context.Context, rvm *model.RVM) error
	DeleteRVM(ctx context.Context, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying gorm handle for callers that need raw access
// (subscription handlers, notification worker).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// active scopes a query to the visible record set.
func (s *gormStore) active(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Where("is_active = ?", true)
}

// ListRVMs returns the active machines matching f, most recently used
// first. Machines that have never reported a usage sort last, in insertion
// order.
func (s *gormStore) ListRVMs(ctx context.Context, f filter.Filter) ([]model.RVM, error) {
	rvms := make([]model.RVM, 0)
	err := f.Apply(s.active(ctx).Model(&model.RVM{})).
		Order("last_usage DESC NULLS LAST, id ASC").
		Find(&rvms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rvms: %w", err)
	}
	return rvms, nil
}

// GetRVM fetches a single active machine. Returns gorm.ErrRecordNotFound
// for unknown or inactive ids.
func (s *gormStore) GetRVM(ctx context.Context, id int64) (*model.RVM, error) {
	var rvm model.RVM
	if err := s.active(ctx).First(&rvm, id).Error; err != nil {
		return nil, err
	}
	return &rvm, nil
}

// CreateRVM inserts a new machine and fills in its assigned id.
func (s *gormStore) CreateRVM(ctx context.Context, rvm *model.RVM) error {
	if err := s.db.WithContext(ctx).Create(rvm).Error; err != nil {
		return fmt.Errorf("failed to create rvm: %w", err)
	}
	return nil
}

// SaveRVM persists all fields of a previously fetched machine.
// Last-write-wins; no optimistic locking.
func (s *gormStore) SaveRVM(ctx context.Context, rvm *model.RVM) error {
	if err := s.db.WithContext(ctx).Save(rvm).Error; err != nil {
		return fmt.Errorf("failed to save rvm %d: %w", rvm.ID, err)
	}
	return nil
}

// DeleteRVM removes an active machine permanently. Inactive machines are
// out of reach here too, so the delete reports gorm.ErrRecordNotFound for
// them just like for unknown ids.
func (s *gormStore) DeleteRVM(ctx context.Context, id int64) error {
	res := s.active(ctx).Delete(&model.RVM{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete rvm %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
