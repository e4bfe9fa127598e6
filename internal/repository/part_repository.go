package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mgtrako/internal/model"
)

// PartRepository defines parts catalog persistence operations.
type PartRepository interface {
	Create(ctx context.Context, part *model.PartInfo) error
	Update(ctx context.Context, part *model.PartInfo) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PartInfo, error)
	FindByPartNumber(ctx context.Context, partNumber string) (*model.PartInfo, error)
	List(ctx context.Context, search string) ([]model.PartInfo, error)
}

type partRepository struct {
	db *gorm.DB
}

// NewPartRepository creates a new part catalog repository.
func NewPartRepository(db *gorm.DB) PartRepository {
	return &partRepository{db: db}
}

func (r *partRepository) Create(ctx context.Context, part *model.PartInfo) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *partRepository) Update(ctx context.Context, part *model.PartInfo) error {
	return r.db.WithContext(ctx).Save(part).Error
}

func (r *partRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PartInfo{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *partRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PartInfo, error) {
	var part model.PartInfo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

func (r *partRepository) FindByPartNumber(ctx context.Context, partNumber string) (*model.PartInfo, error) {
	var part model.PartInfo
	if err := r.db.WithContext(ctx).Where("part_number = ?", partNumber).First(&part).Error; err != nil {
		return nil, err
	}
	return &part, nil
}

// List returns catalog entries ordered by part number, optionally filtered
// by a case-insensitive match on number or description.
func (r *partRepository) List(ctx context.Context, search string) ([]model.PartInfo, error) {
	q := r.db.WithContext(ctx).Model(&model.PartInfo{})
	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(part_number) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var parts []model.PartInfo
	err := q.Order("part_number ASC").Find(&parts).Error
	return parts, err
}
