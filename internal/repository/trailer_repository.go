package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mgtrako/internal/model"
)

// TrailerRepository defines trailer persistence operations.
type TrailerRepository interface {
	Upsert(ctx context.Context, trailerNumber string) (*model.Trailer, error)
	FindByNumber(ctx context.Context, trailerNumber string) (*model.Trailer, error)
}

type trailerRepository struct {
	db *gorm.DB
}

// NewTrailerRepository creates a new trailer repository.
func NewTrailerRepository(db *gorm.DB) TrailerRepository {
	return &trailerRepository{db: db}
}

// Upsert inserts the trailer unless its number already exists, then reads it
// back. Concurrent callers with the same number end up with the same row.
func (r *trailerRepository) Upsert(ctx context.Context, trailerNumber string) (*model.Trailer, error) {
	candidate := model.Trailer{TrailerNumber: trailerNumber}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trailer_number"}},
			DoNothing: true,
		}).
		Create(&candidate).Error
	if err != nil {
		return nil, err
	}
	return r.FindByNumber(ctx, trailerNumber)
}

func (r *trailerRepository) FindByNumber(ctx context.Context, trailerNumber string) (*model.Trailer, error) {
	var trailer model.Trailer
	if err := r.db.WithContext(ctx).Where("trailer_number = ?", trailerNumber).First(&trailer).Error; err != nil {
		return nil, err
	}
	return &trailer, nil
}
